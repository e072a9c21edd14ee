package vm

// ---------------------------------------------------------------------------
// Module and Class Primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerModulePrimitives() {
	m := vm.ModuleClass

	name := func(v *VM, recv Value) Value {
		return v.NewString(v.mustModule(recv).FullName())
	}
	m.AddMethod0(vm.Selectors, "name", name)
	m.AddMethod0(vm.Selectors, "to_s", name)
	m.AddMethod0(vm.Selectors, "inspect", name)

	// Module#=== - instance test, used by rescue-style matching
	m.AddMethod1(vm.Selectors, "===", func(v *VM, recv Value, arg Value) Value {
		return FromBool(v.IsKindOf(arg, v.mustModule(recv)))
	})

	// Module#<= - subclass test
	m.AddMethod1(vm.Selectors, "<=", func(v *VM, recv Value, arg Value) Value {
		return FromBool(v.mustModule(recv).IsSubclassOf(v.mustModule(arg)))
	})

	m.AddMethod0(vm.Selectors, "ancestors", func(v *VM, recv Value) Value {
		ancestors := v.mustModule(recv).Ancestors()
		vals := make([]Value, len(ancestors))
		for i, a := range ancestors {
			vals[i] = a.value
		}
		return v.NewArray(vals)
	})

	m.AddMethod0(vm.Selectors, "instance_methods", func(v *VM, recv Value) Value {
		names := v.mustModule(recv).MethodNames(v.Selectors)
		syms := make([]Value, len(names))
		for i, n := range names {
			syms[i] = v.Symbol(n)
		}
		return v.NewArray(syms)
	})

	m.AddMethod1(vm.Selectors, "method_defined?", func(v *VM, recv Value, arg Value) Value {
		return FromBool(v.mustModule(recv).LookupMethod(v.Selectors, v.nameArg(arg)) != nil)
	})

	m.AddMethod1(vm.Selectors, "const_get", func(v *VM, recv Value, arg Value) Value {
		n := v.nameArg(arg)
		if val, ok := v.mustModule(recv).Constant(n); ok {
			return val
		}
		v.Raise(v.NameErrorClass, "uninitialized constant %s::%s", v.mustModule(recv).FullName(), n)
		return Nil
	})

	m.AddMethod2(vm.Selectors, "const_set", func(v *VM, recv Value, arg Value, val Value) Value {
		v.checkFrozen(recv)
		v.mustModule(recv).SetConstant(v.nameArg(arg), val)
		return val
	})

	c := vm.ClassClass

	// Class#new(*args) - allocate, then send initialize with the arguments
	c.AddVariadicMethod(vm.Selectors, "new", func(v *VM, recv Value, args []Value) Value {
		obj := v.allocateInstance(v.mustModule(recv))
		v.Send(obj, "initialize", args)
		return obj
	})

	c.AddMethod0(vm.Selectors, "allocate", func(v *VM, recv Value) Value {
		return v.allocateInstance(v.mustModule(recv))
	})

	c.AddMethod0(vm.Selectors, "superclass", func(v *VM, recv Value) Value {
		if sc := v.mustModule(recv).Superclass; sc != nil {
			return sc.value
		}
		return Nil
	})
}
