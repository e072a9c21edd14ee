package vm

import "strings"

// NewArray allocates an Array holding a copy of elems.
func (vm *VM) NewArray(elems []Value) Value {
	defer vm.enter()()
	owned := make([]Value, len(elems))
	copy(owned, elems)
	return vm.alloc(&ArrayObject{header: header{class: vm.ArrayClass}, Elements: owned})
}

func (vm *VM) mustArray(v Value) *ArrayObject {
	a, ok := vm.deref(v).(*ArrayObject)
	if !ok {
		vm.Raise(vm.TypeErrorClass, "%s is not an Array", vm.describe(v))
	}
	return a
}

// normalizeIndex resolves a possibly negative index against n.
func normalizeIndex(i int64, n int) (int, bool) {
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return int(i), false
	}
	return int(i), true
}

// ---------------------------------------------------------------------------
// Array Primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerArrayPrimitives() {
	c := vm.ArrayClass

	// Array[](*elems)
	c.AddClassVariadicMethod(vm.Selectors, "[]", func(v *VM, _ Value, args []Value) Value {
		return v.NewArray(args)
	})

	// Array#initialize(size = 0, fill = nil)
	c.AddVariadicMethod(vm.Selectors, "initialize", func(v *VM, recv Value, args []Value) Value {
		var size, fill Value
		v.ScanArgs(len(args), argvOf(args), "02", &size, &fill)
		if size == Nil {
			return Nil
		}
		n := v.intArg(size)
		if n < 0 {
			v.Raise(v.ArgumentErrorClass, "negative array size")
		}
		elems := make([]Value, n)
		for i := range elems {
			elems[i] = fill
		}
		v.mustArray(recv).Elements = elems
		return Nil
	})

	// Queries
	length := func(v *VM, recv Value) Value {
		return FromSmallInt(int64(len(v.mustArray(recv).Elements)))
	}
	c.AddMethod0(vm.Selectors, "length", length)
	c.AddMethod0(vm.Selectors, "size", length)
	c.AddMethod0(vm.Selectors, "empty?", func(v *VM, recv Value) Value {
		return FromBool(len(v.mustArray(recv).Elements) == 0)
	})
	c.AddMethod1(vm.Selectors, "include?", func(v *VM, recv Value, arg Value) Value {
		for _, e := range v.mustArray(recv).Elements {
			if v.Equal(e, arg) {
				return True
			}
		}
		return False
	})

	// Element access
	c.AddMethod1(vm.Selectors, "[]", func(v *VM, recv Value, arg Value) Value {
		elems := v.mustArray(recv).Elements
		i, ok := normalizeIndex(v.intArg(arg), len(elems))
		if !ok {
			return Nil
		}
		return elems[i]
	})

	c.AddMethod2(vm.Selectors, "[]=", func(v *VM, recv Value, idx Value, val Value) Value {
		v.checkFrozen(recv)
		a := v.mustArray(recv)
		raw := v.intArg(idx)
		i, ok := normalizeIndex(raw, len(a.Elements))
		if !ok {
			if raw < 0 {
				v.Raise(v.IndexErrorClass, "index %d too small for array; minimum: -%d", raw, len(a.Elements))
			}
			for len(a.Elements) <= i {
				a.Elements = append(a.Elements, Nil)
			}
		}
		a.Elements[i] = val
		return val
	})

	c.AddMethod0(vm.Selectors, "first", func(v *VM, recv Value) Value {
		elems := v.mustArray(recv).Elements
		if len(elems) == 0 {
			return Nil
		}
		return elems[0]
	})
	c.AddMethod0(vm.Selectors, "last", func(v *VM, recv Value) Value {
		elems := v.mustArray(recv).Elements
		if len(elems) == 0 {
			return Nil
		}
		return elems[len(elems)-1]
	})

	// Mutation
	c.AddVariadicMethod(vm.Selectors, "push", func(v *VM, recv Value, args []Value) Value {
		v.checkFrozen(recv)
		a := v.mustArray(recv)
		a.Elements = append(a.Elements, args...)
		return recv
	})
	c.AddMethod1(vm.Selectors, "<<", func(v *VM, recv Value, arg Value) Value {
		v.checkFrozen(recv)
		a := v.mustArray(recv)
		a.Elements = append(a.Elements, arg)
		return recv
	})
	c.AddMethod0(vm.Selectors, "pop", func(v *VM, recv Value) Value {
		v.checkFrozen(recv)
		a := v.mustArray(recv)
		if len(a.Elements) == 0 {
			return Nil
		}
		last := a.Elements[len(a.Elements)-1]
		a.Elements = a.Elements[:len(a.Elements)-1]
		return last
	})
	c.AddMethod0(vm.Selectors, "shift", func(v *VM, recv Value) Value {
		v.checkFrozen(recv)
		a := v.mustArray(recv)
		if len(a.Elements) == 0 {
			return Nil
		}
		first := a.Elements[0]
		a.Elements = a.Elements[1:]
		return first
	})
	c.AddMethod1(vm.Selectors, "concat", func(v *VM, recv Value, arg Value) Value {
		v.checkFrozen(recv)
		a := v.mustArray(recv)
		a.Elements = append(a.Elements, v.mustArray(arg).Elements...)
		return recv
	})

	// Copies
	c.AddMethod0(vm.Selectors, "reverse", func(v *VM, recv Value) Value {
		elems := v.mustArray(recv).Elements
		out := make([]Value, len(elems))
		for i, e := range elems {
			out[len(elems)-1-i] = e
		}
		return v.NewArray(out)
	})
	c.AddMethod0(vm.Selectors, "to_a", func(_ *VM, recv Value) Value {
		return recv
	})
	c.AddMethod1(vm.Selectors, "+", func(v *VM, recv Value, arg Value) Value {
		a, b := v.mustArray(recv).Elements, v.mustArray(arg).Elements
		out := make([]Value, 0, len(a)+len(b))
		return v.NewArray(append(append(out, a...), b...))
	})

	// Array#join(sep = "")
	c.AddVariadicMethod(vm.Selectors, "join", func(v *VM, recv Value, args []Value) Value {
		var sep Value
		v.ScanArgs(len(args), argvOf(args), "01", &sep)
		s := ""
		if sep != Nil {
			s = v.stringArg(sep)
		}
		elems := v.mustArray(recv).Elements
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = v.ToS(e)
		}
		return v.NewString(strings.Join(parts, s))
	})

	c.AddMethod1(vm.Selectors, "==", func(v *VM, recv Value, arg Value) Value {
		other := v.ArrayObjectOf(arg)
		if other == nil {
			return False
		}
		mine := v.mustArray(recv).Elements
		if len(mine) != len(other.Elements) {
			return False
		}
		for i := range mine {
			if !v.Equal(mine[i], other.Elements[i]) {
				return False
			}
		}
		return True
	})

	c.AddMethod0(vm.Selectors, "inspect", func(v *VM, recv Value) Value {
		return v.NewString(v.Inspect(recv))
	})
	c.AddMethod0(vm.Selectors, "to_s", func(v *VM, recv Value) Value {
		return v.NewString(v.Inspect(recv))
	})
}

// ArrayElements returns a copy of the elements of v and whether v is an
// Array.
func (vm *VM) ArrayElements(v Value) ([]Value, bool) {
	defer vm.enter()()
	a := vm.ArrayObjectOf(v)
	if a == nil {
		return nil, false
	}
	out := make([]Value, len(a.Elements))
	copy(out, a.Elements)
	return out, true
}
