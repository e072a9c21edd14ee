package vm

// ---------------------------------------------------------------------------
// NilClass, TrueClass and FalseClass Primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerNilBoolPrimitives() {
	n := vm.NilClass
	n.AddMethod0(vm.Selectors, "to_a", func(v *VM, _ Value) Value {
		return v.NewArray(nil)
	})
	n.AddMethod0(vm.Selectors, "to_i", func(_ *VM, _ Value) Value {
		return FromSmallInt(0)
	})

	for _, c := range []*Class{vm.NilClass, vm.TrueClass, vm.FalseClass} {
		c.AddMethod1(vm.Selectors, "&", func(_ *VM, recv Value, arg Value) Value {
			return FromBool(recv.IsTruthy() && arg.IsTruthy())
		})
		c.AddMethod1(vm.Selectors, "|", func(_ *VM, recv Value, arg Value) Value {
			return FromBool(recv.IsTruthy() || arg.IsTruthy())
		})
		c.AddMethod1(vm.Selectors, "^", func(_ *VM, recv Value, arg Value) Value {
			return FromBool(recv.IsTruthy() != arg.IsTruthy())
		})
	}
}
