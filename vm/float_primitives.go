package vm

import "math"

// ---------------------------------------------------------------------------
// Float Primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerFloatPrimitives() {
	f := vm.FloatClass

	floatOp := func(name string, op func(a, b float64) float64) {
		f.AddMethod1(vm.Selectors, name, func(v *VM, recv Value, arg Value) Value {
			return FromFloat64(op(recv.Float64(), v.numArg(recv, arg)))
		})
	}
	floatOp("+", func(a, b float64) float64 { return a + b })
	floatOp("-", func(a, b float64) float64 { return a - b })
	floatOp("*", func(a, b float64) float64 { return a * b })
	floatOp("/", func(a, b float64) float64 { return a / b })

	floatCmp := func(name string, cmp func(a, b float64) bool) {
		f.AddMethod1(vm.Selectors, name, func(v *VM, recv Value, arg Value) Value {
			return FromBool(cmp(recv.Float64(), v.numArg(recv, arg)))
		})
	}
	floatCmp("<", func(a, b float64) bool { return a < b })
	floatCmp("<=", func(a, b float64) bool { return a <= b })
	floatCmp(">", func(a, b float64) bool { return a > b })
	floatCmp(">=", func(a, b float64) bool { return a >= b })

	f.AddMethod1(vm.Selectors, "==", func(_ *VM, recv Value, arg Value) Value {
		switch {
		case arg.IsFloat():
			return FromBool(recv.Float64() == arg.Float64())
		case arg.IsSmallInt():
			return FromBool(recv.Float64() == float64(arg.SmallInt()))
		}
		return False
	})

	f.AddMethod0(vm.Selectors, "to_s", func(v *VM, recv Value) Value {
		return v.NewString(FormatFloat(recv.Float64()))
	})
	f.AddMethod0(vm.Selectors, "to_f", func(_ *VM, recv Value) Value {
		return recv
	})
	toInt := func(round func(float64) float64) Method0Func {
		return func(v *VM, recv Value) Value {
			x := recv.Float64()
			if math.IsNaN(x) || math.IsInf(x, 0) {
				v.Raise(v.RangeErrorClass, "%s out of range of integer", FormatFloat(x))
			}
			x = round(x)
			if x > float64(MaxSmallInt) || x < float64(MinSmallInt) {
				v.Raise(v.RangeErrorClass, "%s out of range of integer", FormatFloat(x))
			}
			return FromSmallInt(int64(x))
		}
	}
	f.AddMethod0(vm.Selectors, "to_i", toInt(math.Trunc))
	f.AddMethod0(vm.Selectors, "floor", toInt(math.Floor))
	f.AddMethod0(vm.Selectors, "ceil", toInt(math.Ceil))
	f.AddMethod0(vm.Selectors, "round", toInt(math.Round))
	f.AddMethod0(vm.Selectors, "nan?", func(_ *VM, recv Value) Value {
		return FromBool(math.IsNaN(recv.Float64()))
	})
}
