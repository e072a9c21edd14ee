package vm

import (
	"math"
	"strconv"
)

// ---------------------------------------------------------------------------
// Integer Primitives
// ---------------------------------------------------------------------------

// intResult boxes n, raising RangeError when it leaves the SmallInt range.
func (vm *VM) intResult(n int64) Value {
	v, ok := TryFromSmallInt(n)
	if !ok {
		vm.Raise(vm.RangeErrorClass, "integer %d out of range", n)
	}
	return v
}

// numArg returns arg as a float64, raising TypeError for non-numerics.
func (vm *VM) numArg(recv, arg Value) float64 {
	switch {
	case arg.IsSmallInt():
		return float64(arg.SmallInt())
	case arg.IsFloat():
		return arg.Float64()
	}
	vm.Raise(vm.TypeErrorClass, "%s can't be coerced into %s", vm.ClassFor(arg).FullName(), vm.ClassFor(recv).FullName())
	return 0
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

func (vm *VM) registerIntegerPrimitives() {
	c := vm.IntegerClass

	// Arithmetic: Integer op Integer stays Integer, anything with a Float
	// becomes Float.
	intOp := func(name string, op func(v *VM, a, b int64) Value, fop func(a, b float64) float64) {
		c.AddMethod1(vm.Selectors, name, func(v *VM, recv Value, arg Value) Value {
			if arg.IsSmallInt() {
				return op(v, recv.SmallInt(), arg.SmallInt())
			}
			return FromFloat64(fop(float64(recv.SmallInt()), v.numArg(recv, arg)))
		})
	}
	intOp("+", func(v *VM, a, b int64) Value { return v.intResult(a + b) },
		func(a, b float64) float64 { return a + b })
	intOp("-", func(v *VM, a, b int64) Value { return v.intResult(a - b) },
		func(a, b float64) float64 { return a - b })
	intOp("*", func(v *VM, a, b int64) Value {
		if a != 0 && (a*b)/a != b {
			v.Raise(v.RangeErrorClass, "integer multiplication overflow")
		}
		return v.intResult(a * b)
	}, func(a, b float64) float64 { return a * b })
	intOp("/", func(v *VM, a, b int64) Value {
		if b == 0 {
			v.Raise(v.ZeroDivisionErrorClass, "divided by 0")
		}
		return v.intResult(floorDiv(a, b))
	}, func(a, b float64) float64 { return a / b })
	intOp("%", func(v *VM, a, b int64) Value {
		if b == 0 {
			v.Raise(v.ZeroDivisionErrorClass, "divided by 0")
		}
		return FromSmallInt(floorMod(a, b))
	}, math.Mod)

	// Comparison
	intCmp := func(name string, cmp func(a, b float64) bool) {
		c.AddMethod1(vm.Selectors, name, func(v *VM, recv Value, arg Value) Value {
			if arg.IsSmallInt() {
				return FromBool(cmp(float64(recv.SmallInt()), float64(arg.SmallInt())))
			}
			return FromBool(cmp(float64(recv.SmallInt()), v.numArg(recv, arg)))
		})
	}
	intCmp("<", func(a, b float64) bool { return a < b })
	intCmp("<=", func(a, b float64) bool { return a <= b })
	intCmp(">", func(a, b float64) bool { return a > b })
	intCmp(">=", func(a, b float64) bool { return a >= b })

	c.AddMethod1(vm.Selectors, "==", func(_ *VM, recv Value, arg Value) Value {
		if arg.IsSmallInt() {
			return FromBool(recv == arg)
		}
		if arg.IsFloat() {
			return FromBool(float64(recv.SmallInt()) == arg.Float64())
		}
		return False
	})

	c.AddMethod0(vm.Selectors, "to_s", func(v *VM, recv Value) Value {
		return v.NewString(strconv.FormatInt(recv.SmallInt(), 10))
	})
	c.AddMethod0(vm.Selectors, "to_i", func(_ *VM, recv Value) Value {
		return recv
	})
	c.AddMethod0(vm.Selectors, "to_f", func(_ *VM, recv Value) Value {
		return FromFloat64(float64(recv.SmallInt()))
	})
	c.AddMethod0(vm.Selectors, "abs", func(v *VM, recv Value) Value {
		if n := recv.SmallInt(); n < 0 {
			return v.intResult(-n)
		}
		return recv
	})
	c.AddMethod0(vm.Selectors, "zero?", func(_ *VM, recv Value) Value {
		return FromBool(recv.SmallInt() == 0)
	})
	c.AddMethod0(vm.Selectors, "succ", func(v *VM, recv Value) Value {
		return v.intResult(recv.SmallInt() + 1)
	})
}
