package vm

import "unicode/utf8"

// ---------------------------------------------------------------------------
// Symbol Primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerSymbolPrimitives() {
	c := vm.SymbolClass

	c.AddMethod0(vm.Selectors, "to_s", func(v *VM, recv Value) Value {
		return v.NewString(v.SymbolName(recv))
	})
	c.AddMethod0(vm.Selectors, "to_sym", func(_ *VM, recv Value) Value {
		return recv
	})
	length := func(v *VM, recv Value) Value {
		return FromSmallInt(int64(utf8.RuneCountInString(v.SymbolName(recv))))
	}
	c.AddMethod0(vm.Selectors, "length", length)
	c.AddMethod0(vm.Selectors, "size", length)
}
