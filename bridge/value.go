package bridge

import (
	"github.com/chazu/maglink/vm"
)

// Value is a handle naming a VM value. It is a plain word: copying it is
// free and never changes whether the referent stays alive. See Root for
// keeping a Value past the call that produced it.
type Value vm.Value

// ValueType is the runtime type tag of a Value.
type ValueType = vm.Type

const (
	TypeNone      = vm.TypeNone
	TypeNil       = vm.TypeNil
	TypeTrue      = vm.TypeTrue
	TypeFalse     = vm.TypeFalse
	TypeFixnum    = vm.TypeFixnum
	TypeFloat     = vm.TypeFloat
	TypeSymbol    = vm.TypeSymbol
	TypeString    = vm.TypeString
	TypeArray     = vm.TypeArray
	TypeObject    = vm.TypeObject
	TypeClass     = vm.TypeClass
	TypeModule    = vm.TypeModule
	TypeException = vm.TypeException
	TypeData      = vm.TypeData
)

// Special values.
const (
	Nil   = Value(vm.Nil)
	True  = Value(vm.True)
	False = Value(vm.False)
)

// Type returns the runtime type tag of v. It reads the word and the VM's
// handle table only: it never dispatches, never raises and never fails.
// A collected referent, or any heap reference while no VM is installed,
// reports TypeNone.
func (v Value) Type() ValueType {
	if t, ok := vm.ImmediateType(vm.Value(v)); ok {
		return t
	}
	m := current.Load()
	if m == nil {
		return TypeNone
	}
	return m.TypeOf(vm.Value(v))
}

// IsNil reports whether v is nil.
func (v Value) IsNil() bool { return vm.Value(v) == vm.Nil }

// IsTruthy reports whether v is neither nil nor false.
func (v Value) IsTruthy() bool { return vm.Value(v).IsTruthy() }

func (v Value) raw() vm.Value { return vm.Value(v) }

func rawValues(vals []Value) []vm.Value {
	if len(vals) == 0 {
		return nil
	}
	out := make([]vm.Value, len(vals))
	for i, v := range vals {
		out[i] = vm.Value(v)
	}
	return out
}

func fromRawValues(vals []vm.Value) []Value {
	if len(vals) == 0 {
		return nil
	}
	out := make([]Value, len(vals))
	for i, v := range vals {
		out[i] = Value(v)
	}
	return out
}

func objectValues(objs []Object) []vm.Value {
	if len(objs) == 0 {
		return nil
	}
	out := make([]vm.Value, len(objs))
	for i, o := range objs {
		if o == nil {
			out[i] = vm.Nil
			continue
		}
		out[i] = vm.Value(o.Value())
	}
	return out
}

func fitsSmallInt(n int64) bool {
	_, ok := vm.TryFromSmallInt(n)
	return ok
}

// pin keeps o alive until the returned release function runs. Values
// built at the top level, outside any VM call, belong to no frame.
func pin(o Object) (release func()) {
	m := Current()
	v := o.Value().raw()
	m.KeepAlive(v)
	return func() { m.ReleaseKeepAlive(v) }
}
