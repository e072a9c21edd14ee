package bridge

import (
	"github.com/chazu/maglink/vm"
)

// GCStats summarizes collector activity.
type GCStats = vm.GCStats

// Root keeps a Value alive while Go code holds it outside any VM call.
//
// A Value stored in a Go variable, struct field or collection is invisible
// to the collector. Hold it through a Root instead, or make it reachable
// from the VM (an instance variable, constant, array element or a Data
// mark function), and call Release once Go no longer needs it.
type Root[T VerifiedObject[T]] struct {
	vm       *vm.VM
	slot     vm.Value
	released bool
}

// NewRoot registers o as a GC root.
func NewRoot[T VerifiedObject[T]](o T) *Root[T] {
	r := &Root[T]{vm: Current(), slot: o.Value().raw()}
	r.vm.RegisterRoot(&r.slot)
	return r
}

// Get returns the rooted object.
func (r *Root[T]) Get() T {
	var zero T
	return zero.FromValue(Value(r.slot))
}

// Set replaces the rooted object.
func (r *Root[T]) Set(o T) {
	r.vm.Locked(func() { r.slot = o.Value().raw() })
}

// Release unregisters the root. It is safe to call more than once.
func (r *Root[T]) Release() {
	if r.released {
		return
	}
	r.released = true
	r.vm.UnregisterRoot(&r.slot)
}

// GC runs a full collection.
func GC() GCStats {
	return Current().CollectGarbage()
}

// IsLive reports whether v can still be used: it is an immediate or names
// an object the collector has not freed.
func IsLive(v Value) bool {
	m := current.Load()
	if m == nil {
		return !v.raw().IsRef()
	}
	return m.IsLive(v.raw())
}
