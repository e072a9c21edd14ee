package vm

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Heap: handle table for every collectable object
// ---------------------------------------------------------------------------

// Heap maps handle IDs to heap objects.
//
// IDs are never reused, in this heap or any other in the process, so a
// Value that outlives its object (or its VM) stays dangling instead of
// silently aliasing a newer object. Mutation happens under the GVL; the
// lock only makes Get safe for type queries from other goroutines.
type Heap struct {
	mu    sync.RWMutex
	cells map[uint64]*cell

	allocsSinceGC int
}

// handleIDs hands out heap IDs for every VM in the process.
var handleIDs atomic.Uint64

type cell struct {
	obj    HeapObject
	marked bool
}

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return &Heap{cells: make(map[uint64]*cell)}
}

// put stores obj and returns its handle.
func (h *Heap) put(obj HeapObject) Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := handleIDs.Add(1)
	h.cells[id] = &cell{obj: obj}
	h.allocsSinceGC++
	return FromRefID(id)
}

// Get returns the object named by v, or nil if v is not a reference or
// names a collected object.
func (h *Heap) Get(v Value) HeapObject {
	if !v.IsRef() {
		return nil
	}
	h.mu.RLock()
	c, ok := h.cells[v.RefID()]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	return c.obj
}

// Live returns the number of objects currently in the heap.
func (h *Heap) Live() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.cells)
}

// DanglingError is panicked when a Value naming a collected object is used
// for dispatch or field access. It signals a broken GC discipline on the
// host side and is not recoverable at the VM level.
type DanglingError struct {
	Value Value
}

func (e *DanglingError) Error() string {
	return fmt.Sprintf("vm: use of collected object (handle %d)", e.Value.RefID())
}

// deref returns the live object for v or panics with a DanglingError.
func (vm *VM) deref(v Value) HeapObject {
	obj := vm.heap.Get(v)
	if obj == nil {
		panic(&DanglingError{Value: v})
	}
	return obj
}

// alloc puts obj in the heap, running a collection first when the
// allocation threshold has been reached. The new Value is recorded as a
// local of the innermost frame so it survives until that frame returns.
func (vm *VM) alloc(obj HeapObject) Value {
	if vm.opts.GCThreshold > 0 && vm.heap.allocsSinceGC >= vm.opts.GCThreshold {
		vm.collect()
	}
	v := vm.heap.put(obj)
	vm.addLocal(v)
	return v
}

// ---------------------------------------------------------------------------
// Typed accessors
// ---------------------------------------------------------------------------

// StringObjectOf returns the string object for v, or nil.
func (vm *VM) StringObjectOf(v Value) *StringObject {
	s, _ := vm.heap.Get(v).(*StringObject)
	return s
}

// ArrayObjectOf returns the array object for v, or nil.
func (vm *VM) ArrayObjectOf(v Value) *ArrayObject {
	a, _ := vm.heap.Get(v).(*ArrayObject)
	return a
}

// ExceptionObjectOf returns the exception object for v, or nil.
func (vm *VM) ExceptionObjectOf(v Value) *ExceptionObject {
	e, _ := vm.heap.Get(v).(*ExceptionObject)
	return e
}

// DataObjectOf returns the data object for v, or nil.
func (vm *VM) DataObjectOf(v Value) *DataObject {
	d, _ := vm.heap.Get(v).(*DataObject)
	return d
}

// ClassOf returns the class or module named by v, or nil.
func (vm *VM) ClassOf(v Value) *Class {
	c, _ := vm.heap.Get(v).(*Class)
	return c
}
