package vm

import "time"

// ---------------------------------------------------------------------------
// Garbage Collection
// ---------------------------------------------------------------------------

// GCStats summarizes collector activity.
type GCStats struct {
	Runs      int
	Live      int
	LastFreed int
	Freed     int
	Duration  time.Duration
}

// CollectGarbage runs a full mark/sweep collection and returns the
// updated statistics.
//
// Roots are: every class and module (and so every constant), the frame
// stack (receivers, arguments and locals), registered root slots, kept-
// alive values, the last raised exception and the top-level receiver.
// Anything else is freed. Freed handles are never reissued.
func (vm *VM) CollectGarbage() GCStats {
	defer vm.enter()()
	vm.collect()
	return vm.gcStats
}

// GCStats returns the statistics of the collections run so far.
func (vm *VM) GCStats() GCStats {
	defer vm.enter()()
	stats := vm.gcStats
	stats.Live = vm.heap.Live()
	return stats
}

func (vm *VM) collect() {
	start := time.Now()
	h := vm.heap
	h.mu.Lock()

	// Mark phase: iterative so deep object graphs cannot blow the Go stack
	var pending []HeapObject
	mark := func(v Value) {
		if !v.IsRef() {
			return
		}
		c, ok := h.cells[v.RefID()]
		if !ok || c.marked {
			return
		}
		c.marked = true
		pending = append(pending, c.obj)
	}

	for _, c := range vm.Classes.All() {
		mark(c.value)
	}
	for _, f := range vm.frames {
		mark(f.Receiver)
		for _, a := range f.Args {
			mark(a)
		}
		for _, l := range f.locals {
			mark(l)
		}
	}
	for slot := range vm.roots {
		mark(*slot)
	}
	for v := range vm.pinned {
		mark(v)
	}
	mark(vm.errinfo)
	mark(vm.main)

	for len(pending) > 0 {
		obj := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		obj.hdr().class.eachRefSelf(mark)
		obj.eachRef(mark)
	}

	// Sweep phase
	var finalizers []*DataObject
	freed := 0
	for id, c := range h.cells {
		if c.marked {
			c.marked = false
			continue
		}
		if d, ok := c.obj.(*DataObject); ok && d.Free != nil {
			finalizers = append(finalizers, d)
		}
		delete(h.cells, id)
		freed++
	}
	h.allocsSinceGC = 0
	live := len(h.cells)
	h.mu.Unlock()

	for _, d := range finalizers {
		d.Free(d.Data)
	}

	vm.gcStats.Runs++
	vm.gcStats.LastFreed = freed
	vm.gcStats.Freed += freed
	vm.gcStats.Live = live
	vm.gcStats.Duration += time.Since(start)
	vm.log.Debugf("gc #%d: freed %d, live %d", vm.gcStats.Runs, freed, live)
}

// eachRefSelf marks the class itself; a live instance keeps its class.
func (c *Class) eachRefSelf(fn func(Value)) {
	if c != nil {
		fn(c.value)
	}
}

// ---------------------------------------------------------------------------
// Root registration
// ---------------------------------------------------------------------------

// RegisterRoot makes the Value stored at slot a root. The slot is read at
// every collection, so later stores into it are tracked too. Registering
// the same slot twice needs two UnregisterRoot calls.
func (vm *VM) RegisterRoot(slot *Value) {
	defer vm.enter()()
	vm.roots[slot]++
}

// UnregisterRoot undoes one RegisterRoot for slot.
func (vm *VM) UnregisterRoot(slot *Value) {
	defer vm.enter()()
	if n := vm.roots[slot]; n > 1 {
		vm.roots[slot] = n - 1
	} else {
		delete(vm.roots, slot)
	}
}

// RootCount returns the number of registered root slots.
func (vm *VM) RootCount() int {
	defer vm.enter()()
	return len(vm.roots)
}

// KeepAlive pins v until a matching ReleaseKeepAlive. Pins are counted.
func (vm *VM) KeepAlive(v Value) {
	if !v.IsRef() {
		return
	}
	defer vm.enter()()
	vm.pinned[v]++
}

// ReleaseKeepAlive undoes one KeepAlive for v.
func (vm *VM) ReleaseKeepAlive(v Value) {
	if !v.IsRef() {
		return
	}
	defer vm.enter()()
	if n := vm.pinned[v]; n > 1 {
		vm.pinned[v] = n - 1
	} else {
		delete(vm.pinned, v)
	}
}

// KeepAliveCount returns the number of distinct pinned values.
func (vm *VM) KeepAliveCount() int {
	defer vm.enter()()
	return len(vm.pinned)
}

// IsLive reports whether v is an immediate or names an object that has
// not been collected.
func (vm *VM) IsLive(v Value) bool {
	return !v.IsRef() || vm.heap.Get(v) != nil
}
