package vm

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Global VM lock
// ---------------------------------------------------------------------------

// gvl serializes all access to VM state. It is reentrant per goroutine so
// native methods can call back into the VM while the lock is held.
type gvl struct {
	mu     sync.Mutex
	holder atomic.Int64
	depth  int
}

// enter acquires the GVL for the calling goroutine and returns the release
// function. Typical use is `defer vm.enter()()`.
//
// When ThreadCheck is on, a goroutine that is neither the owner nor
// registered panics with a *ThreadError instead of touching VM state.
func (vm *VM) enter() func() {
	gid := getGoroutineID()
	if vm.gvl.holder.Load() == gid {
		vm.gvl.depth++
		return vm.leave
	}
	if vm.opts.ThreadCheck && !vm.threads.has(gid) {
		panic(&ThreadError{Goroutine: gid})
	}
	vm.gvl.mu.Lock()
	vm.gvl.holder.Store(gid)
	vm.gvl.depth = 1
	return vm.leave
}

func (vm *VM) leave() {
	vm.gvl.depth--
	if vm.gvl.depth == 0 {
		vm.gvl.holder.Store(0)
		vm.gvl.mu.Unlock()
	}
}

// Locked runs fn while holding the GVL.
func (vm *VM) Locked(fn func()) {
	defer vm.enter()()
	fn()
}

// ---------------------------------------------------------------------------
// Goroutine registration
// ---------------------------------------------------------------------------

// ThreadError is panicked when an unregistered goroutine enters the VM.
type ThreadError struct {
	Goroutine int64
}

func (e *ThreadError) Error() string {
	return fmt.Sprintf("vm: goroutine %d is not registered with the VM", e.Goroutine)
}

type threadSet struct {
	ids sync.Map // int64 -> struct{}
}

func (t *threadSet) add(gid int64)    { t.ids.Store(gid, struct{}{}) }
func (t *threadSet) remove(gid int64) { t.ids.Delete(gid) }

func (t *threadSet) has(gid int64) bool {
	_, ok := t.ids.Load(gid)
	return ok
}

// RegisterGoroutine allows the calling goroutine to enter the VM.
func (vm *VM) RegisterGoroutine() {
	vm.threads.add(getGoroutineID())
}

// UnregisterGoroutine revokes the calling goroutine's access.
func (vm *VM) UnregisterGoroutine() {
	vm.threads.remove(getGoroutineID())
}

// IsRegisteredGoroutine reports whether the calling goroutine may enter
// the VM.
func (vm *VM) IsRegisteredGoroutine() bool {
	return !vm.opts.ThreadCheck || vm.threads.has(getGoroutineID())
}

// getGoroutineID returns the current goroutine's ID by parsing the stack
// header, since Go does not expose it directly.
func getGoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Stack starts with "goroutine <id> [...]"
	s := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if idx := strings.IndexByte(s, ' '); idx > 0 {
		s = s[:idx]
	}
	id, _ := strconv.ParseInt(s, 10, 64)
	return id
}
