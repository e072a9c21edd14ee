package vm

import (
	"sync"
	"testing"
)

func TestUnregisteredGoroutinePanics(t *testing.T) {
	vm := newTestVM(t)

	var recovered any
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() { recovered = recover() }()
		vm.NewString("from elsewhere")
	}()
	wg.Wait()

	if _, ok := recovered.(*ThreadError); !ok {
		t.Fatalf("recovered %v, want *ThreadError", recovered)
	}
}

func TestRegisteredGoroutine(t *testing.T) {
	vm := newTestVM(t)

	var got string
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		vm.RegisterGoroutine()
		defer vm.UnregisterGoroutine()
		got, _ = vm.StringContent(vm.Send(vm.NewString("abc"), "reverse", nil))
	}()
	wg.Wait()

	if got != "cba" {
		t.Errorf("reverse = %q", got)
	}
}

func TestThreadCheckDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.ThreadCheck = false
	vm := NewVM(opts)

	done := make(chan Type)
	go func() { done <- vm.TypeOf(vm.NewArray(nil)) }()
	if typ := <-done; typ != TypeArray {
		t.Errorf("TypeOf = %s", typ)
	}
}

func TestGVLIsReentrant(t *testing.T) {
	vm := newTestVM(t)
	vm.Locked(func() {
		vm.Locked(func() {
			if vm.Depth() != 0 {
				t.Error("unexpected frames")
			}
		})
	})
	// Lock fully released: another registered goroutine can enter.
	done := make(chan struct{})
	go func() {
		vm.RegisterGoroutine()
		defer vm.UnregisterGoroutine()
		vm.Locked(func() {})
		close(done)
	}()
	<-done
}
