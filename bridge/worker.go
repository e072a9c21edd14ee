package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/maglink/vm"
)

// ErrWorkerStopped is returned by Do once the worker has been stopped.
var ErrWorkerStopped = errors.New("bridge: worker stopped")

// RegisterGoroutine allows the calling goroutine into the VM. Without it,
// and with thread checking on, any VM entry from a goroutine other than
// the one that ran Init panics with *vm.ThreadError.
func RegisterGoroutine() { Current().RegisterGoroutine() }

// UnregisterGoroutine revokes the calling goroutine's access.
func UnregisterGoroutine() { Current().UnregisterGoroutine() }

// workRequest is a unit of work for the worker goroutine.
type workRequest struct {
	fn   func() error
	done chan error
}

// Worker runs functions on a dedicated goroutine registered with the VM,
// one at a time. Goroutines that are not allowed into the VM hand it their
// VM work.
type Worker struct {
	vm       *vm.VM
	requests chan workRequest
	quit     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewWorker starts a worker for the installed VM.
func NewWorker() *Worker {
	w := &Worker{
		vm:       Current(),
		requests: make(chan workRequest, 64),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	ready := make(chan struct{})
	go w.loop(ready)
	<-ready
	return w
}

func (w *Worker) loop(ready chan<- struct{}) {
	w.vm.RegisterGoroutine()
	defer w.vm.UnregisterGoroutine()
	defer close(w.stopped)
	close(ready)

	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn with VM exceptions trapped. Any other panic is turned
// into an error so one bad request cannot kill the worker. Once the VM the
// worker was started for is no longer installed, requests fail with
// ErrWorkerStopped.
func (w *Worker) execute(fn func() error) (err error) {
	if current.Load() != w.vm {
		return ErrWorkerStopped
	}
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("bridge: worker call panicked: %w", e)
			} else {
				err = fmt.Errorf("bridge: worker call panicked: %v", r)
			}
		}
	}()

	var fnErr error
	if _, exc := Protect(func() Value {
		fnErr = fn()
		return Nil
	}); exc != nil {
		return exc
	}
	return fnErr
}

// Do runs fn on the worker goroutine and waits for it. A VM exception
// raised by fn is returned as an RException. ctx bounds only the wait for
// a queue slot: once fn has started it runs to completion.
//
// Calling Do from inside a function the worker is running deadlocks.
func (w *Worker) Do(ctx context.Context, fn func() error) error {
	req := workRequest{fn: fn, done: make(chan error, 1)}
	select {
	case w.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-w.quit:
		return ErrWorkerStopped
	}

	select {
	case err := <-req.done:
		return err
	case <-w.stopped:
		select {
		case err := <-req.done:
			return err
		default:
			return ErrWorkerStopped
		}
	}
}

// Stop shuts the worker down and waits for its goroutine to exit. Queued
// requests that have not started fail with ErrWorkerStopped.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
	<-w.stopped
}

var (
	sharedMu sync.Mutex
	shared   *Worker
)

// SharedWorker returns the process-wide worker, starting it on first use.
// Shutdown stops it.
func SharedWorker() *Worker {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = NewWorker()
	}
	return shared
}

func stopSharedWorker() {
	sharedMu.Lock()
	w := shared
	shared = nil
	sharedMu.Unlock()
	if w != nil {
		w.Stop()
	}
}
