package bridge

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/maglink/config"
	"github.com/chazu/maglink/vm"
)

func TestUnregisteredGoroutinePanics(t *testing.T) {
	setup(t)

	done := make(chan any)
	go func() {
		defer func() { done <- recover() }()
		NewString("from elsewhere")
	}()
	if _, ok := (<-done).(*vm.ThreadError); !ok {
		t.Error("expected a *vm.ThreadError panic")
	}
}

func TestWorkerServesOtherGoroutines(t *testing.T) {
	setup(t)
	w := SharedWorker()

	results := make([]string, 8)
	g, ctx := errgroup.WithContext(context.Background())
	for i := range results {
		i := i
		g.Go(func() error {
			return w.Do(ctx, func() error {
				s := NewString(fmt.Sprintf("item%d", i)).Send("reverse")
				results[i] = From[RString](s.Value()).String()
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	for i, got := range results {
		if want := reverse(fmt.Sprintf("item%d", i)); got != want {
			t.Errorf("result %d = %q, want %q", i, got, want)
		}
	}
	if SharedWorker() != w {
		t.Error("SharedWorker should return the same worker")
	}
}

func TestWorkerReturnsErrors(t *testing.T) {
	setup(t)
	w := NewWorker()
	defer w.Stop()
	ctx := context.Background()

	sentinel := errors.New("plain failure")
	if err := w.Do(ctx, func() error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("Do = %v", err)
	}

	err := w.Do(ctx, func() error {
		NewInteger(1).Send("/", NewInteger(0))
		return nil
	})
	var exc RException
	if !errors.As(err, &exc) || exc.ClassName() != "ZeroDivisionError" {
		t.Errorf("Do = %v", err)
	}

	err = w.Do(ctx, func() error { panic("bad request") })
	if err == nil {
		t.Error("a panicking request should fail")
	}

	// The worker keeps serving after failures.
	if err := w.Do(ctx, func() error { return nil }); err != nil {
		t.Errorf("Do after failures = %v", err)
	}
}

func TestWorkerStop(t *testing.T) {
	setup(t)
	w := NewWorker()
	w.Stop()
	w.Stop()

	if err := w.Do(context.Background(), func() error { return nil }); !errors.Is(err, ErrWorkerStopped) {
		t.Errorf("Do after Stop = %v", err)
	}
}

func TestWorkerOutlivingItsVM(t *testing.T) {
	setup(t)
	w := NewWorker()
	defer w.Stop()

	Shutdown()
	if err := InitWith(config.Default()); err != nil {
		t.Fatal(err)
	}

	ran := false
	err := w.Do(context.Background(), func() error {
		ran = true
		return nil
	})
	if !errors.Is(err, ErrWorkerStopped) {
		t.Errorf("Do against a replaced VM = %v", err)
	}
	if ran {
		t.Error("fn ran against a VM the worker is not registered with")
	}

	// A worker started now serves the new VM.
	fresh := NewWorker()
	defer fresh.Stop()
	if err := fresh.Do(context.Background(), func() error {
		NewString("ok").Send("upcase")
		return nil
	}); err != nil {
		t.Errorf("fresh worker Do = %v", err)
	}
}

func TestWorkerHonoursCancelledContext(t *testing.T) {
	setup(t)
	w := NewWorker()
	defer w.Stop()

	// Fill the queue while the worker is busy so the next Do has to wait.
	block := make(chan struct{})
	started := make(chan struct{})
	go w.Do(context.Background(), func() error {
		close(started)
		<-block
		return nil
	})
	<-started
	for i := 0; i < cap(w.requests); i++ {
		go w.Do(context.Background(), func() error { return nil })
	}
	for len(w.requests) < cap(w.requests) {
		runtime.Gosched()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Do(ctx, func() error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Do = %v", err)
	}
	close(block)
}

func TestRegisterGoroutine(t *testing.T) {
	setup(t)

	done := make(chan string)
	go func() {
		RegisterGoroutine()
		defer UnregisterGoroutine()
		done <- NewString("abc").Send("upcase").String()
	}()
	if got := <-done; got != "ABC" {
		t.Errorf("upcase = %q", got)
	}
}
