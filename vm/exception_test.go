package vm

import (
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Raise / Protect tests
// ---------------------------------------------------------------------------

func TestProtectNoRaise(t *testing.T) {
	vm := newTestVM(t)
	result, exc, raised := vm.Protect(func() Value {
		return FromSmallInt(5)
	})
	if raised || exc != Nil {
		t.Fatal("nothing should be raised")
	}
	if result != FromSmallInt(5) {
		t.Errorf("result = %s", vm.Inspect(result))
	}
}

func TestProtectTrapsRaise(t *testing.T) {
	vm := newTestVM(t)
	result, exc, raised := vm.Protect(func() Value {
		vm.Raise(vm.RuntimeErrorClass, "boom %d", 1)
		return FromSmallInt(5)
	})
	if !raised {
		t.Fatal("expected raised")
	}
	if result != Nil {
		t.Errorf("result = %s, want nil", vm.Inspect(result))
	}
	e := vm.ExceptionObjectOf(exc)
	if e == nil || e.Message != "boom 1" || e.Class() != vm.RuntimeErrorClass {
		t.Fatalf("exception = %s", vm.Inspect(exc))
	}
	if vm.ErrInfo() != exc {
		t.Error("ErrInfo should hold the last raised exception")
	}
}

func TestProtectRestoresDepth(t *testing.T) {
	vm := newTestVM(t)
	c := vm.DefineClass("Deep", nil, nil)
	c.AddMethod1(vm.Selectors, "down", func(v *VM, recv Value, n Value) Value {
		if n.SmallInt() == 0 {
			v.Raise(v.ArgumentErrorClass, "bottom")
		}
		return v.Send(recv, "down", []Value{FromSmallInt(n.SmallInt() - 1)})
	})
	obj := vm.NewObject(c)

	_, exc, raised := vm.Protect(func() Value {
		return vm.Send(obj, "down", []Value{FromSmallInt(5)})
	})
	if !raised {
		t.Fatal("expected raised")
	}
	if vm.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", vm.Depth())
	}

	e := vm.ExceptionObjectOf(exc)
	if len(e.Backtrace) != 7 {
		t.Fatalf("backtrace has %d lines: %v", len(e.Backtrace), e.Backtrace)
	}
	if e.Backtrace[0] != "in 'Deep#down'" || e.Backtrace[6] != "in '<main>'" {
		t.Errorf("backtrace = %v", e.Backtrace)
	}
}

func TestProtectNested(t *testing.T) {
	vm := newTestVM(t)
	outer, _, raised := vm.Protect(func() Value {
		_, inner, innerRaised := vm.Protect(func() Value {
			vm.Raise(vm.TypeErrorClass, "inner")
			return Nil
		})
		if !innerRaised {
			t.Error("inner Protect should trap")
		}
		return inner
	})
	if raised {
		t.Fatal("outer Protect should see a normal return")
	}
	if vm.ExceptionObjectOf(outer).Message != "inner" {
		t.Errorf("outer result = %s", vm.Inspect(outer))
	}
}

func TestProtectRepanicsForeignPanics(t *testing.T) {
	vm := newTestVM(t)
	sentinel := errors.New("not a vm exception")

	defer func() {
		if r := recover(); r != sentinel {
			t.Errorf("recovered %v, want sentinel", r)
		}
		// The GVL must have been released on the way out.
		if vm.Depth() != 0 {
			t.Error("frames leaked")
		}
	}()
	vm.Protect(func() Value {
		panic(sentinel)
	})
}

func TestRaiseNonException(t *testing.T) {
	vm := newTestVM(t)
	class, _ := mustRaise(t, vm, func() Value {
		vm.RaiseException(vm.NewString("not an exception"))
		return Nil
	})
	if class != "TypeError" {
		t.Errorf("raised %s", class)
	}
}

func TestSignaledExceptionError(t *testing.T) {
	vm := newTestVM(t)
	defer func() {
		sig, ok := recover().(*SignaledException)
		if !ok {
			t.Fatal("expected a *SignaledException panic")
		}
		if sig.Error() != "nope (IndexError)" {
			t.Errorf("Error() = %q", sig.Error())
		}
	}()
	vm.Raise(vm.IndexErrorClass, "nope")
}

// ---------------------------------------------------------------------------
// Exception primitive tests
// ---------------------------------------------------------------------------

func TestExceptionPrimitives(t *testing.T) {
	vm := newTestVM(t)

	exc := vm.Send(vm.ArgumentErrorClass.Value(), "new", []Value{vm.NewString("bad input")})
	if got, _ := vm.StringContent(vm.Send(exc, "message", nil)); got != "bad input" {
		t.Errorf("message = %q", got)
	}
	if vm.Send(exc, "backtrace", nil) != Nil {
		t.Error("backtrace should be nil before raising")
	}

	plain := vm.Send(vm.RuntimeErrorClass.Value(), "new", nil)
	if got, _ := vm.StringContent(vm.Send(plain, "message", nil)); got != "RuntimeError" {
		t.Errorf("default message = %q", got)
	}

	_, raised, _ := vm.Protect(func() Value {
		return vm.Send(vm.Main(), "raise", []Value{exc})
	})
	bt, ok := vm.ArrayElements(vm.Send(raised, "backtrace", nil))
	if !ok || len(bt) == 0 {
		t.Error("raised exception should carry a backtrace")
	}

	full, _ := vm.StringContent(vm.Send(raised, "full_message", nil))
	if !strings.HasPrefix(full, "bad input (ArgumentError)") {
		t.Errorf("full_message = %q", full)
	}
}

func TestKernelRaiseForms(t *testing.T) {
	vm := newTestVM(t)
	cases := []struct {
		args      []Value
		wantClass string
		wantMsg   string
	}{
		{[]Value{vm.NewString("plain")}, "RuntimeError", "plain"},
		{[]Value{vm.TypeErrorClass.Value()}, "TypeError", "TypeError"},
		{[]Value{vm.IndexErrorClass.Value(), vm.NewString("at 3")}, "IndexError", "at 3"},
		{[]Value{FromSmallInt(1)}, "TypeError", "exception class/object expected"},
	}
	for _, tc := range cases {
		class, msg := mustRaise(t, vm, func() Value {
			return vm.Send(vm.Main(), "raise", tc.args)
		})
		if class != tc.wantClass || msg != tc.wantMsg {
			t.Errorf("raise -> %s %q, want %s %q", class, msg, tc.wantClass, tc.wantMsg)
		}
	}
}
