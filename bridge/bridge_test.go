package bridge

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/maglink/config"
	"github.com/chazu/maglink/vm"
)

// setup installs a fresh VM owned by the test goroutine.
func setup(t *testing.T) *vm.VM {
	t.Helper()
	if err := InitWith(config.Default()); err != nil {
		t.Fatalf("InitWith: %v", err)
	}
	t.Cleanup(Shutdown)
	return Current()
}

// protectErr runs fn under Protect and returns the raised exception.
func protectErr(t *testing.T, fn func() Value) RException {
	t.Helper()
	_, err := Protect(fn)
	if err == nil {
		t.Fatal("expected an exception")
	}
	var exc RException
	if !errors.As(err, &exc) {
		t.Fatalf("error %v is not an RException", err)
	}
	return exc
}

func TestLifecycle(t *testing.T) {
	if IsInitialized() {
		t.Fatal("VM installed before Init")
	}
	func() {
		defer func() {
			if r := recover(); r != ErrNotInitialized {
				t.Errorf("Current before Init recovered %v", r)
			}
		}()
		Current()
	}()

	Init()
	defer Shutdown()
	first := Current()

	Init()
	if Current() != first {
		t.Error("second Init replaced the VM")
	}
	if err := InitWith(config.Default()); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("InitWith = %v", err)
	}
	if err := Attach(vm.NewVM(vm.DefaultOptions())); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("Attach = %v", err)
	}

	Shutdown()
	if IsInitialized() {
		t.Fatal("VM still installed after Shutdown")
	}
	Shutdown()

	external := vm.NewVM(vm.DefaultOptions())
	if err := Attach(external); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if Current() != external {
		t.Error("Attach did not install the VM")
	}
}

func TestInitWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.VM.MaxDepth = 8
	if err := InitWith(cfg); err != nil {
		t.Fatal(err)
	}
	defer Shutdown()
	if got := Current().Options().MaxDepth; got != 8 {
		t.Errorf("MaxDepth = %d", got)
	}
}

func TestValueTypeWithoutVM(t *testing.T) {
	cases := []struct {
		v    Value
		want ValueType
	}{
		{Nil, TypeNil},
		{True, TypeTrue},
		{False, TypeFalse},
		{Value(vm.FromSmallInt(3)), TypeFixnum},
		{Value(vm.FromFloat64(2.5)), TypeFloat},
		{Value(vm.FromRefID(1)), TypeNone},
	}
	for _, tc := range cases {
		if got := tc.v.Type(); got != tc.want {
			t.Errorf("Type() = %s, want %s", got, tc.want)
		}
	}
}

func TestSendReverse(t *testing.T) {
	setup(t)

	result := NewString("apples").Send("reverse")
	s, err := TryConvertTo[RString](result)
	if err != nil {
		t.Fatalf("TryConvertTo: %v", err)
	}
	if s.String() != "selppa" {
		t.Errorf("reverse = %q, want %q", s.String(), "selppa")
	}
	if s.Len() != 6 {
		t.Errorf("Len = %d", s.Len())
	}
}

func TestObjectHelpers(t *testing.T) {
	setup(t)

	obj := ObjectClass().New()
	if obj.Class().Name() != "Object" {
		t.Errorf("class = %s", obj.Class().Name())
	}
	if !obj.IsKindOf(ObjectClass()) || obj.IsKindOf(StringClass()) {
		t.Error("IsKindOf mismatch")
	}
	if !obj.RespondTo("inspect") || obj.RespondTo("frobnicate") {
		t.Error("RespondTo mismatch")
	}

	obj.InstanceVariableSet("@count", NewInteger(2))
	if got := obj.InstanceVariableGet("@count").Inspect(); got != "2" {
		t.Errorf("@count = %s", got)
	}
	if got := obj.Inspect(); got != "#<Object @count=2>" {
		t.Errorf("Inspect = %s", got)
	}
	if !obj.Equals(obj) || obj.Equals(ObjectClass().New()) {
		t.Error("Equals is identity")
	}

	obj.Freeze()
	if !obj.IsFrozen() {
		t.Fatal("not frozen")
	}
	_, err := obj.ProtectSend("instance_variable_set", NewSymbol("@count"), NewInteger(3))
	var exc RException
	if !errors.As(err, &exc) || exc.ClassName() != "FrozenError" {
		t.Errorf("mutating a frozen object: %v", err)
	}
}

func TestArrayWrapper(t *testing.T) {
	setup(t)

	arr := NewArray(NewInteger(1), nil, NewString("x"))
	if arr.Len() != 3 {
		t.Fatalf("Len = %d", arr.Len())
	}
	if !arr.At(1).IsNil() {
		t.Error("nil element not stored as nil")
	}
	if got := arr.At(-1).Inspect(); got != `"x"` {
		t.Errorf("At(-1) = %s", got)
	}
	arr.Push(NewSymbol("y"))
	if got := arr.Inspect(); got != `[1, nil, "x", :y]` {
		t.Errorf("Inspect = %s", got)
	}
}

func TestNewIntegerOutOfRange(t *testing.T) {
	setup(t)
	exc := protectErr(t, func() Value { return NewInteger(vm.MaxSmallInt + 1).Value() })
	if exc.ClassName() != "RangeError" {
		t.Errorf("raised %s", exc.ClassName())
	}
}

func TestLookupClass(t *testing.T) {
	setup(t)

	outer := DefineModule("Outer")
	DefineClassUnder(outer, "Inner", nil)

	c, ok := LookupClass("Outer::Inner")
	if !ok || c.Name() != "Outer::Inner" {
		t.Fatalf("LookupClass = %v, %v", c, ok)
	}
	if _, ok := LookupClass("Outer"); ok {
		t.Error("a module is not a class")
	}
	if m, ok := LookupModule("Outer"); !ok || m.Name() != "Outer" {
		t.Errorf("LookupModule = %v, %v", m, ok)
	}
	if _, ok := LookupClass("Missing"); ok {
		t.Error("found a missing class")
	}
	if sup, ok := c.Superclass(); !ok || sup.Name() != "Object" {
		t.Errorf("superclass = %v", sup)
	}
	if !StandardErrorClass().IsSubclassOf(ExceptionClass()) {
		t.Error("StandardError should inherit from Exception")
	}
}

func TestEvalSeesNativeClass(t *testing.T) {
	m := setup(t)

	example := DefineClass("Example", nil)
	example.DefineSingletonMethod1("reverse", func(_, a AnyObject) Object {
		s, err := TryConvertTo[RString](a)
		if err != nil {
			RaiseError(err)
		}
		return NewString(reverse(s.String()))
	})

	res, err := Protect(func() Value { return Value(m.Eval(`Example.reverse("apples")`)) })
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Inspect(); got != `"selppa"` {
		t.Errorf("Example.reverse = %s", got)
	}

	exc := protectErr(t, func() Value { return Value(m.Eval("Example.reverse(1)")) })
	if exc.ClassName() != "TypeError" || exc.Message() != "expected a String" {
		t.Errorf("raised %s", exc.Error())
	}
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func TestValueFromPreviousVMDangles(t *testing.T) {
	setup(t)
	old := NewString("from the old VM").Value()

	Shutdown()
	if err := InitWith(config.Default()); err != nil {
		t.Fatal(err)
	}
	NewString("from the new VM")

	if old.Type() != TypeNone {
		t.Errorf("old handle has type %s in the new VM", old.Type())
	}
	if _, err := TryConvertTo[RString](Wrap(old)); !errors.Is(err, ErrConversion) {
		t.Errorf("TryConvertTo on a stale handle = %v", err)
	}
}

func TestRExceptionError(t *testing.T) {
	setup(t)

	exc := NewException(ArgumentErrorClass(), "bad input")
	if exc.Error() != "bad input (ArgumentError)" {
		t.Errorf("Error() = %q", exc.Error())
	}
	if exc.Backtrace() != nil {
		t.Error("unraised exception has a backtrace")
	}

	var zero RException
	if !strings.Contains(zero.Error(), "no longer available") {
		t.Errorf("zero RException Error() = %q", zero.Error())
	}
}
