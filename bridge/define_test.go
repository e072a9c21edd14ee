package bridge

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFixedArityDeliversArgument(t *testing.T) {
	setup(t)

	var received []Value
	echo := DefineClass("Echo", nil)
	DefineMethod(echo, "echo", func(self Value, args []Value) Value {
		received = append(received, args...)
		return args[0]
	}, 1)

	arg := NewString("payload")
	res := echo.New().Send("echo", arg)
	if len(received) != 1 || received[0] != arg.Value() {
		t.Fatalf("received %v, want [%x]", received, arg.Value())
	}
	if res.Value() != arg.Value() {
		t.Error("return value changed")
	}
}

func TestFixedArityMismatch(t *testing.T) {
	setup(t)

	c := DefineClass("Pair", nil)
	c.DefineMethod2("swap", func(_, a, b AnyObject) Object {
		return NewArray(b, a)
	})
	obj := c.New()

	_, err := obj.ProtectSend("swap", NewInteger(1))
	var exc RException
	if !errors.As(err, &exc) {
		t.Fatalf("expected an RException, got %v", err)
	}
	if exc.ClassName() != "ArgumentError" || exc.Message() != "wrong number of arguments (given 1, expected 2)" {
		t.Errorf("raised %s", exc.Error())
	}

	res, err := obj.ProtectSend("swap", NewInteger(1), NewInteger(2))
	if err != nil || res.Inspect() != "[2, 1]" {
		t.Errorf("swap = %v, %v", res, err)
	}
}

func TestTypedHelpers(t *testing.T) {
	setup(t)

	c := DefineClass("Calc", nil)
	c.DefineMethod0("zero", func(AnyObject) Object { return NewInteger(0) })
	c.DefineMethod3("sum3", func(_, a, b, d AnyObject) Object {
		return NewInteger(From[RInteger](a.Value()).Int64() + From[RInteger](b.Value()).Int64() + From[RInteger](d.Value()).Int64())
	})
	c.DefineSingletonMethod0("unit", func(self AnyObject) Object { return self.Send("new") })
	c.DefineSingletonMethod2("add", func(_, a, b AnyObject) Object { return a.Send("+", b) })
	c.DefineSingletonMethod3("first", func(_, a, _, _ AnyObject) Object { return a })

	obj := c.New()
	checks := []struct {
		got  AnyObject
		want string
	}{
		{obj.Send("zero"), "0"},
		{obj.Send("sum3", NewInteger(1), NewInteger(2), NewInteger(3)), "6"},
		{c.Send("unit"), "#<Calc>"},
		{c.Send("add", NewInteger(4), NewInteger(5)), "9"},
		{c.Send("first", NewSymbol("a"), NilObject(), NilObject()), ":a"},
	}
	for i, ch := range checks {
		if got := ch.got.Inspect(); got != ch.want {
			t.Errorf("check %d = %s, want %s", i, got, ch.want)
		}
	}
	if obj.RespondTo("unit") {
		t.Error("singleton method leaked onto instances")
	}
	if !c.MethodDefined("zero") || c.MethodDefined("unit") {
		t.Error("MethodDefined mismatch")
	}
}

func TestSplatArity(t *testing.T) {
	setup(t)

	c := DefineClass("Collector", nil)
	c.DefineSplatMethod("collect", func(_ AnyObject, args RArray) Object { return args })
	c.DefineSingletonSplatMethod("count", func(_ AnyObject, args RArray) Object {
		return NewInteger(int64(args.Len()))
	})
	obj := c.New()

	cases := []struct {
		args []Object
		want []any
	}{
		{nil, []any{}},
		{[]Object{NewString("one")}, []any{"one"}},
		{[]Object{NewInteger(1), NewSymbol("two"), NewString("three"), NilObject()}, []any{int64(1), Symbol("two"), "three", nil}},
	}
	for _, tc := range cases {
		res, err := TryConvertTo[RArray](obj.Send("collect", tc.args...))
		if err != nil {
			t.Fatal(err)
		}
		if res.Len() != len(tc.want) {
			t.Errorf("len = %d, want %d", res.Len(), len(tc.want))
		}
		got, err := ToGo(res)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("splat args mismatch (-want +got):\n%s", diff)
		}

		n := c.Send("count", tc.args...)
		if From[RInteger](n.Value()).Int64() != int64(len(tc.args)) {
			t.Errorf("count = %s", n.Inspect())
		}
	}
}

func TestSplatThroughEval(t *testing.T) {
	m := setup(t)

	c := DefineClass("Joiner", nil)
	c.DefineSingletonSplatMethod("join", func(_ AnyObject, args RArray) Object {
		strs, err := ConvertAll[RString](args)
		if err != nil {
			RaiseError(err)
		}
		parts := make([]string, len(strs))
		for i, s := range strs {
			parts[i] = s.String()
		}
		return NewString(strings.Join(parts, "+"))
	})

	res, err := Protect(func() Value { return Value(m.Eval(`Joiner.join("a", "b", *["c", "d"])`)) })
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Inspect(); got != `"a+b+c+d"` {
		t.Errorf("join = %s", got)
	}

	exc := protectErr(t, func() Value { return Value(m.Eval(`Joiner.join("a", 2)`)) })
	if exc.ClassName() != "TypeError" {
		t.Errorf("raised %s", exc.Error())
	}
}

func TestScanArgs(t *testing.T) {
	setup(t)

	c := DefineClass("Greeter", nil)
	DefineVariadicMethod(c, "greet", func(argc int, argv *Value, self Value) Value {
		var name, greeting, rest Value
		ScanArgs(argc, argv, "11*", &name, &greeting, &rest)
		g := "hello"
		if !greeting.IsNil() {
			g = From[RString](greeting).String()
		}
		extra := From[RArray](rest).Len()
		return NewString(g + " " + From[RString](name).String() + strings.Repeat("!", extra)).Value()
	})
	obj := c.New()

	if got := obj.Send("greet", NewString("bob")).Inspect(); got != `"hello bob"` {
		t.Errorf("greet = %s", got)
	}
	if got := obj.Send("greet", NewString("bob"), NewString("hi"), NilObject(), NilObject()).Inspect(); got != `"hi bob!!"` {
		t.Errorf("greet = %s", got)
	}
	_, err := obj.ProtectSend("greet")
	var exc RException
	if !errors.As(err, &exc) || exc.Message() != "wrong number of arguments (given 0, expected 1+)" {
		t.Errorf("greet() = %v", err)
	}
}

func TestNilReturnRaisesTypeError(t *testing.T) {
	setup(t)

	c := DefineClass("Lazy", nil)
	c.DefineMethod0("nothing", func(AnyObject) Object { return nil })

	_, err := c.New().ProtectSend("nothing")
	var exc RException
	if !errors.As(err, &exc) {
		t.Fatalf("got %v", err)
	}
	if exc.ClassName() != "TypeError" || exc.Message() != "native method nothing returned no value" {
		t.Errorf("raised %s", exc.Error())
	}
}

func TestZeroWrapperReturnRaisesTypeError(t *testing.T) {
	setup(t)

	c := DefineClass("ZeroReturn", nil)
	c.DefineSingletonMethod0("zero", func(AnyObject) Object { return RString{} })
	c.DefineSingletonMethod0("float_zero", func(AnyObject) Object { return NewFloat(0) })

	_, err := c.ProtectSend("zero")
	var exc RException
	if !errors.As(err, &exc) || exc.ClassName() != "TypeError" {
		t.Fatalf("zero wrapper return = %v", err)
	}
	if exc.Message() != "native method zero returned no value" {
		t.Errorf("message = %q", exc.Message())
	}

	res, err := c.ProtectSend("float_zero")
	if err != nil {
		t.Fatal(err)
	}
	if res.Type() != TypeFloat || res.Inspect() != "0.0" {
		t.Errorf("float_zero = %s (%s)", res.Inspect(), res.Type())
	}
}

func TestNegativeFixedArityPanics(t *testing.T) {
	setup(t)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected a panic")
		}
	}()
	DefineMethod(ObjectClass(), "bad", func(Value, []Value) Value { return Nil }, -1)
}

func TestRedefinitionLastWriterWins(t *testing.T) {
	setup(t)

	before := len(Registrations())
	c := DefineClass("Versioned", nil)
	c.DefineMethod0("version", func(AnyObject) Object { return NewInteger(1) })
	c.DefineMethod0("version", func(AnyObject) Object { return NewInteger(2) })

	if got := c.New().Send("version").Inspect(); got != "2" {
		t.Errorf("version = %s", got)
	}

	recs := Registrations()[before:]
	want := []MethodRecord{
		{Owner: "Versioned", Name: "version", Arity: 0},
		{Owner: "Versioned", Name: "version", Arity: 0},
	}
	if diff := cmp.Diff(want, recs); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	// Mutating the returned copy does not touch the registry.
	recs[0].Name = "changed"
	if Registrations()[before].Name != "version" {
		t.Error("Registrations returned shared storage")
	}
}

func TestReopenClass(t *testing.T) {
	setup(t)

	base := DefineClass("Base", nil)
	derived := DefineClass("Derived", &base)
	again := DefineClass("Derived", &base)
	if !again.Equals(derived) {
		t.Error("reopening returned a different class")
	}
	if !derived.IsSubclassOf(base) {
		t.Error("superclass not recorded")
	}

	exc := protectErr(t, func() Value {
		str := StringClass()
		return DefineClass("Derived", &str).Value()
	})
	if exc.ClassName() != "TypeError" {
		t.Errorf("superclass mismatch raised %s", exc.Error())
	}

	ns := DefineModule("Net")
	inner := DefineModuleUnder(ns, "HTTP")
	if inner.Name() != "Net::HTTP" {
		t.Errorf("name = %s", inner.Name())
	}
	if again := DefineModule("Net"); !again.Equals(ns) {
		t.Error("reopening a module returned a different module")
	}
	ns.SetConst("VERSION", NewString("1.0"))
	if v, ok := ns.Const("VERSION"); !ok || v.Inspect() != `"1.0"` {
		t.Errorf("VERSION = %v, %v", v, ok)
	}
}
