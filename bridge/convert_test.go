package bridge

import (
	"errors"
	"testing"
)

// expectConvert checks IsCorrectType and TryConvertTo for T against o.
func expectConvert[T VerifiedObject[T]](t *testing.T, label string, o Object, want bool) {
	t.Helper()
	var zero T

	first := zero.IsCorrectType(o)
	if second := zero.IsCorrectType(o); first != second {
		t.Errorf("%s: IsCorrectType not idempotent", label)
	}
	if first != want {
		t.Errorf("%s: IsCorrectType = %v, want %v", label, first, want)
	}

	got, err := TryConvertTo[T](o)
	if want {
		if err != nil {
			t.Errorf("%s: TryConvertTo failed: %v", label, err)
			return
		}
		if got.Value() != o.Value() {
			t.Errorf("%s: converted value %x, want %x", label, got.Value(), o.Value())
		}
		return
	}

	if !errors.Is(err, ErrConversion) {
		t.Errorf("%s: error %v does not match ErrConversion", label, err)
		return
	}
	var ce *ConversionError
	if !errors.As(err, &ce) || ce.Message != zero.ErrorMessage() {
		t.Errorf("%s: error %v, want message %q", label, err, zero.ErrorMessage())
		return
	}
	if ce.Actual != o.Value().Type() {
		t.Errorf("%s: Actual = %s, want %s", label, ce.Actual, o.Value().Type())
	}
}

func TestTryConvertTo(t *testing.T) {
	setup(t)

	str := NewString("s")
	num := NewInteger(42)
	flt := NewFloat(1.5)
	sym := NewSymbol("k")
	arr := NewArray(num)
	cls := DefineClass("Widget", nil)
	mod := DefineModule("Helpers")
	exc := NewException(RuntimeErrorClass(), "x")
	obj := cls.New()
	data := WrapData[point](nil, &point{X: 1}, nil)

	expectConvert[RString](t, "string as RString", str, true)
	expectConvert[RString](t, "symbol as RString", sym, false)
	expectConvert[RString](t, "nil as RString", NilObject(), false)
	expectConvert[RSymbol](t, "symbol as RSymbol", sym, true)
	expectConvert[RSymbol](t, "string as RSymbol", str, false)
	expectConvert[RInteger](t, "int as RInteger", num, true)
	expectConvert[RInteger](t, "float as RInteger", flt, false)
	expectConvert[RFloat](t, "float as RFloat", flt, true)
	expectConvert[RFloat](t, "int as RFloat", num, false)
	expectConvert[RBoolean](t, "true as RBoolean", NewBoolean(true), true)
	expectConvert[RBoolean](t, "false as RBoolean", NewBoolean(false), true)
	expectConvert[RBoolean](t, "nil as RBoolean", NilObject(), false)
	expectConvert[RNil](t, "nil as RNil", NilObject(), true)
	expectConvert[RNil](t, "false as RNil", NewBoolean(false), false)
	expectConvert[RArray](t, "array as RArray", arr, true)
	expectConvert[RArray](t, "string as RArray", str, false)
	expectConvert[RClass](t, "class as RClass", cls, true)
	expectConvert[RClass](t, "module as RClass", mod, false)
	expectConvert[RModule](t, "module as RModule", mod, true)
	expectConvert[RModule](t, "class as RModule", cls, true)
	expectConvert[RModule](t, "object as RModule", obj, false)
	expectConvert[RException](t, "exception as RException", exc, true)
	expectConvert[RException](t, "object as RException", obj, false)
	expectConvert[RData[point]](t, "data as RData", data, true)
	expectConvert[RData[other]](t, "data as other RData", data, false)
	expectConvert[RData[point]](t, "object as RData", obj, false)
	expectConvert[AnyObject](t, "object as AnyObject", obj, true)

	if _, err := TryConvertTo[RString](nil); !errors.Is(err, ErrConversion) {
		t.Errorf("nil Object: %v", err)
	}
}

type other struct{}

func TestConversionErrorMessage(t *testing.T) {
	setup(t)

	_, err := TryConvertTo[RArray](NewInteger(1))
	if err == nil || err.Error() != "expected an Array (got fixnum)" {
		t.Errorf("error = %v", err)
	}
}

func TestConversionDoesNotDispatch(t *testing.T) {
	setup(t)

	var calls int
	spy := DefineClass("Spy", nil)
	for _, name := range []string{"class", "is_a?", "kind_of?", "respond_to?", "===", "inspect", "to_s", "to_str"} {
		DefineVariadicMethod(spy, name, func(int, *Value, Value) Value {
			calls++
			return Nil
		})
	}
	obj := spy.New()

	for i := 0; i < 3; i++ {
		TryConvertTo[RString](obj)
		TryConvertTo[RException](obj)
		TryConvertTo[RArray](obj)
		TryConvertTo[RData[point]](obj)
		IsA[RClass](obj)
	}
	if calls != 0 {
		t.Errorf("conversion dispatched %d times", calls)
	}
	if Current().Depth() != 0 {
		t.Error("conversion left frames behind")
	}
}

func TestConvertAll(t *testing.T) {
	setup(t)

	strs, err := ConvertAll[RString](NewArray(NewString("a"), NewString("b")))
	if err != nil {
		t.Fatal(err)
	}
	if len(strs) != 2 || strs[0].String() != "a" || strs[1].String() != "b" {
		t.Errorf("ConvertAll = %v", strs)
	}

	_, err = ConvertAll[RString](NewArray(NewString("a"), NewInteger(2)))
	if !errors.Is(err, ErrConversion) {
		t.Fatalf("mixed array: %v", err)
	}
	if err.Error() != "element 1: expected a String (got fixnum)" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestFromIsUnchecked(t *testing.T) {
	setup(t)

	// From trusts the caller: the wrapper is built even though the value
	// is not a String.
	w := From[RString](NewInteger(7).Value())
	if w.Value().Type() != TypeFixnum {
		t.Errorf("From changed the value")
	}
}
