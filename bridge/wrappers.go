package bridge

import (
	"unicode/utf8"

	"github.com/chazu/maglink/vm"
)

// ---------------------------------------------------------------------------
// String
// ---------------------------------------------------------------------------

// RString wraps a VM String.
type RString struct{ AnyObject }

// NewString allocates a String holding s.
func NewString(s string) RString {
	return RString{Wrap(Value(Current().NewString(s)))}
}

func (RString) FromValue(v Value) RString { return RString{Wrap(v)} }

func (RString) IsCorrectType(o Object) bool { return o.Value().Type() == TypeString }

func (RString) ErrorMessage() string { return "expected a String" }

// String returns the string's content.
func (s RString) String() string {
	content, _ := Current().StringContent(s.v.raw())
	return content
}

// Len returns the length in characters.
func (s RString) Len() int { return utf8.RuneCountInString(s.String()) }

// ---------------------------------------------------------------------------
// Symbol
// ---------------------------------------------------------------------------

// RSymbol wraps an interned Symbol.
type RSymbol struct{ AnyObject }

// NewSymbol interns name.
func NewSymbol(name string) RSymbol {
	return RSymbol{Wrap(Value(Current().Symbol(name)))}
}

func (RSymbol) FromValue(v Value) RSymbol { return RSymbol{Wrap(v)} }

func (RSymbol) IsCorrectType(o Object) bool { return o.Value().Type() == TypeSymbol }

func (RSymbol) ErrorMessage() string { return "expected a Symbol" }

func (s RSymbol) Name() string { return Current().SymbolName(s.v.raw()) }

// ---------------------------------------------------------------------------
// Numbers
// ---------------------------------------------------------------------------

// RInteger wraps a small Integer.
type RInteger struct{ AnyObject }

// NewInteger boxes n. Values outside the small-integer range raise
// RangeError.
func NewInteger(n int64) RInteger {
	v, ok := vm.TryFromSmallInt(n)
	if !ok {
		m := Current()
		m.Raise(m.RangeErrorClass, "integer %d too big to convert", n)
	}
	return RInteger{Wrap(Value(v))}
}

func (RInteger) FromValue(v Value) RInteger { return RInteger{Wrap(v)} }

func (RInteger) IsCorrectType(o Object) bool { return o.Value().Type() == TypeFixnum }

func (RInteger) ErrorMessage() string { return "expected an Integer" }

func (i RInteger) Int64() int64 { return i.v.raw().SmallInt() }

// RFloat wraps a Float.
type RFloat struct{ AnyObject }

func NewFloat(f float64) RFloat { return RFloat{Wrap(Value(vm.FromFloat64(f)))} }

func (RFloat) FromValue(v Value) RFloat { return RFloat{Wrap(v)} }

func (RFloat) IsCorrectType(o Object) bool { return o.Value().Type() == TypeFloat }

func (RFloat) ErrorMessage() string { return "expected a Float" }

func (f RFloat) Float64() float64 { return f.v.raw().Float64() }

// ---------------------------------------------------------------------------
// true, false and nil
// ---------------------------------------------------------------------------

// RBoolean wraps true or false.
type RBoolean struct{ AnyObject }

func NewBoolean(b bool) RBoolean { return RBoolean{Wrap(Value(vm.FromBool(b)))} }

func (RBoolean) FromValue(v Value) RBoolean { return RBoolean{Wrap(v)} }

func (RBoolean) IsCorrectType(o Object) bool {
	t := o.Value().Type()
	return t == TypeTrue || t == TypeFalse
}

func (RBoolean) ErrorMessage() string { return "expected true or false" }

func (b RBoolean) Bool() bool { return b.v == True }

// RNil wraps nil.
type RNil struct{ AnyObject }

// NilObject returns the wrapper for nil.
func NilObject() RNil { return RNil{Wrap(Nil)} }

func (RNil) FromValue(v Value) RNil { return RNil{Wrap(v)} }

func (RNil) IsCorrectType(o Object) bool { return o.Value().Type() == TypeNil }

func (RNil) ErrorMessage() string { return "expected nil" }

// ---------------------------------------------------------------------------
// Array
// ---------------------------------------------------------------------------

// RArray wraps a VM Array.
type RArray struct{ AnyObject }

// NewArray allocates an Array of elems. A nil element stores nil.
func NewArray(elems ...Object) RArray {
	return RArray{Wrap(Value(Current().NewArray(objectValues(elems))))}
}

func (RArray) FromValue(v Value) RArray { return RArray{Wrap(v)} }

func (RArray) IsCorrectType(o Object) bool { return o.Value().Type() == TypeArray }

func (RArray) ErrorMessage() string { return "expected an Array" }

// Len returns the number of elements.
func (a RArray) Len() int {
	elems, _ := Current().ArrayElements(a.v.raw())
	return len(elems)
}

// Elements returns a snapshot of the elements.
func (a RArray) Elements() []AnyObject {
	elems, _ := Current().ArrayElements(a.v.raw())
	out := make([]AnyObject, len(elems))
	for i, e := range elems {
		out[i] = Wrap(Value(e))
	}
	return out
}

// At returns element i (negative counts from the end), or nil when out of
// range.
func (a RArray) At(i int) AnyObject {
	return a.Send("[]", NewInteger(int64(i)))
}

// Push appends o.
func (a RArray) Push(o Object) {
	a.Send("push", ToAny(o))
}

// ---------------------------------------------------------------------------
// Exception
// ---------------------------------------------------------------------------

// RException wraps an Exception instance. It implements error, so a
// trapped exception can travel up ordinary Go error returns.
//
// An RException returned by Protect carries a copy of the class name,
// message and backtrace taken when the exception was trapped, so the
// error keeps reading the same after the instance itself is collected.
// Value still names the live instance while it lasts.
type RException struct {
	AnyObject
	trapped *vm.SignaledException
}

func (RException) FromValue(v Value) RException { return RException{AnyObject: Wrap(v)} }

// IsCorrectType accepts instances of Exception and its subclasses. The
// hierarchy walk happens on the Go side.
func (RException) IsCorrectType(o Object) bool {
	if o.Value().Type() != TypeException {
		return false
	}
	m := current.Load()
	return m != nil && m.IsKindOf(o.Value().raw(), m.ExceptionClass)
}

func (RException) ErrorMessage() string { return "expected an Exception" }

// NewException allocates an instance of class without raising it.
func NewException(class RClass, message string) RException {
	return RException{AnyObject: Wrap(Value(Current().NewException(class.descriptor(), message)))}
}

func trappedException(sig *vm.SignaledException) RException {
	return RException{AnyObject: Wrap(Value(sig.Exception)), trapped: sig}
}

func (e RException) object() *vm.ExceptionObject {
	m := current.Load()
	if m == nil {
		return nil
	}
	return m.ExceptionObjectOf(e.v.raw())
}

// ClassName returns the exception's class name.
func (e RException) ClassName() string {
	if e.trapped != nil {
		return e.trapped.ClassName
	}
	if o := e.object(); o != nil {
		return o.Class().FullName()
	}
	return ""
}

// Message returns the exception's message.
func (e RException) Message() string {
	if e.trapped != nil {
		return e.trapped.Message
	}
	if o := e.object(); o != nil {
		return o.Message
	}
	return ""
}

// Backtrace returns the frames recorded when the exception was raised,
// innermost first.
func (e RException) Backtrace() []string {
	if e.trapped != nil {
		return append([]string(nil), e.trapped.Backtrace...)
	}
	if o := e.object(); o != nil {
		return append([]string(nil), o.Backtrace...)
	}
	return nil
}

// Error renders "message (Class)". It never dispatches.
func (e RException) Error() string {
	if e.trapped != nil {
		return e.trapped.Error()
	}
	o := e.object()
	if o == nil {
		return "bridge: exception no longer available"
	}
	return o.Message + " (" + o.Class().FullName() + ")"
}

// ---------------------------------------------------------------------------
// Data
// ---------------------------------------------------------------------------

// RData wraps a VM object that boxes a *T.
type RData[T any] struct{ AnyObject }

// WrapData boxes data in a new instance of class (Data when class is nil).
// mark reports every Value data refers to, so the collector keeps them
// alive for as long as the box is reachable; it may be nil.
func WrapData[T any](class *RClass, data *T, mark func(data *T, mark func(Value))) RData[T] {
	m := Current()
	var c *vm.Class
	if class != nil {
		c = class.descriptor()
	}
	var markFn vm.MarkFunc
	if mark != nil {
		markFn = func(visit func(vm.Value)) {
			mark(data, func(v Value) { visit(v.raw()) })
		}
	}
	return RData[T]{Wrap(Value(m.NewData(c, data, markFn, nil)))}
}

func (RData[T]) FromValue(v Value) RData[T] { return RData[T]{Wrap(v)} }

// IsCorrectType accepts Data objects boxing a *T.
func (RData[T]) IsCorrectType(o Object) bool {
	m := current.Load()
	if m == nil {
		return false
	}
	d := m.DataObjectOf(o.Value().raw())
	if d == nil {
		return false
	}
	_, ok := d.Data.(*T)
	return ok
}

func (RData[T]) ErrorMessage() string { return "expected wrapped Go data" }

// Get returns the boxed pointer, or nil if the object has been collected.
func (d RData[T]) Get() *T {
	m := current.Load()
	if m == nil {
		return nil
	}
	obj := m.DataObjectOf(d.v.raw())
	if obj == nil {
		return nil
	}
	p, _ := obj.Data.(*T)
	return p
}
