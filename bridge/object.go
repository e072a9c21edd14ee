package bridge

// Object is the capability every wrapper shares: it owns one Value and can
// send messages through it.
type Object interface {
	// Value returns the wrapped handle.
	Value() Value

	// Class returns the VM class of the wrapped value.
	Class() RClass

	// Send invokes a method. A VM exception raised by the callee is not
	// caught: it unwinds the calling goroutine unless an enclosing Protect
	// traps it.
	Send(name string, args ...Object) AnyObject

	// ProtectSend invokes a method and returns a raised VM exception as an
	// RException error.
	ProtectSend(name string, args ...Object) (AnyObject, error)
}

// AnyObject wraps a Value of any type. The typed wrappers embed it.
//
// The zero AnyObject (and so the zero value of every wrapper) wraps no
// value at all; its word reads as the float 0.0 but it is never a valid
// method result.
type AnyObject struct {
	v   Value
	set bool
}

// Wrap returns the generic wrapper for v.
func Wrap(v Value) AnyObject { return AnyObject{v: v, set: true} }

func (o AnyObject) wrapsValue() bool { return o.set }

// From builds a T around v without checking v's type. Handing it a value
// of another type is a logic error; use TryConvertTo when unsure.
func From[T VerifiedObject[T]](v Value) T {
	var zero T
	return zero.FromValue(v)
}

func (o AnyObject) Value() Value { return o.v }

// FromValue wraps v. Every value is an AnyObject.
func (AnyObject) FromValue(v Value) AnyObject { return Wrap(v) }

// IsCorrectType accepts every live value.
func (AnyObject) IsCorrectType(o Object) bool { return o.Value().Type() != TypeNone }

func (AnyObject) ErrorMessage() string { return "expected a live object" }

func (o AnyObject) Class() RClass {
	return classWrapper(Current().ClassFor(o.v.raw()))
}

func (o AnyObject) Send(name string, args ...Object) AnyObject {
	return Wrap(Value(Current().Send(o.v.raw(), name, objectValues(args))))
}

func (o AnyObject) ProtectSend(name string, args ...Object) (AnyObject, error) {
	return Protect(func() Value {
		return o.Send(name, args...).Value()
	})
}

// Type returns the runtime type tag of the wrapped value.
func (o AnyObject) Type() ValueType { return o.v.Type() }

func (o AnyObject) IsNil() bool { return o.v.IsNil() }

// Equals reports identity: both wrappers name the same VM value.
func (o AnyObject) Equals(other Object) bool {
	return other != nil && o.v == other.Value()
}

// IsKindOf reports whether the value is an instance of c or a subclass of
// it. It never dispatches.
func (o AnyObject) IsKindOf(c Module) bool {
	return Current().IsKindOf(o.v.raw(), c.descriptor())
}

func (o AnyObject) RespondTo(name string) bool {
	return Current().RespondTo(o.v.raw(), name)
}

// Inspect renders the value without dispatching.
func (o AnyObject) Inspect() string {
	return Current().Inspect(o.v.raw())
}

// String returns the VM's to_s rendering of the value.
func (o AnyObject) String() string {
	return Current().ToS(o.v.raw())
}

// InstanceVariableGet returns the instance variable name ("@x"), or nil
// when it is unset.
func (o AnyObject) InstanceVariableGet(name string) AnyObject {
	return o.Send("instance_variable_get", NewSymbol(name))
}

// InstanceVariableSet stores val in the instance variable name ("@x").
// Setting a variable on a frozen object raises FrozenError.
func (o AnyObject) InstanceVariableSet(name string, val Object) {
	o.Send("instance_variable_set", NewSymbol(name), val)
}

func (o AnyObject) Freeze() { o.Send("freeze") }

func (o AnyObject) IsFrozen() bool { return Current().IsFrozen(o.v.raw()) }

// ToAny is the generic view of o.
func ToAny(o Object) AnyObject {
	if o == nil {
		return Wrap(Nil)
	}
	return Wrap(o.Value())
}
