package bridge

import (
	"errors"

	"github.com/chazu/maglink/vm"
)

// Protect runs fn and traps any VM exception it raises, returning it as
// an RException error. Deferred calls inside fn run during the unwind and
// the VM frame stack is back at its depth from before the call. Panics
// that are not VM exceptions, such as Go runtime faults, propagate.
func Protect(fn func() Value) (AnyObject, error) {
	m := Current()
	result, sig := m.Trap(func() vm.Value {
		return fn().raw()
	})
	if sig != nil {
		e := trappedException(sig)
		logger().Debugf("protected call raised %s", e.Error())
		return Wrap(Nil), e
	}
	return Wrap(Value(result)), nil
}

// Raise raises a new instance of class with a formatted message. It never
// returns; use it from native method bodies.
func Raise(class RClass, format string, args ...any) {
	Current().Raise(class.descriptor(), format, args...)
}

// RaiseException raises an existing exception instance.
func RaiseException(e RException) {
	Current().RaiseException(e.v.raw())
}

// RaiseError raises err inside the VM. An RException is re-raised as is,
// a conversion failure becomes TypeError and anything else RuntimeError.
func RaiseError(err error) {
	m := Current()

	var exc RException
	if errors.As(err, &exc) {
		m.RaiseException(exc.v.raw())
	}
	var conv *ConversionError
	if errors.As(err, &conv) {
		m.Raise(m.TypeErrorClass, "%s", conv.Message)
	}
	m.Raise(m.RuntimeErrorClass, "%s", err.Error())
}

// ErrInfo returns the most recently raised exception, if any.
func ErrInfo() (RException, bool) {
	v := Current().ErrInfo()
	if v == vm.Nil {
		return RException{}, false
	}
	return RException{AnyObject: Wrap(Value(v))}, true
}
