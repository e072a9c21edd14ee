package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Exception signaling (uses Go panic/recover)
// ---------------------------------------------------------------------------

// SignaledException is panicked when an exception is raised. It unwinds
// Go frames until a Protect (or a host-side recover) catches it.
type SignaledException struct {
	Exception Value // The exception instance
	ClassName string
	Message   string
	Backtrace []string
}

func (e *SignaledException) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.ClassName)
}

// NewException allocates an exception instance without raising it.
func (vm *VM) NewException(class *Class, message string) Value {
	defer vm.enter()()
	if class == nil {
		class = vm.RuntimeErrorClass
	}
	return vm.alloc(&ExceptionObject{header: header{class: class}, Message: message})
}

// Raise allocates an instance of class and raises it. It never returns.
func (vm *VM) Raise(class *Class, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	vm.RaiseException(vm.NewException(class, msg))
}

// RaiseException raises an existing exception instance. It never returns.
// Raising something that is not an exception raises TypeError instead.
func (vm *VM) RaiseException(exc Value) {
	defer vm.enter()()

	e := vm.ExceptionObjectOf(exc)
	if e == nil {
		vm.Raise(vm.TypeErrorClass, "exception class/object expected")
	}
	if e.Backtrace == nil {
		e.Backtrace = vm.Backtrace()
	}
	vm.errinfo = exc
	vm.log.Debugf("raise %s: %s", e.class.FullName(), e.Message)
	panic(&SignaledException{
		Exception: exc,
		ClassName: e.class.FullName(),
		Message:   e.Message,
		Backtrace: append([]string(nil), e.Backtrace...),
	})
}

// Backtrace describes the active frames, innermost first.
func (vm *VM) Backtrace() []string {
	defer vm.enter()()

	lines := make([]string, 0, len(vm.frames)+1)
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		if f.Owner == nil {
			lines = append(lines, fmt.Sprintf("in '%s'", f.Selector))
			continue
		}
		sep := "#"
		if f.Singleton {
			sep = "."
		}
		lines = append(lines, fmt.Sprintf("in '%s%s%s'", f.Owner.FullName(), sep, f.Selector))
	}
	return append(lines, "in '<main>'")
}

// ErrInfo returns the most recently raised exception, or Nil.
func (vm *VM) ErrInfo() Value {
	defer vm.enter()()
	return vm.errinfo
}

// ClearErrInfo forgets the most recently raised exception.
func (vm *VM) ClearErrInfo() {
	defer vm.enter()()
	vm.errinfo = Nil
}

// Protect runs fn and traps any exception it raises. On a raise, result
// is Nil, exc is the exception instance and raised is true; the frame
// stack is restored to its depth at entry. Panics that are not VM
// exceptions propagate unchanged.
func (vm *VM) Protect(fn func() Value) (result Value, exc Value, raised bool) {
	result, sig := vm.Trap(fn)
	if sig != nil {
		return Nil, sig.Exception, true
	}
	return result, Nil, false
}

// Trap is Protect returning the signal itself, whose class name, message
// and backtrace stay readable after the exception instance is collected.
// sig is nil when fn returned normally.
func (vm *VM) Trap(fn func() Value) (result Value, sig *SignaledException) {
	leave := vm.enter()
	defer leave()

	depth := len(vm.frames)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		s, ok := r.(*SignaledException)
		if !ok {
			panic(r)
		}
		vm.frames = vm.frames[:depth]
		vm.addLocal(s.Exception)
		result, sig = Nil, s
	}()

	return fn(), nil
}

// ---------------------------------------------------------------------------
// Exception class registration
// ---------------------------------------------------------------------------

func (vm *VM) bootstrapExceptionClasses() {
	define := func(name string, superclass *Class) *Class {
		return vm.defineBootClass(name, superclass, allocException)
	}

	vm.ExceptionClass = define("Exception", vm.ObjectClass)

	vm.ScriptErrorClass = define("ScriptError", vm.ExceptionClass)
	vm.LoadErrorClass = define("LoadError", vm.ScriptErrorClass)
	vm.SyntaxErrorClass = define("SyntaxError", vm.ScriptErrorClass)
	vm.SystemStackErrorClass = define("SystemStackError", vm.ExceptionClass)

	vm.StandardErrorClass = define("StandardError", vm.ExceptionClass)
	vm.RuntimeErrorClass = define("RuntimeError", vm.StandardErrorClass)
	vm.FrozenErrorClass = define("FrozenError", vm.RuntimeErrorClass)
	vm.ArgumentErrorClass = define("ArgumentError", vm.StandardErrorClass)
	vm.TypeErrorClass = define("TypeError", vm.StandardErrorClass)
	vm.NameErrorClass = define("NameError", vm.StandardErrorClass)
	vm.NoMethodErrorClass = define("NoMethodError", vm.NameErrorClass)
	vm.ZeroDivisionErrorClass = define("ZeroDivisionError", vm.StandardErrorClass)
	vm.IndexErrorClass = define("IndexError", vm.StandardErrorClass)
	vm.RangeErrorClass = define("RangeError", vm.StandardErrorClass)
}

// ---------------------------------------------------------------------------
// Exception primitives registration
// ---------------------------------------------------------------------------

func (vm *VM) registerExceptionPrimitives() {
	ex := vm.ExceptionClass

	// Exception.exception(msg = nil) - same as new
	ex.AddClassVariadicMethod(vm.Selectors, "exception", func(v *VM, recv Value, args []Value) Value {
		return v.Send(recv, "new", args)
	})

	// Exception#initialize(msg = nil)
	ex.AddVariadicMethod(vm.Selectors, "initialize", func(v *VM, recv Value, args []Value) Value {
		if len(args) > 1 {
			v.Raise(v.ArgumentErrorClass, "wrong number of arguments (given %d, expected 0..1)", len(args))
		}
		e := v.mustException(recv)
		if len(args) == 1 && args[0] != Nil {
			e.Message = v.ToS(args[0])
		}
		return Nil
	})

	// Exception#message, #to_s
	message := func(v *VM, recv Value) Value {
		return v.NewString(v.mustException(recv).Message)
	}
	ex.AddMethod0(vm.Selectors, "message", message)
	ex.AddMethod0(vm.Selectors, "to_s", message)

	// Exception#backtrace - nil until raised
	ex.AddMethod0(vm.Selectors, "backtrace", func(v *VM, recv Value) Value {
		e := v.mustException(recv)
		if e.Backtrace == nil {
			return Nil
		}
		lines := make([]Value, len(e.Backtrace))
		for i, line := range e.Backtrace {
			lines[i] = v.NewString(line)
		}
		return v.NewArray(lines)
	})

	// Exception#inspect
	ex.AddMethod0(vm.Selectors, "inspect", func(v *VM, recv Value) Value {
		return v.NewString(v.Inspect(recv))
	})

	// Exception#full_message
	ex.AddMethod0(vm.Selectors, "full_message", func(v *VM, recv Value) Value {
		e := v.mustException(recv)
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s (%s)", e.Message, e.class.FullName())
		for _, line := range e.Backtrace {
			sb.WriteString("\n\t")
			sb.WriteString(line)
		}
		return v.NewString(sb.String())
	})

	// Exception#==
	ex.AddMethod1(vm.Selectors, "==", func(v *VM, recv Value, other Value) Value {
		if recv == other {
			return True
		}
		a, b := v.ExceptionObjectOf(recv), v.ExceptionObjectOf(other)
		return FromBool(a != nil && b != nil && a.class == b.class && a.Message == b.Message)
	})
}

func (vm *VM) mustException(v Value) *ExceptionObject {
	e, ok := vm.deref(v).(*ExceptionObject)
	if !ok {
		vm.Raise(vm.TypeErrorClass, "%s is not an exception", vm.describe(v))
	}
	return e
}
