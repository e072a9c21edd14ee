package bridge

import (
	"github.com/chazu/maglink/vm"
)

// Module is a class or module descriptor: something methods can be
// defined on.
type Module interface {
	Object
	descriptor() *vm.Class
}

// moduleBase is shared by RClass and RModule.
type moduleBase struct{ AnyObject }

func (m moduleBase) descriptor() *vm.Class {
	c := Current().ClassOf(m.v.raw())
	if c == nil {
		panic(&vm.DanglingError{Value: m.v.raw()})
	}
	return c
}

// Name returns the fully qualified name, e.g. "Outer::Inner".
func (m moduleBase) Name() string { return m.descriptor().FullName() }

// Const returns the constant name defined directly in this namespace.
func (m moduleBase) Const(name string) (AnyObject, bool) {
	v, ok := m.descriptor().Constant(name)
	return Wrap(Value(v)), ok
}

// SetConst defines a constant in this namespace.
func (m moduleBase) SetConst(name string, val Object) {
	Current().Locked(func() {
		m.descriptor().SetConstant(name, ToAny(val).v.raw())
	})
}

// MethodDefined reports whether instances respond to name.
func (m moduleBase) MethodDefined(name string) bool {
	return m.descriptor().LookupMethod(Current().Selectors, name) != nil
}

// RClass wraps a VM Class.
type RClass struct{ moduleBase }

func classWrapper(c *vm.Class) RClass {
	return RClass{moduleBase{Wrap(Value(c.Value()))}}
}

func (RClass) FromValue(v Value) RClass { return RClass{moduleBase{Wrap(v)}} }

func (RClass) IsCorrectType(o Object) bool { return o.Value().Type() == TypeClass }

func (RClass) ErrorMessage() string { return "expected a Class" }

// Superclass returns the superclass, or false when c is the root.
func (c RClass) Superclass() (RClass, bool) {
	sup := c.descriptor().Superclass
	if sup == nil {
		return RClass{}, false
	}
	return classWrapper(sup), true
}

// IsSubclassOf reports whether c is other or inherits from it.
func (c RClass) IsSubclassOf(other RClass) bool {
	return c.descriptor().IsSubclassOf(other.descriptor())
}

// New instantiates the class, passing args to initialize.
func (c RClass) New(args ...Object) AnyObject {
	return c.Send("new", args...)
}

// RModule wraps a VM Module. Every class is also a module.
type RModule struct{ moduleBase }

func moduleWrapper(c *vm.Class) RModule {
	return RModule{moduleBase{Wrap(Value(c.Value()))}}
}

func (RModule) FromValue(v Value) RModule { return RModule{moduleBase{Wrap(v)}} }

func (RModule) IsCorrectType(o Object) bool {
	t := o.Value().Type()
	return t == TypeModule || t == TypeClass
}

func (RModule) ErrorMessage() string { return "expected a Module" }

// ---------------------------------------------------------------------------
// Well-known classes
// ---------------------------------------------------------------------------

// LookupClass resolves a constant path such as "Outer::Inner" to a class.
func LookupClass(path string) (RClass, bool) {
	m := Current()
	v, ok := m.LookupConstant(path)
	if !ok {
		return RClass{}, false
	}
	c := m.ClassOf(v)
	if c == nil || c.IsModule {
		return RClass{}, false
	}
	return classWrapper(c), true
}

// LookupModule resolves a constant path to a module or class.
func LookupModule(path string) (RModule, bool) {
	m := Current()
	v, ok := m.LookupConstant(path)
	if !ok {
		return RModule{}, false
	}
	c := m.ClassOf(v)
	if c == nil {
		return RModule{}, false
	}
	return moduleWrapper(c), true
}

func ObjectClass() RClass        { return classWrapper(Current().ObjectClass) }
func StringClass() RClass        { return classWrapper(Current().StringClass) }
func ArrayClass() RClass         { return classWrapper(Current().ArrayClass) }
func DataClass() RClass          { return classWrapper(Current().DataClass) }
func ExceptionClass() RClass     { return classWrapper(Current().ExceptionClass) }
func StandardErrorClass() RClass { return classWrapper(Current().StandardErrorClass) }
func RuntimeErrorClass() RClass  { return classWrapper(Current().RuntimeErrorClass) }
func ArgumentErrorClass() RClass { return classWrapper(Current().ArgumentErrorClass) }
func TypeErrorClass() RClass     { return classWrapper(Current().TypeErrorClass) }
