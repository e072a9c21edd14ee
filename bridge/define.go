package bridge

import (
	"fmt"
	"sync"

	"github.com/chazu/maglink/vm"
)

// Arity is the declared argument count of a native method: a fixed count
// (>= 0) or Variadic.
type Arity int

// Variadic marks a method using the splat calling convention.
const Variadic Arity = vm.ArityVariadic

// MethodFunc implements a fixed-arity method. The VM has already checked
// that len(args) equals the declared arity.
type MethodFunc func(self Value, args []Value) Value

// VariadicFunc implements a splat method. argv points at argc contiguous
// Values (nil when argc is 0) and is only valid during the call; pass it
// to SplatArgs or ScanArgs.
type VariadicFunc func(argc int, argv *Value, self Value) Value

// MethodRecord describes one method registration. Records are never
// changed or removed: redefining a method adds a record.
type MethodRecord struct {
	Owner     string
	Name      string
	Arity     Arity
	Singleton bool
}

var (
	recordsMu sync.Mutex
	records   []MethodRecord
)

// Registrations returns every method registration made so far, oldest
// first.
func Registrations() []MethodRecord {
	recordsMu.Lock()
	defer recordsMu.Unlock()
	return append([]MethodRecord(nil), records...)
}

// ---------------------------------------------------------------------------
// Classes and modules
// ---------------------------------------------------------------------------

// DefineClass defines (or reopens) the top-level class name. A nil
// superclass means Object. Reopening with a different superclass raises
// TypeError.
func DefineClass(name string, superclass *RClass) RClass {
	return defineClass(name, superclass, nil)
}

// DefineClassUnder defines (or reopens) the class outer::name.
func DefineClassUnder(outer Module, name string, superclass *RClass) RClass {
	return defineClass(name, superclass, outer.descriptor())
}

func defineClass(name string, superclass *RClass, outer *vm.Class) RClass {
	var sup *vm.Class
	if superclass != nil {
		sup = superclass.descriptor()
	}
	c := Current().DefineClass(name, sup, outer)
	logger().Debugf("defined class %s", c.FullName())
	return classWrapper(c)
}

// DefineModule defines (or reopens) the top-level module name.
func DefineModule(name string) RModule {
	return defineModule(name, nil)
}

// DefineModuleUnder defines (or reopens) the module outer::name.
func DefineModuleUnder(outer Module, name string) RModule {
	return defineModule(name, outer.descriptor())
}

func defineModule(name string, outer *vm.Class) RModule {
	c := Current().DefineModule(name, outer)
	logger().Debugf("defined module %s", c.FullName())
	return moduleWrapper(c)
}

// ---------------------------------------------------------------------------
// Raw registration
// ---------------------------------------------------------------------------

// DefineMethod makes fn the instance method name of owner. arity must be
// non-negative; registering a negative fixed arity is a programming error
// and panics. A later definition of the same name replaces this one.
func DefineMethod(owner Module, name string, fn MethodFunc, arity Arity) {
	defineFixed(owner, name, fn, arity, false)
}

// DefineSingletonMethod makes fn a method of the owner object itself.
func DefineSingletonMethod(owner Module, name string, fn MethodFunc, arity Arity) {
	defineFixed(owner, name, fn, arity, true)
}

// DefineVariadicMethod makes fn the splat instance method name of owner.
func DefineVariadicMethod(owner Module, name string, fn VariadicFunc) {
	defineVariadic(owner, name, fn, false)
}

// DefineSingletonVariadicMethod makes fn a splat method of the owner
// object itself.
func DefineSingletonVariadicMethod(owner Module, name string, fn VariadicFunc) {
	defineVariadic(owner, name, fn, true)
}

func defineFixed(owner Module, name string, fn MethodFunc, arity Arity, singleton bool) {
	if arity < 0 {
		panic(fmt.Sprintf("bridge: method %s: fixed arity %d is negative (use a variadic definition)", name, arity))
	}
	method := vm.NewPrimitiveMethod(name, int(arity), func(_ *vm.VM, recv vm.Value, args []vm.Value) vm.Value {
		return fn(Value(recv), fromRawValues(args)).raw()
	})
	register(owner.descriptor(), method, arity, singleton)
}

func defineVariadic(owner Module, name string, fn VariadicFunc, singleton bool) {
	method := vm.NewRawMethod(name, func(argc int, argv *vm.Value, self vm.Value) vm.Value {
		return fn(argc, (*Value)(argv), Value(self)).raw()
	})
	register(owner.descriptor(), method, Variadic, singleton)
}

func register(c *vm.Class, method vm.Method, arity Arity, singleton bool) {
	m := Current()
	m.Locked(func() {
		if singleton {
			c.AddClassMethod(m.Selectors, method)
		} else {
			c.AddMethod(m.Selectors, method)
		}
	})

	recordsMu.Lock()
	records = append(records, MethodRecord{
		Owner:     c.FullName(),
		Name:      method.Name(),
		Arity:     arity,
		Singleton: singleton,
	})
	recordsMu.Unlock()

	sep := "#"
	if singleton {
		sep = "."
	}
	logger().Debugf("defined method %s%s%s (arity %d)", c.FullName(), sep, method.Name(), arity)
}

// nativeResult unwraps what a typed native method returned. A nil Object
// or a zero wrapper such as RString{} means the method produced no VM
// value and raises TypeError.
func nativeResult(name string, o Object) Value {
	if o == nil || !wrapsValue(o) {
		m := Current()
		m.Raise(m.TypeErrorClass, "native method %s returned no value", name)
	}
	return o.Value()
}

func wrapsValue(o Object) bool {
	w, ok := o.(interface{ wrapsValue() bool })
	return !ok || w.wrapsValue()
}

// ---------------------------------------------------------------------------
// Typed registration helpers
// ---------------------------------------------------------------------------

// DefineMethod0 defines an instance method taking no arguments.
func (m moduleBase) DefineMethod0(name string, fn func(self AnyObject) Object) {
	DefineMethod(m, name, func(self Value, _ []Value) Value {
		return nativeResult(name, fn(Wrap(self)))
	}, 0)
}

// DefineMethod1 defines an instance method taking one argument.
func (m moduleBase) DefineMethod1(name string, fn func(self, a AnyObject) Object) {
	DefineMethod(m, name, func(self Value, args []Value) Value {
		return nativeResult(name, fn(Wrap(self), Wrap(args[0])))
	}, 1)
}

// DefineMethod2 defines an instance method taking two arguments.
func (m moduleBase) DefineMethod2(name string, fn func(self, a, b AnyObject) Object) {
	DefineMethod(m, name, func(self Value, args []Value) Value {
		return nativeResult(name, fn(Wrap(self), Wrap(args[0]), Wrap(args[1])))
	}, 2)
}

// DefineMethod3 defines an instance method taking three arguments.
func (m moduleBase) DefineMethod3(name string, fn func(self, a, b, c AnyObject) Object) {
	DefineMethod(m, name, func(self Value, args []Value) Value {
		return nativeResult(name, fn(Wrap(self), Wrap(args[0]), Wrap(args[1]), Wrap(args[2])))
	}, 3)
}

func (m moduleBase) DefineSingletonMethod0(name string, fn func(self AnyObject) Object) {
	DefineSingletonMethod(m, name, func(self Value, _ []Value) Value {
		return nativeResult(name, fn(Wrap(self)))
	}, 0)
}

func (m moduleBase) DefineSingletonMethod1(name string, fn func(self, a AnyObject) Object) {
	DefineSingletonMethod(m, name, func(self Value, args []Value) Value {
		return nativeResult(name, fn(Wrap(self), Wrap(args[0])))
	}, 1)
}

func (m moduleBase) DefineSingletonMethod2(name string, fn func(self, a, b AnyObject) Object) {
	DefineSingletonMethod(m, name, func(self Value, args []Value) Value {
		return nativeResult(name, fn(Wrap(self), Wrap(args[0]), Wrap(args[1])))
	}, 2)
}

func (m moduleBase) DefineSingletonMethod3(name string, fn func(self, a, b, c AnyObject) Object) {
	DefineSingletonMethod(m, name, func(self Value, args []Value) Value {
		return nativeResult(name, fn(Wrap(self), Wrap(args[0]), Wrap(args[1]), Wrap(args[2])))
	}, 3)
}

// DefineSplatMethod defines an instance method taking any number of
// arguments, delivered in call order as an Array.
func (m moduleBase) DefineSplatMethod(name string, fn func(self AnyObject, args RArray) Object) {
	DefineVariadicMethod(m, name, func(argc int, argv *Value, self Value) Value {
		return nativeResult(name, fn(Wrap(self), SplatArgs(argc, argv)))
	})
}

// DefineSingletonSplatMethod is DefineSplatMethod for a method of the
// owner object itself.
func (m moduleBase) DefineSingletonSplatMethod(name string, fn func(self AnyObject, args RArray) Object) {
	DefineSingletonVariadicMethod(m, name, func(argc int, argv *Value, self Value) Value {
		return nativeResult(name, fn(Wrap(self), SplatArgs(argc, argv)))
	})
}
