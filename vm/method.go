package vm

// Method is a callable entry in a vtable.
//
// Arity is the exact positional argument count the VM checks before
// Invoke, or ArityVariadic when the method takes any number of arguments.
type Method interface {
	Invoke(vm *VM, receiver Value, args []Value) Value
	Name() string
	Arity() int
}

// ArityVariadic marks a method that accepts any number of arguments.
const ArityVariadic = -1

// PrimitiveFunc is a Go function that implements a method.
type PrimitiveFunc func(vm *VM, receiver Value, args []Value) Value

// Method0Func is a primitive taking no arguments.
type Method0Func func(vm *VM, receiver Value) Value

// Method1Func is a primitive taking one argument.
type Method1Func func(vm *VM, receiver Value, arg Value) Value

// Method2Func is a primitive taking two arguments.
type Method2Func func(vm *VM, receiver Value, arg1, arg2 Value) Value

// RawFunc is the splat calling convention: the argument count, a pointer
// to the first argument (nil when argc is 0) and the receiver. The
// arguments are contiguous; argv is only valid for the duration of the call.
type RawFunc func(argc int, argv *Value, self Value) Value

// ---------------------------------------------------------------------------
// Method implementations
// ---------------------------------------------------------------------------

// PrimitiveMethod wraps a PrimitiveFunc with a declared arity.
type PrimitiveMethod struct {
	name  string
	arity int
	fn    PrimitiveFunc
}

func (m *PrimitiveMethod) Invoke(vm *VM, receiver Value, args []Value) Value {
	return m.fn(vm, receiver, args)
}

func (m *PrimitiveMethod) Name() string { return m.name }
func (m *PrimitiveMethod) Arity() int   { return m.arity }

// Method0 wraps a zero-argument primitive.
type Method0 struct {
	name string
	fn   Method0Func
}

func (m *Method0) Invoke(vm *VM, receiver Value, _ []Value) Value {
	return m.fn(vm, receiver)
}

func (m *Method0) Name() string { return m.name }
func (m *Method0) Arity() int   { return 0 }

// Method1 wraps a one-argument primitive.
type Method1 struct {
	name string
	fn   Method1Func
}

func (m *Method1) Invoke(vm *VM, receiver Value, args []Value) Value {
	return m.fn(vm, receiver, args[0])
}

func (m *Method1) Name() string { return m.name }
func (m *Method1) Arity() int   { return 1 }

// Method2 wraps a two-argument primitive.
type Method2 struct {
	name string
	fn   Method2Func
}

func (m *Method2) Invoke(vm *VM, receiver Value, args []Value) Value {
	return m.fn(vm, receiver, args[0], args[1])
}

func (m *Method2) Name() string { return m.name }
func (m *Method2) Arity() int   { return 2 }

// RawMethod adapts the splat calling convention.
type RawMethod struct {
	name string
	fn   RawFunc
}

func (m *RawMethod) Invoke(_ *VM, receiver Value, args []Value) Value {
	var argv *Value
	if len(args) > 0 {
		argv = &args[0]
	}
	return m.fn(len(args), argv, receiver)
}

func (m *RawMethod) Name() string { return m.name }
func (m *RawMethod) Arity() int   { return ArityVariadic }

// ---------------------------------------------------------------------------
// Factory functions
// ---------------------------------------------------------------------------

// NewPrimitiveMethod creates a method with the given arity.
func NewPrimitiveMethod(name string, arity int, fn PrimitiveFunc) Method {
	return &PrimitiveMethod{name: name, arity: arity, fn: fn}
}

// NewMethod0 creates a zero-argument primitive method.
func NewMethod0(name string, fn Method0Func) Method {
	return &Method0{name: name, fn: fn}
}

// NewMethod1 creates a one-argument primitive method.
func NewMethod1(name string, fn Method1Func) Method {
	return &Method1{name: name, fn: fn}
}

// NewMethod2 creates a two-argument primitive method.
func NewMethod2(name string, fn Method2Func) Method {
	return &Method2{name: name, fn: fn}
}

// NewRawMethod creates a variadic method using the splat convention.
func NewRawMethod(name string, fn RawFunc) Method {
	return &RawMethod{name: name, fn: fn}
}
