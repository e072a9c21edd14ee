package vm

import (
	"fmt"

	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// VM: the object runtime
// ---------------------------------------------------------------------------

// Options configures a VM.
type Options struct {
	// GCThreshold is the number of allocations between automatic
	// collections. Zero disables automatic collection.
	GCThreshold int

	// MaxDepth bounds the frame stack; exceeding it raises SystemStackError.
	MaxDepth int

	// ThreadCheck makes every entry point verify that the calling goroutine
	// owns the VM or has been registered with RegisterGoroutine.
	ThreadCheck bool

	// Logger receives VM diagnostics. Defaults to the "maglink.vm" logger.
	Logger commonlog.Logger
}

// DefaultOptions returns the options used by NewVM when none are given.
func DefaultOptions() Options {
	return Options{
		GCThreshold: 10000,
		MaxDepth:    1024,
		ThreadCheck: true,
	}
}

// Frame is one active method invocation.
type Frame struct {
	Receiver  Value
	Selector  string
	Owner     *Class
	Singleton bool
	Args      []Value

	// locals holds every Value allocated while this frame was innermost.
	// They stay reachable until the frame returns.
	locals []Value
}

// Loader resolves require("name") calls.
type Loader interface {
	Require(name string) (loaded bool, err error)
}

// VM is a single runtime instance. All state mutation goes through the
// global VM lock (see gvl.go).
type VM struct {
	Selectors *SelectorTable
	Symbols   *SymbolTable
	Classes   *ClassTable

	// Well-known classes
	BasicObjectClass *Class
	ObjectClass      *Class
	ModuleClass      *Class
	ClassClass       *Class
	KernelModule     *Class
	ComparableModule *Class
	NilClass         *Class
	TrueClass        *Class
	FalseClass       *Class
	NumericClass     *Class
	IntegerClass     *Class
	FloatClass       *Class
	StringClass      *Class
	SymbolClass      *Class
	ArrayClass       *Class
	DataClass        *Class

	// Exception hierarchy
	ExceptionClass         *Class
	ScriptErrorClass       *Class
	LoadErrorClass         *Class
	SyntaxErrorClass       *Class
	StandardErrorClass     *Class
	RuntimeErrorClass      *Class
	FrozenErrorClass       *Class
	ArgumentErrorClass     *Class
	TypeErrorClass         *Class
	NameErrorClass         *Class
	NoMethodErrorClass     *Class
	ZeroDivisionErrorClass *Class
	IndexErrorClass        *Class
	RangeErrorClass        *Class
	SystemStackErrorClass  *Class

	heap    *Heap
	frames  []*Frame
	main    Value
	errinfo Value

	roots   map[*Value]int
	pinned  map[Value]int
	gcStats GCStats

	gvl     gvl
	threads threadSet

	loader Loader
	opts   Options
	log    commonlog.Logger
}

// NewVM creates and bootstraps a VM. The calling goroutine becomes the
// VM's owner.
func NewVM(opts Options) *VM {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultOptions().MaxDepth
	}
	if opts.Logger == nil {
		opts.Logger = commonlog.GetLogger("maglink.vm")
	}

	vm := &VM{
		Selectors: NewSelectorTable(),
		Symbols:   NewSymbolTable(),
		Classes:   NewClassTable(),
		heap:      NewHeap(),
		roots:     make(map[*Value]int),
		pinned:    make(map[Value]int),
		errinfo:   Nil,
		opts:      opts,
		log:       opts.Logger,
	}
	vm.threads.add(getGoroutineID())

	leave := vm.enter()
	defer leave()
	vm.bootstrap()
	vm.log.Debugf("vm bootstrapped: %d classes, gc threshold %d", vm.Classes.Len(), opts.GCThreshold)
	return vm
}

// ---------------------------------------------------------------------------
// Bootstrap
// ---------------------------------------------------------------------------

func (vm *VM) bootstrap() {
	// Phase 1: the metaclass knot. BasicObject, Object, Module and Class
	// exist before any class can point at Class.
	vm.BasicObjectClass = vm.newClass("BasicObject", nil, nil)
	vm.ObjectClass = vm.newClass("Object", vm.BasicObjectClass, nil)
	vm.ModuleClass = vm.newClass("Module", vm.ObjectClass, nil)
	vm.ClassClass = vm.newClass("Class", vm.ModuleClass, nil)
	for _, c := range []*Class{vm.BasicObjectClass, vm.ObjectClass, vm.ModuleClass, vm.ClassClass} {
		c.class = vm.ClassClass
		c.Outer = vm.ObjectClass
		vm.ObjectClass.SetConstant(c.Name, c.value)
	}
	vm.ModuleClass.kind = allocNone
	vm.ClassClass.kind = allocNone

	// Phase 2: core modules and value classes
	vm.KernelModule = vm.defineBootModule("Kernel")
	vm.ComparableModule = vm.defineBootModule("Comparable")
	vm.NilClass = vm.defineBootClass("NilClass", vm.ObjectClass, allocNone)
	vm.TrueClass = vm.defineBootClass("TrueClass", vm.ObjectClass, allocNone)
	vm.FalseClass = vm.defineBootClass("FalseClass", vm.ObjectClass, allocNone)
	vm.NumericClass = vm.defineBootClass("Numeric", vm.ObjectClass, allocNone)
	vm.IntegerClass = vm.defineBootClass("Integer", vm.NumericClass, allocNone)
	vm.FloatClass = vm.defineBootClass("Float", vm.NumericClass, allocNone)
	vm.SymbolClass = vm.defineBootClass("Symbol", vm.ObjectClass, allocNone)
	vm.StringClass = vm.defineBootClass("String", vm.ObjectClass, allocString)
	vm.ArrayClass = vm.defineBootClass("Array", vm.ObjectClass, allocArray)
	vm.DataClass = vm.defineBootClass("Data", vm.ObjectClass, allocNone)

	// Phase 3: exception hierarchy
	vm.bootstrapExceptionClasses()

	// Phase 4: primitives
	vm.registerObjectPrimitives()
	vm.registerModulePrimitives()
	vm.registerNilBoolPrimitives()
	vm.registerIntegerPrimitives()
	vm.registerFloatPrimitives()
	vm.registerSymbolPrimitives()
	vm.registerStringPrimitives()
	vm.registerArrayPrimitives()
	vm.registerExceptionPrimitives()

	// Phase 5: the top-level receiver for Eval
	vm.main = vm.heap.put(&Object{header: header{class: vm.ObjectClass}})
}

func (vm *VM) defineBootClass(name string, superclass *Class, kind allocKind) *Class {
	c := vm.newClass(name, superclass, vm.ObjectClass)
	c.kind = kind
	vm.ObjectClass.SetConstant(name, c.value)
	return c
}

func (vm *VM) defineBootModule(name string) *Class {
	m := vm.newModule(name, vm.ObjectClass)
	vm.ObjectClass.SetConstant(name, m.value)
	return m
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

// ClassFor returns the class of v. Panics with a DanglingError if v names
// a collected object.
func (vm *VM) ClassFor(v Value) *Class {
	switch {
	case v == Nil:
		return vm.NilClass
	case v == True:
		return vm.TrueClass
	case v == False:
		return vm.FalseClass
	case v.IsSmallInt():
		return vm.IntegerClass
	case v.IsSymbol():
		return vm.SymbolClass
	case v.IsFloat():
		return vm.FloatClass
	default:
		return vm.deref(v).hdr().class
	}
}

// IsKindOf reports whether v is an instance of c or of a subclass of c.
// It is a pure Go-side walk and never dispatches; a dangling v is not an
// instance of anything.
func (vm *VM) IsKindOf(v Value, c *Class) bool {
	if c == nil {
		return false
	}
	if v.IsRef() && vm.heap.Get(v) == nil {
		return false
	}
	return vm.ClassFor(v).IsSubclassOf(c)
}

// Main returns the top-level receiver used by Eval.
func (vm *VM) Main() Value {
	return vm.main
}

// Options returns the options the VM was created with.
func (vm *VM) Options() Options {
	return vm.opts
}

// Logger returns the VM's logger.
func (vm *VM) Logger() commonlog.Logger {
	return vm.log
}

// SetLoader installs the resolver used by require.
func (vm *VM) SetLoader(l Loader) {
	defer vm.enter()()
	vm.loader = l
}

// LookupConstant resolves a (possibly "A::B" qualified) constant from the
// top level. Returns false if any segment is missing.
func (vm *VM) LookupConstant(path string) (Value, bool) {
	scope := vm.ObjectClass
	var v Value
	for _, name := range splitPath(path) {
		var ok bool
		v, ok = scope.Constant(name)
		if !ok {
			return Nil, false
		}
		if c := vm.ClassOf(v); c != nil {
			scope = c
		}
	}
	return v, true
}

// SetConstant defines a top-level constant.
func (vm *VM) SetConstant(name string, v Value) {
	defer vm.enter()()
	vm.ObjectClass.SetConstant(name, v)
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i+1 < len(path); i++ {
		if path[i] == ':' && path[i+1] == ':' {
			parts = append(parts, path[start:i])
			start = i + 2
			i++
		}
	}
	return append(parts, path[start:])
}

// ---------------------------------------------------------------------------
// Frames and dispatch
// ---------------------------------------------------------------------------

// Depth returns the number of active frames.
func (vm *VM) Depth() int {
	defer vm.enter()()
	return len(vm.frames)
}

// addLocal roots v in the innermost frame.
func (vm *VM) addLocal(v Value) {
	if !v.IsRef() || len(vm.frames) == 0 {
		return
	}
	top := vm.frames[len(vm.frames)-1]
	top.locals = append(top.locals, v)
}

// findMethod resolves selector for receiver. For class and module
// receivers, singleton methods win over the instance methods of Class or
// Module.
func (vm *VM) findMethod(receiver Value, selector string) (Method, *Class, bool) {
	cls := vm.ClassFor(receiver)
	id, ok := vm.Selectors.Lookup(selector)
	if !ok {
		return nil, cls, false
	}
	if c := vm.ClassOf(receiver); c != nil {
		if m := c.ClassVTable.Lookup(id); m != nil {
			return m, c, true
		}
	}
	return cls.VTable.Lookup(id), cls, false
}

// RespondTo reports whether receiver has a method for selector.
func (vm *VM) RespondTo(receiver Value, selector string) bool {
	defer vm.enter()()
	m, _, _ := vm.findMethod(receiver, selector)
	return m != nil
}

// Send invokes selector on receiver. Any exception raised by the callee
// propagates as a *SignaledException panic; use Protect to trap it.
func (vm *VM) Send(receiver Value, selector string, args []Value) Value {
	defer vm.enter()()

	method, owner, singleton := vm.findMethod(receiver, selector)
	if method == nil {
		vm.Raise(vm.NoMethodErrorClass, "undefined method '%s' for %s", selector, vm.describe(receiver))
	}
	return vm.invoke(receiver, selector, method, owner, singleton, args)
}

// Call is Send with variadic arguments.
func (vm *VM) Call(receiver Value, selector string, args ...Value) Value {
	return vm.Send(receiver, selector, args)
}

func (vm *VM) invoke(receiver Value, selector string, m Method, owner *Class, singleton bool, args []Value) Value {
	if len(vm.frames) >= vm.opts.MaxDepth {
		vm.Raise(vm.SystemStackErrorClass, "stack level too deep")
	}
	if arity := m.Arity(); arity >= 0 && len(args) != arity {
		vm.Raise(vm.ArgumentErrorClass, "wrong number of arguments (given %d, expected %d)", len(args), arity)
	}

	depth := len(vm.frames)
	vm.frames = append(vm.frames, &Frame{
		Receiver:  receiver,
		Selector:  selector,
		Owner:     owner,
		Singleton: singleton,
		Args:      args,
	})
	defer func() { vm.frames = vm.frames[:depth] }()

	result := m.Invoke(vm, receiver, args)
	vm.frames = vm.frames[:depth]
	vm.addLocal(result)
	return result
}

// describe renders a receiver for error messages without dispatching.
func (vm *VM) describe(v Value) string {
	switch {
	case v == Nil:
		return "nil"
	case v == True:
		return "true"
	case v == False:
		return "false"
	}
	if c := vm.ClassOf(v); c != nil {
		if c.IsModule {
			return fmt.Sprintf("module %s", c.FullName())
		}
		return fmt.Sprintf("class %s", c.FullName())
	}
	return fmt.Sprintf("an instance of %s", vm.ClassFor(v).FullName())
}
