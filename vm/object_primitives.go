package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Allocation helpers
// ---------------------------------------------------------------------------

// NewObject allocates a plain instance of class without running initialize.
func (vm *VM) NewObject(class *Class) Value {
	defer vm.enter()()
	return vm.allocateInstance(class)
}

// NewData boxes host data in an instance of class. mark reports the
// Values the data holds; free, if non-nil, runs when the box is swept.
func (vm *VM) NewData(class *Class, data any, mark MarkFunc, free func(any)) Value {
	defer vm.enter()()
	if class == nil {
		class = vm.DataClass
	}
	return vm.alloc(&DataObject{header: header{class: class}, Data: data, Mark: mark, Free: free})
}

func (vm *VM) allocateInstance(c *Class) Value {
	h := header{class: c}
	switch c.kind {
	case allocObject:
		return vm.alloc(&Object{header: h})
	case allocString:
		return vm.alloc(&StringObject{header: h})
	case allocArray:
		return vm.alloc(&ArrayObject{header: h})
	case allocException:
		return vm.alloc(&ExceptionObject{header: h, Message: c.FullName()})
	default:
		vm.Raise(vm.TypeErrorClass, "allocator undefined for %s", c.FullName())
		return Nil
	}
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// Inspect renders v for debugging. It does not dispatch, so user-defined
// inspect methods are not consulted.
func (vm *VM) Inspect(v Value) string {
	switch {
	case v == Nil:
		return "nil"
	case v == True:
		return "true"
	case v == False:
		return "false"
	case v.IsSmallInt():
		return strconv.FormatInt(v.SmallInt(), 10)
	case v.IsSymbol():
		return ":" + vm.SymbolName(v)
	case v.IsFloat():
		return FormatFloat(v.Float64())
	}

	switch o := vm.heap.Get(v).(type) {
	case nil:
		return fmt.Sprintf("#<collected %d>", v.RefID())
	case *StringObject:
		return strconv.Quote(o.Content)
	case *ArrayObject:
		parts := make([]string, len(o.Elements))
		for i, e := range o.Elements {
			parts[i] = vm.Inspect(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Class:
		return o.FullName()
	case *ExceptionObject:
		name := o.class.FullName()
		if o.Message == "" || o.Message == name {
			return name
		}
		return fmt.Sprintf("#<%s: %s>", name, o.Message)
	default:
		h := o.hdr()
		var sb strings.Builder
		sb.WriteString("#<")
		sb.WriteString(h.class.FullName())
		for _, name := range h.InstVarNames() {
			fmt.Fprintf(&sb, " %s=%s", name, vm.Inspect(h.ivars[name]))
		}
		sb.WriteString(">")
		return sb.String()
	}
}

// ToS renders v the way to_s does for core types, without dispatching.
func (vm *VM) ToS(v Value) string {
	switch {
	case v == Nil:
		return ""
	case v.IsSymbol():
		return vm.SymbolName(v)
	}
	switch o := vm.heap.Get(v).(type) {
	case *StringObject:
		return o.Content
	case *ExceptionObject:
		return o.Message
	case *Object:
		return "#<" + o.class.FullName() + ">"
	case *DataObject:
		return "#<" + o.class.FullName() + ">"
	}
	return vm.Inspect(v)
}

// FormatFloat renders f with at least one fractional digit.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Equal reports whether a == b by dispatching ==.
func (vm *VM) Equal(a, b Value) bool {
	if a == b {
		return true
	}
	return vm.Send(a, "==", []Value{b}).IsTruthy()
}

// ---------------------------------------------------------------------------
// Object Primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerObjectPrimitives() {
	c := vm.ObjectClass

	c.AddMethod0(vm.Selectors, "initialize", func(_ *VM, _ Value) Value {
		return Nil
	})

	c.AddMethod0(vm.Selectors, "class", func(v *VM, recv Value) Value {
		return v.ClassFor(recv).value
	})

	// Identity
	identical := func(_ *VM, recv Value, arg Value) Value {
		return FromBool(recv == arg)
	}
	c.AddMethod1(vm.Selectors, "==", identical)
	c.AddMethod1(vm.Selectors, "equal?", identical)

	c.AddMethod1(vm.Selectors, "!=", func(v *VM, recv Value, arg Value) Value {
		return FromBool(!v.Equal(recv, arg))
	})

	c.AddMethod0(vm.Selectors, "!", func(_ *VM, recv Value) Value {
		return FromBool(!recv.IsTruthy())
	})

	c.AddMethod0(vm.Selectors, "nil?", func(_ *VM, recv Value) Value {
		return FromBool(recv == Nil)
	})

	c.AddMethod0(vm.Selectors, "object_id", func(_ *VM, recv Value) Value {
		if recv.IsRef() {
			return FromSmallInt(int64(recv.RefID()) * 8)
		}
		if recv.IsSmallInt() {
			if id, ok := TryFromSmallInt(2*recv.SmallInt() + 1); ok {
				return id
			}
		}
		return FromSmallInt(int64(uint64(recv) & uint64(MaxSmallInt)))
	})

	// Type tests
	kindOf := func(v *VM, recv Value, arg Value) Value {
		return FromBool(v.IsKindOf(recv, v.mustModule(arg)))
	}
	c.AddMethod1(vm.Selectors, "is_a?", kindOf)
	c.AddMethod1(vm.Selectors, "kind_of?", kindOf)

	c.AddMethod1(vm.Selectors, "instance_of?", func(v *VM, recv Value, arg Value) Value {
		return FromBool(v.ClassFor(recv) == v.mustModule(arg))
	})

	c.AddMethod1(vm.Selectors, "respond_to?", func(v *VM, recv Value, arg Value) Value {
		return FromBool(v.RespondTo(recv, v.nameArg(arg)))
	})

	// send(name, *args)
	c.AddVariadicMethod(vm.Selectors, "send", func(v *VM, recv Value, args []Value) Value {
		if len(args) == 0 {
			v.Raise(v.ArgumentErrorClass, "no method name given")
		}
		return v.Send(recv, v.nameArg(args[0]), args[1:])
	})

	// Rendering
	c.AddMethod0(vm.Selectors, "to_s", func(v *VM, recv Value) Value {
		return v.NewString(v.ToS(recv))
	})
	c.AddMethod0(vm.Selectors, "inspect", func(v *VM, recv Value) Value {
		return v.NewString(v.Inspect(recv))
	})

	// Instance variables
	c.AddMethod1(vm.Selectors, "instance_variable_get", func(v *VM, recv Value, name Value) Value {
		n := v.ivarName(name)
		if !recv.IsRef() {
			return Nil
		}
		return v.deref(recv).hdr().InstVar(n)
	})

	c.AddMethod2(vm.Selectors, "instance_variable_set", func(v *VM, recv Value, name Value, val Value) Value {
		n := v.ivarName(name)
		v.checkFrozen(recv)
		v.deref(recv).hdr().SetInstVar(n, val)
		return val
	})

	c.AddMethod0(vm.Selectors, "instance_variables", func(v *VM, recv Value) Value {
		if !recv.IsRef() {
			return v.NewArray(nil)
		}
		names := v.deref(recv).hdr().InstVarNames()
		syms := make([]Value, len(names))
		for i, n := range names {
			syms[i] = v.Symbol(n)
		}
		return v.NewArray(syms)
	})

	// Freezing
	c.AddMethod0(vm.Selectors, "freeze", func(v *VM, recv Value) Value {
		if recv.IsRef() {
			v.deref(recv).hdr().Freeze()
		}
		return recv
	})
	c.AddMethod0(vm.Selectors, "frozen?", func(v *VM, recv Value) Value {
		return FromBool(v.IsFrozen(recv))
	})

	// Kernel
	c.AddVariadicMethod(vm.Selectors, "raise", func(v *VM, _ Value, args []Value) Value {
		v.raiseFromArgs(args)
		return Nil
	})

	c.AddMethod1(vm.Selectors, "require", func(v *VM, _ Value, name Value) Value {
		return FromBool(v.require(v.stringArg(name)))
	})
}

// IsFrozen reports whether v rejects mutation. Immediates are always frozen.
func (vm *VM) IsFrozen(v Value) bool {
	if !v.IsRef() {
		return true
	}
	return vm.deref(v).hdr().IsFrozen()
}

func (vm *VM) checkFrozen(v Value) {
	if vm.IsFrozen(v) {
		vm.Raise(vm.FrozenErrorClass, "can't modify frozen %s: %s", vm.ClassFor(v).FullName(), vm.Inspect(v))
	}
}

func (vm *VM) raiseFromArgs(args []Value) {
	switch len(args) {
	case 0:
		vm.Raise(vm.RuntimeErrorClass, "unhandled exception")
	case 1:
		if c := vm.ClassOf(args[0]); c != nil {
			vm.RaiseException(vm.Send(args[0], "new", nil))
		}
		if vm.ExceptionObjectOf(args[0]) != nil {
			vm.RaiseException(args[0])
		}
		if vm.StringObjectOf(args[0]) != nil {
			vm.Raise(vm.RuntimeErrorClass, "%s", vm.ToS(args[0]))
		}
		vm.Raise(vm.TypeErrorClass, "exception class/object expected")
	case 2:
		if vm.ClassOf(args[0]) == nil {
			vm.Raise(vm.TypeErrorClass, "exception class/object expected")
		}
		vm.RaiseException(vm.Send(args[0], "new", args[1:]))
	default:
		vm.Raise(vm.ArgumentErrorClass, "wrong number of arguments (given %d, expected 0..2)", len(args))
	}
}

func (vm *VM) require(name string) bool {
	if vm.loader == nil {
		vm.Raise(vm.LoadErrorClass, "cannot load such file -- %s", name)
	}
	loaded, err := vm.loader.Require(name)
	if err != nil {
		vm.Raise(vm.LoadErrorClass, "cannot load such file -- %s (%s)", name, err)
	}
	return loaded
}

// ---------------------------------------------------------------------------
// Argument coercion
// ---------------------------------------------------------------------------

func (vm *VM) mustModule(v Value) *Class {
	c := vm.ClassOf(v)
	if c == nil {
		vm.Raise(vm.TypeErrorClass, "class or module required")
	}
	return c
}

// nameArg accepts a Symbol or String naming a method.
func (vm *VM) nameArg(v Value) string {
	if v.IsSymbol() {
		return vm.SymbolName(v)
	}
	if s := vm.StringObjectOf(v); s != nil {
		return s.Content
	}
	vm.Raise(vm.TypeErrorClass, "%s is not a symbol nor a string", vm.Inspect(v))
	return ""
}

func (vm *VM) ivarName(v Value) string {
	n := vm.nameArg(v)
	if len(n) < 2 || n[0] != '@' {
		vm.Raise(vm.NameErrorClass, "'%s' is not allowed as an instance variable name", n)
	}
	return n
}

func (vm *VM) stringArg(v Value) string {
	s := vm.StringObjectOf(v)
	if s == nil {
		vm.Raise(vm.TypeErrorClass, "no implicit conversion of %s into String", vm.ClassFor(v).FullName())
	}
	return s.Content
}

func (vm *VM) intArg(v Value) int64 {
	if !v.IsSmallInt() {
		vm.Raise(vm.TypeErrorClass, "no implicit conversion of %s into Integer", vm.ClassFor(v).FullName())
	}
	return v.SmallInt()
}
