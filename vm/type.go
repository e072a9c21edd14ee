package vm

// Type is the runtime type tag of a Value.
type Type uint8

const (
	TypeNone Type = iota // dangling handle
	TypeNil
	TypeTrue
	TypeFalse
	TypeFixnum
	TypeFloat
	TypeSymbol
	TypeString
	TypeArray
	TypeObject
	TypeClass
	TypeModule
	TypeException
	TypeData
)

var typeNames = [...]string{
	TypeNone:      "none",
	TypeNil:       "nil",
	TypeTrue:      "true",
	TypeFalse:     "false",
	TypeFixnum:    "fixnum",
	TypeFloat:     "float",
	TypeSymbol:    "symbol",
	TypeString:    "string",
	TypeArray:     "array",
	TypeObject:    "object",
	TypeClass:     "class",
	TypeModule:    "module",
	TypeException: "exception",
	TypeData:      "data",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// TypeOf returns the type tag of v. It reads the word and, for heap
// references, the handle table; it never dispatches and never raises.
func (vm *VM) TypeOf(v Value) Type {
	if t, ok := ImmediateType(v); ok {
		return t
	}

	switch o := vm.heap.Get(v).(type) {
	case *StringObject:
		return TypeString
	case *ArrayObject:
		return TypeArray
	case *ExceptionObject:
		return TypeException
	case *DataObject:
		return TypeData
	case *Class:
		if o.IsModule {
			return TypeModule
		}
		return TypeClass
	case *Object:
		return TypeObject
	default:
		return TypeNone
	}
}

// ImmediateType returns the type of a value that lives in the word itself.
// The second result is false for heap references.
func ImmediateType(v Value) (Type, bool) {
	switch {
	case v == Nil:
		return TypeNil, true
	case v == True:
		return TypeTrue, true
	case v == False:
		return TypeFalse, true
	case v.IsSmallInt():
		return TypeFixnum, true
	case v.IsSymbol():
		return TypeSymbol, true
	case v.IsFloat():
		return TypeFloat, true
	}
	return TypeNone, false
}
