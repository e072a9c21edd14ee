package vm

import (
	"fmt"
	"unsafe"
)

// ArgSpec is a parsed ScanArgs format.
type ArgSpec struct {
	Required int
	Optional int
	Rest     bool
}

// ParseArgSpec parses a ScanArgs format: an optional digit for the
// required count, an optional second digit for the optional count, and an
// optional trailing "*" for the rest array. "" means no arguments.
func ParseArgSpec(format string) (ArgSpec, error) {
	var spec ArgSpec
	i := 0
	if i < len(format) && format[i] >= '0' && format[i] <= '9' {
		spec.Required = int(format[i] - '0')
		i++
		if i < len(format) && format[i] >= '0' && format[i] <= '9' {
			spec.Optional = int(format[i] - '0')
			i++
		}
	}
	if i < len(format) && format[i] == '*' {
		spec.Rest = true
		i++
	}
	if i != len(format) {
		return ArgSpec{}, fmt.Errorf("vm: bad argument format %q", format)
	}
	return spec, nil
}

// Slots returns how many output pointers the spec fills.
func (s ArgSpec) Slots() int {
	n := s.Required + s.Optional
	if s.Rest {
		n++
	}
	return n
}

// Args views the splat calling convention as a slice. The slice aliases
// the caller's argument storage and must not outlive the call.
func Args(argc int, argv *Value) []Value {
	if argc <= 0 || argv == nil {
		return nil
	}
	return unsafe.Slice(argv, argc)
}

// ScanArgs unpacks a splat-convention argument list according to format
// (see ParseArgSpec) into out. Missing optionals are set to Nil; the rest
// slot receives a new Array. A count outside the accepted range raises
// ArgumentError. A malformed format or wrong number of out pointers is a
// programming error and panics.
func (vm *VM) ScanArgs(argc int, argv *Value, format string, out ...*Value) int {
	spec, err := ParseArgSpec(format)
	if err != nil {
		panic(err)
	}
	if len(out) != spec.Slots() {
		panic(fmt.Sprintf("vm: ScanArgs %q wants %d outputs, got %d", format, spec.Slots(), len(out)))
	}

	args := Args(argc, argv)
	maxArgs := spec.Required + spec.Optional
	if len(args) < spec.Required || (!spec.Rest && len(args) > maxArgs) {
		switch {
		case spec.Rest:
			vm.Raise(vm.ArgumentErrorClass, "wrong number of arguments (given %d, expected %d+)", len(args), spec.Required)
		case spec.Optional > 0:
			vm.Raise(vm.ArgumentErrorClass, "wrong number of arguments (given %d, expected %d..%d)", len(args), spec.Required, maxArgs)
		default:
			vm.Raise(vm.ArgumentErrorClass, "wrong number of arguments (given %d, expected %d)", len(args), spec.Required)
		}
	}

	slot := 0
	for i := 0; i < maxArgs; i++ {
		if i < len(args) {
			*out[slot] = args[i]
		} else {
			*out[slot] = Nil
		}
		slot++
	}
	if spec.Rest {
		var rest []Value
		if len(args) > maxArgs {
			rest = append(rest, args[maxArgs:]...)
		}
		*out[slot] = vm.NewArray(rest)
	}
	return len(args)
}
