package bridge

import (
	"github.com/chazu/maglink/vm"
)

// SplatArgs gathers the arguments of a splat call into a new Array, in
// call order. argc and argv are the values a VariadicFunc received. This
// and ScanArgs are the only places the package handles the raw argument
// pointer.
func SplatArgs(argc int, argv *Value) RArray {
	var rest vm.Value
	Current().ScanArgs(argc, (*vm.Value)(argv), "*", &rest)
	return RArray{Wrap(Value(rest))}
}

// ScanArgs unpacks a splat call by format: a digit for the required count,
// an optional digit for the optional count and a trailing "*" for the
// rest. Missing optionals are nil; the rest slot receives an Array. A
// count outside the accepted range raises ArgumentError. It returns argc.
func ScanArgs(argc int, argv *Value, format string, out ...*Value) int {
	raw := make([]*vm.Value, len(out))
	for i, p := range out {
		raw[i] = (*vm.Value)(p)
	}
	return Current().ScanArgs(argc, (*vm.Value)(argv), format, raw...)
}
