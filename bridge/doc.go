// Package bridge lets Go code drive the maglink VM and lets the VM call Go.
//
// # Lifecycle
//
// Init (or InitWith, or Attach for a VM the host started) must run before
// anything else in this package. The goroutine that runs it owns the VM;
// other goroutines either register with RegisterGoroutine or hand their
// work to a Worker.
//
// # Values and wrappers
//
// A Value is a bare handle. Typed wrappers (RString, RArray, RClass, ...)
// each hold one Value and add methods for their VM type. From builds a
// wrapper without checking; TryConvertTo checks first:
//
//	s, err := bridge.TryConvertTo[bridge.RString](obj)
//	if errors.Is(err, bridge.ErrConversion) { ... }
//
// # Exceptions
//
// VM exceptions unwind Go frames as panics. Send lets them through;
// ProtectSend and Protect stop them and return an RException error:
//
//	res, err := obj.ProtectSend("fetch", key)
//	var exc bridge.RException
//	if errors.As(err, &exc) { log.Print(exc.ClassName(), exc.Message()) }
//
// # Native methods
//
// DefineClass and DefineModule return descriptors with typed helpers
// (DefineMethod1, DefineSingletonSplatMethod, ...). The package-level
// DefineMethod and DefineVariadicMethod expose the raw calling conventions.
//
// # Garbage collection
//
// The collector only sees VM roots. A Value kept in Go memory past the
// call that produced it must be held through a Root or be reachable from
// the VM, for example through a Data object's mark function.
package bridge
