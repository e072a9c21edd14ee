// Package vm implements the object runtime that maglink binds to.
//
// This package contains:
//   - NaN-boxed value representation with handle-table heap references
//   - Classes, modules and VTable-based method dispatch
//   - Exceptions as Go panics, trapped by Protect
//   - A mark/sweep collector with frame locals, root slots and pins
//   - The global VM lock and goroutine registration
//   - Primitive core classes and a small expression evaluator
//
// Host code normally goes through package bridge instead of using the VM
// directly.
package vm
