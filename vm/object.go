package vm

import "sort"

// HeapObject is anything that lives in the handle heap.
//
// Every heap object carries a header with its class, its instance
// variables and its frozen bit. eachRef reports every Value the object
// references so the collector can trace through it.
type HeapObject interface {
	hdr() *header
	eachRef(fn func(Value))
}

// header is the part shared by every heap object.
type header struct {
	class  *Class
	ivars  map[string]Value
	frozen bool
}

func (h *header) hdr() *header { return h }

// Class returns the object's class.
func (h *header) Class() *Class { return h.class }

// IsFrozen reports whether the object rejects mutation.
func (h *header) IsFrozen() bool { return h.frozen }

// Freeze marks the object immutable.
func (h *header) Freeze() { h.frozen = true }

// InstVar returns the named instance variable, or Nil.
func (h *header) InstVar(name string) Value {
	if v, ok := h.ivars[name]; ok {
		return v
	}
	return Nil
}

// SetInstVar stores an instance variable.
func (h *header) SetInstVar(name string, v Value) {
	if h.ivars == nil {
		h.ivars = make(map[string]Value)
	}
	h.ivars[name] = v
}

// InstVarNames returns the instance variable names in sorted order.
func (h *header) InstVarNames() []string {
	names := make([]string, 0, len(h.ivars))
	for n := range h.ivars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (h *header) eachIvar(fn func(Value)) {
	for _, v := range h.ivars {
		fn(v)
	}
}

// ---------------------------------------------------------------------------
// Concrete heap objects
// ---------------------------------------------------------------------------

// Object is a plain instance of a user or core class.
type Object struct {
	header
}

func (o *Object) eachRef(fn func(Value)) { o.eachIvar(fn) }

// StringObject is a mutable byte string.
type StringObject struct {
	header
	Content string
}

func (s *StringObject) eachRef(fn func(Value)) { s.eachIvar(fn) }

// ArrayObject is an ordered, growable list of values.
type ArrayObject struct {
	header
	Elements []Value
}

func (a *ArrayObject) eachRef(fn func(Value)) {
	a.eachIvar(fn)
	for _, v := range a.Elements {
		fn(v)
	}
}

// ExceptionObject is a raised (or raisable) error instance.
type ExceptionObject struct {
	header
	Message   string
	Backtrace []string
}

func (e *ExceptionObject) eachRef(fn func(Value)) { e.eachIvar(fn) }

// MarkFunc reports the Values held by host data to the collector.
type MarkFunc func(mark func(Value))

// DataObject boxes an arbitrary host value inside a VM object.
//
// The VM cannot see into Data; Mark must report every Value the host data
// keeps, or those Values may be collected while still in use. Free, if set,
// runs once when the object is swept.
type DataObject struct {
	header
	Data any
	Mark MarkFunc
	Free func(data any)
}

func (d *DataObject) eachRef(fn func(Value)) {
	d.eachIvar(fn)
	if d.Mark != nil {
		d.Mark(fn)
	}
}
