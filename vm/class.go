package vm

import (
	"sort"
	"sync"
)

// allocKind selects which heap object Class#new builds.
// Subclasses inherit the kind of their superclass.
type allocKind uint8

const (
	allocObject allocKind = iota
	allocString
	allocArray
	allocException
	allocNone // immediates and classes themselves; new raises TypeError
)

// Class is a class or module.
//
// Instance methods live in VTable, which chains to the superclass's
// VTable. Singleton ("class-side") methods live in ClassVTable, which
// chains to the superclass's ClassVTable. Modules have no superclass and
// cannot be instantiated.
type Class struct {
	header

	Name        string
	Superclass  *Class
	IsModule    bool
	VTable      *VTable
	ClassVTable *VTable
	Constants   map[string]Value
	Outer       *Class // lexical parent for namespaced constants

	kind  allocKind
	value Value
}

func (c *Class) eachRef(fn func(Value)) {
	c.eachIvar(fn)
	fn(c.value)
	for _, v := range c.Constants {
		fn(v)
	}
}

// Value returns the handle naming this class.
func (c *Class) Value() Value {
	return c.value
}

// FullName returns the namespaced name, e.g. "Outer::Inner".
func (c *Class) FullName() string {
	if c.Outer == nil || c.Outer.Name == "Object" {
		return c.Name
	}
	return c.Outer.FullName() + "::" + c.Name
}

// String implements the Stringer interface.
func (c *Class) String() string {
	return c.FullName()
}

// IsSubclassOf returns true if c is other or inherits from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for current := c; current != nil; current = current.Superclass {
		if current == other {
			return true
		}
	}
	return false
}

// Ancestors returns c followed by its superclasses up to the root.
func (c *Class) Ancestors() []*Class {
	var result []*Class
	for current := c; current != nil; current = current.Superclass {
		result = append(result, current)
	}
	return result
}

// Constant returns a constant defined directly on c.
func (c *Class) Constant(name string) (Value, bool) {
	v, ok := c.Constants[name]
	return v, ok
}

// SetConstant defines a constant on c.
func (c *Class) SetConstant(name string, v Value) {
	if c.Constants == nil {
		c.Constants = make(map[string]Value)
	}
	c.Constants[name] = v
}

// ---------------------------------------------------------------------------
// Method registration
// ---------------------------------------------------------------------------

// AddMethod registers an instance method. An existing method with the same
// selector is replaced.
func (c *Class) AddMethod(selectors *SelectorTable, method Method) {
	c.VTable.AddMethod(selectors.Intern(method.Name()), method)
}

// AddClassMethod registers a singleton method on the class object itself.
func (c *Class) AddClassMethod(selectors *SelectorTable, method Method) {
	c.ClassVTable.AddMethod(selectors.Intern(method.Name()), method)
}

// AddMethod0 registers a zero-argument instance method.
func (c *Class) AddMethod0(selectors *SelectorTable, name string, fn Method0Func) {
	c.AddMethod(selectors, NewMethod0(name, fn))
}

// AddMethod1 registers a one-argument instance method.
func (c *Class) AddMethod1(selectors *SelectorTable, name string, fn Method1Func) {
	c.AddMethod(selectors, NewMethod1(name, fn))
}

// AddMethod2 registers a two-argument instance method.
func (c *Class) AddMethod2(selectors *SelectorTable, name string, fn Method2Func) {
	c.AddMethod(selectors, NewMethod2(name, fn))
}

// AddVariadicMethod registers an instance method taking any argument count.
func (c *Class) AddVariadicMethod(selectors *SelectorTable, name string, fn PrimitiveFunc) {
	c.AddMethod(selectors, NewPrimitiveMethod(name, ArityVariadic, fn))
}

// AddClassMethod0 registers a zero-argument singleton method.
func (c *Class) AddClassMethod0(selectors *SelectorTable, name string, fn Method0Func) {
	c.AddClassMethod(selectors, NewMethod0(name, fn))
}

// AddClassMethod1 registers a one-argument singleton method.
func (c *Class) AddClassMethod1(selectors *SelectorTable, name string, fn Method1Func) {
	c.AddClassMethod(selectors, NewMethod1(name, fn))
}

// AddClassVariadicMethod registers a singleton method taking any argument count.
func (c *Class) AddClassVariadicMethod(selectors *SelectorTable, name string, fn PrimitiveFunc) {
	c.AddClassMethod(selectors, NewPrimitiveMethod(name, ArityVariadic, fn))
}

// LookupMethod looks up an instance method by name, walking superclasses.
func (c *Class) LookupMethod(selectors *SelectorTable, name string) Method {
	id, ok := selectors.Lookup(name)
	if !ok {
		return nil
	}
	return c.VTable.Lookup(id)
}

// LookupClassMethod looks up a singleton method by name.
func (c *Class) LookupClassMethod(selectors *SelectorTable, name string) Method {
	id, ok := selectors.Lookup(name)
	if !ok {
		return nil
	}
	return c.ClassVTable.Lookup(id)
}

// MethodNames returns the names of instance methods defined directly on c.
func (c *Class) MethodNames(selectors *SelectorTable) []string {
	var names []string
	for _, id := range c.VTable.LocalSelectors() {
		names = append(names, selectors.Name(id))
	}
	sort.Strings(names)
	return names
}

// ---------------------------------------------------------------------------
// ClassTable: global class registry
// ---------------------------------------------------------------------------

// ClassTable indexes every class and module by full name. Classes are
// never collected; the table is one of the collector's roots.
type ClassTable struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewClassTable creates a new empty class table.
func NewClassTable() *ClassTable {
	return &ClassTable{classes: make(map[string]*Class)}
}

// Register adds a class to the table, replacing any previous entry.
func (ct *ClassTable) Register(c *Class) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.classes[c.FullName()] = c
}

// Lookup finds a class by full name.
func (ct *ClassTable) Lookup(name string) *Class {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.classes[name]
}

// All returns all registered classes sorted by name.
func (ct *ClassTable) All() []*Class {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	result := make([]*Class, 0, len(ct.classes))
	for _, c := range ct.classes {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName() < result[j].FullName() })
	return result
}

// Len returns the number of registered classes.
func (ct *ClassTable) Len() int {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return len(ct.classes)
}

// ---------------------------------------------------------------------------
// Class creation
// ---------------------------------------------------------------------------

// newClass builds a class linked to its superclass's vtables and puts it
// in the heap. It does not register a constant.
func (vm *VM) newClass(name string, superclass *Class, outer *Class) *Class {
	var parentVT, parentClassVT *VTable
	kind := allocObject
	if superclass != nil {
		parentVT = superclass.VTable
		parentClassVT = superclass.ClassVTable
		kind = superclass.kind
	}

	c := &Class{
		Name:       name,
		Superclass: superclass,
		Outer:      outer,
		kind:       kind,
	}
	c.class = vm.ClassClass
	c.VTable = NewVTable(c, parentVT)
	c.ClassVTable = NewVTable(c, parentClassVT)
	c.value = vm.heap.put(c)
	vm.Classes.Register(c)
	return c
}

// newModule builds a module.
func (vm *VM) newModule(name string, outer *Class) *Class {
	m := &Class{
		Name:     name,
		IsModule: true,
		Outer:    outer,
		kind:     allocNone,
	}
	m.class = vm.ModuleClass
	m.VTable = NewVTable(m, nil)
	m.ClassVTable = NewVTable(m, nil)
	m.value = vm.heap.put(m)
	vm.Classes.Register(m)
	return m
}

// DefineClass returns the class called name under outer (nil means
// top level), creating it if needed. Reopening with a different superclass
// raises TypeError; reopening a module as a class raises TypeError.
func (vm *VM) DefineClass(name string, superclass *Class, outer *Class) *Class {
	defer vm.enter()()

	if outer == nil {
		outer = vm.ObjectClass
	}
	if superclass == nil {
		superclass = vm.ObjectClass
	}
	if existing, ok := outer.Constant(name); ok {
		c := vm.ClassOf(existing)
		if c == nil || c.IsModule {
			vm.Raise(vm.TypeErrorClass, "%s is not a class", name)
		}
		if c.Superclass != superclass {
			vm.Raise(vm.TypeErrorClass, "superclass mismatch for class %s", name)
		}
		return c
	}

	c := vm.newClass(name, superclass, outer)
	outer.SetConstant(name, c.value)
	vm.log.Debugf("defined class %s < %s", c.FullName(), superclass.FullName())
	return c
}

// DefineModule returns the module called name under outer, creating it if
// needed.
func (vm *VM) DefineModule(name string, outer *Class) *Class {
	defer vm.enter()()

	if outer == nil {
		outer = vm.ObjectClass
	}
	if existing, ok := outer.Constant(name); ok {
		m := vm.ClassOf(existing)
		if m == nil || !m.IsModule {
			vm.Raise(vm.TypeErrorClass, "%s is not a module", name)
		}
		return m
	}

	m := vm.newModule(name, outer)
	outer.SetConstant(name, m.value)
	vm.log.Debugf("defined module %s", m.FullName())
	return m
}
