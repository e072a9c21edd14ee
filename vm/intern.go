package vm

import "sync"

// internTable maps names to dense numeric IDs and back.
//
// The table is append-only. Reads take the read lock; a miss upgrades to
// the write lock and re-checks before appending.
type internTable[ID ~int | ~uint32] struct {
	mu     sync.RWMutex
	byName map[string]ID
	byID   []string
}

func newInternTable[ID ~int | ~uint32]() *internTable[ID] {
	return &internTable[ID]{
		byName: make(map[string]ID),
		byID:   make([]string, 0, 256),
	}
}

// Intern returns the ID for name, creating it if needed.
func (t *internTable[ID]) Intern(name string) ID {
	t.mu.RLock()
	if id, ok := t.byName[name]; ok {
		t.mu.RUnlock()
		return id
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.byName[name]; ok {
		return id
	}
	id := ID(len(t.byID))
	t.byName[name] = id
	t.byID = append(t.byID, name)
	return id
}

// Lookup returns the ID for name without creating it.
func (t *internTable[ID]) Lookup(name string) (ID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byName[name]
	return id, ok
}

// Name returns the name for id, or "" if id was never issued.
func (t *internTable[ID]) Name(id ID) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(t.byID) {
		return ""
	}
	return t.byID[int(id)]
}

// Len returns the number of interned names.
func (t *internTable[ID]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// SelectorTable interns method names to vtable slot indices.
type SelectorTable = internTable[int]

// SymbolTable interns symbol names to the IDs carried in symbol Values.
type SymbolTable = internTable[uint32]

// NewSelectorTable creates an empty selector table.
func NewSelectorTable() *SelectorTable { return newInternTable[int]() }

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable { return newInternTable[uint32]() }

// Symbol returns the symbol Value for name.
func (vm *VM) Symbol(name string) Value {
	return FromSymbolID(vm.Symbols.Intern(name))
}

// SymbolName returns the name of a symbol Value, or "" if v is not a symbol.
func (vm *VM) SymbolName(v Value) string {
	if !v.IsSymbol() {
		return ""
	}
	return vm.Symbols.Name(v.SymbolID())
}
