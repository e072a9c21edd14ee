package vm

// VTable maps selector IDs to methods for one class. A miss falls through
// to the parent table, so a class sees everything its ancestors define.
type VTable struct {
	owner   *Class
	parent  *VTable
	methods []Method
}

func NewVTable(owner *Class, parent *VTable) *VTable {
	return &VTable{owner: owner, parent: parent}
}

// Lookup returns the nearest method for selector, or nil.
func (vt *VTable) Lookup(selector int) Method {
	for t := vt; t != nil; t = t.parent {
		if selector >= 0 && selector < len(t.methods) && t.methods[selector] != nil {
			return t.methods[selector]
		}
	}
	return nil
}

// AddMethod installs method at selector. A later call for the same
// selector replaces it.
func (vt *VTable) AddMethod(selector int, method Method) {
	if n := selector + 1; n > len(vt.methods) {
		vt.methods = append(vt.methods, make([]Method, n-len(vt.methods))...)
	}
	vt.methods[selector] = method
}

// LocalSelectors returns the selector IDs defined on this table only, in
// ascending order.
func (vt *VTable) LocalSelectors() []int {
	var ids []int
	for id, m := range vt.methods {
		if m != nil {
			ids = append(ids, id)
		}
	}
	return ids
}
