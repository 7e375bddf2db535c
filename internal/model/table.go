package model

// Table is the definition table built from one parse. Definitions are kept in
// discovery order and addressed by index; names are a secondary index because
// distinct definitions may share a name.
type Table struct {
	defs   []FunctionDefinition
	byName map[string][]int
	names  []string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{byName: make(map[string][]int)}
}

// Add appends a definition and returns its index.
func (t *Table) Add(def FunctionDefinition) int {
	if t.byName == nil {
		t.byName = make(map[string][]int)
	}
	idx := len(t.defs)
	t.defs = append(t.defs, def)
	if _, seen := t.byName[def.Name]; !seen {
		t.names = append(t.names, def.Name)
	}
	t.byName[def.Name] = append(t.byName[def.Name], idx)
	return idx
}

// Len returns the number of definitions, counting duplicates.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.defs)
}

// Names returns the distinct definition names in first-appearance order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.names...)
}

// Has reports whether any definition carries name.
func (t *Table) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.byName[name]
	return ok
}

// Lookup returns the last definition discovered under name. A later
// definition shadows an earlier one for name-based lookups.
func (t *Table) Lookup(name string) (*FunctionDefinition, bool) {
	if t == nil {
		return nil, false
	}
	ids := t.byName[name]
	if len(ids) == 0 {
		return nil, false
	}
	return &t.defs[ids[len(ids)-1]], true
}

// All returns every definition sharing name, in discovery order.
func (t *Table) All(name string) []*FunctionDefinition {
	if t == nil {
		return nil
	}
	ids := t.byName[name]
	out := make([]*FunctionDefinition, 0, len(ids))
	for _, id := range ids {
		out = append(out, &t.defs[id])
	}
	return out
}

// Containing returns the narrowest definition whose span contains offset.
// Among equally narrow spans the one discovered last wins.
func (t *Table) Containing(offset int) (*FunctionDefinition, bool) {
	if t == nil {
		return nil, false
	}
	var best *FunctionDefinition
	for i := range t.defs {
		d := &t.defs[i]
		if !d.Contains(offset) {
			continue
		}
		if best == nil || d.Width() <= best.Width() {
			best = d
		}
	}
	return best, best != nil
}

// ContainingName is Containing reduced to a name, UnknownFunction if none.
func (t *Table) ContainingName(offset int) string {
	if d, ok := t.Containing(offset); ok {
		return d.Name
	}
	return UnknownFunction
}
