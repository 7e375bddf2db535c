package model

import "sort"

// NameSet is a set of function names that remembers insertion order, so
// every traversal over it is deterministic. The zero value is ready to use.
type NameSet struct {
	order []string
	index map[string]struct{}
}

// NewNameSet returns a set holding names in the given order.
func NewNameSet(names ...string) *NameSet {
	s := &NameSet{}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name and reports whether it was new.
func (s *NameSet) Add(name string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = struct{}{}
	s.order = append(s.order, name)
	return true
}

// AddAll inserts every name of other and returns how many were new.
func (s *NameSet) AddAll(other *NameSet) int {
	if other == nil {
		return 0
	}
	added := 0
	for _, n := range other.order {
		if s.Add(n) {
			added++
		}
	}
	return added
}

// Has reports membership.
func (s *NameSet) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[name]
	return ok
}

// Len returns the number of names.
func (s *NameSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Names returns the names in insertion order.
func (s *NameSet) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Sorted returns the names in lexical order.
func (s *NameSet) Sorted() []string {
	out := s.Names()
	sort.Strings(out)
	return out
}

// CallGraph maps each caller name to the set of callee names it calls.
// Every callee also has an entry, possibly with no callees of its own.
type CallGraph struct {
	nodes   []string
	callees map[string]*NameSet
}

// NewCallGraph returns an empty graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{callees: make(map[string]*NameSet)}
}

// Ensure creates an empty entry for name if it has none.
func (g *CallGraph) Ensure(name string) {
	if g.callees == nil {
		g.callees = make(map[string]*NameSet)
	}
	if _, ok := g.callees[name]; ok {
		return
	}
	g.callees[name] = &NameSet{}
	g.nodes = append(g.nodes, name)
}

// AddEdge records caller -> callee.
func (g *CallGraph) AddEdge(caller, callee string) {
	g.Ensure(caller)
	g.Ensure(callee)
	g.callees[caller].Add(callee)
}

// Has reports whether name is a node of the graph.
func (g *CallGraph) Has(name string) bool {
	if g == nil {
		return false
	}
	_, ok := g.callees[name]
	return ok
}

// Callees returns the direct callees of name in the order first seen.
func (g *CallGraph) Callees(name string) []string {
	if g == nil {
		return nil
	}
	return g.callees[name].Names()
}

// Calls reports whether caller has a direct edge to callee.
func (g *CallGraph) Calls(caller, callee string) bool {
	if g == nil {
		return false
	}
	return g.callees[caller].Has(callee)
}

// Nodes returns every node in the order first seen.
func (g *CallGraph) Nodes() []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.nodes...)
}

// Len returns the number of nodes.
func (g *CallGraph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

