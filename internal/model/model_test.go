package model

import (
	"reflect"
	"testing"
)

func TestTableLookupLaterWins(t *testing.T) {
	t.Parallel()

	tbl := NewTable()
	tbl.Add(FunctionDefinition{Name: "f", Start: 0, End: 10})
	tbl.Add(FunctionDefinition{Name: "g", Start: 12, End: 20})
	tbl.Add(FunctionDefinition{Name: "f", Start: 30, End: 40})

	d, ok := tbl.Lookup("f")
	if !ok {
		t.Fatal("f not found")
	}
	if d.Start != 30 {
		t.Errorf("Lookup(f).Start = %d, want 30", d.Start)
	}
	if got := len(tbl.All("f")); got != 2 {
		t.Errorf("All(f) = %d defs, want 2", got)
	}
	if got := tbl.Names(); !reflect.DeepEqual(got, []string{"f", "g"}) {
		t.Errorf("Names() = %v", got)
	}
	if tbl.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tbl.Len())
	}
}

func TestTableContainingNarrowest(t *testing.T) {
	t.Parallel()

	tbl := NewTable()
	tbl.Add(FunctionDefinition{Name: "outer", Start: 0, End: 100})
	tbl.Add(FunctionDefinition{Name: "inner", Start: 20, End: 40})
	tbl.Add(FunctionDefinition{Name: "other", Start: 120, End: 130})

	tests := []struct {
		offset int
		want   string
	}{
		{0, "outer"},
		{19, "outer"},
		{20, "inner"},
		{39, "inner"},
		{40, "outer"},
		{99, "outer"},
		{100, UnknownFunction},
		{125, "other"},
		{-1, UnknownFunction},
	}
	for _, tt := range tests {
		if got := tbl.ContainingName(tt.offset); got != tt.want {
			t.Errorf("ContainingName(%d) = %q, want %q", tt.offset, got, tt.want)
		}
	}
}

func TestTableContainmentProperty(t *testing.T) {
	t.Parallel()

	tbl := NewTable()
	tbl.Add(FunctionDefinition{Name: "a", Start: 0, End: 50})
	tbl.Add(FunctionDefinition{Name: "b", Start: 5, End: 45})
	tbl.Add(FunctionDefinition{Name: "c", Start: 10, End: 20})
	tbl.Add(FunctionDefinition{Name: "d", Start: 25, End: 30})

	for i := range tbl.defs {
		def := &tbl.defs[i]
		for o := def.Start; o < def.End; o++ {
			got, ok := tbl.Containing(o)
			if !ok || !got.Contains(o) {
				t.Fatalf("offset %d: no containing definition", o)
			}
			if got.Width() > def.Width() {
				t.Fatalf("offset %d: got %s (width %d), narrower %s exists", o, got.Name, got.Width(), def.Name)
			}
		}
	}
}

func TestNilTable(t *testing.T) {
	t.Parallel()

	var tbl *Table
	if tbl.Has("x") || tbl.Len() != 0 {
		t.Error("nil table should be empty")
	}
	if got := tbl.ContainingName(3); got != UnknownFunction {
		t.Errorf("ContainingName = %q", got)
	}
}

func TestNameSetOrder(t *testing.T) {
	t.Parallel()

	s := NewNameSet("b", "a", "b", "c")
	if got := s.Names(); !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("Names() = %v", got)
	}
	if got := s.Sorted(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Sorted() = %v", got)
	}
	if n := s.AddAll(NewNameSet("c", "d")); n != 1 {
		t.Errorf("AddAll added %d, want 1", n)
	}
}

func TestCallGraphCalleeEntries(t *testing.T) {
	t.Parallel()

	g := NewCallGraph()
	g.AddEdge("main", "helper")
	g.AddEdge("main", "helper")
	g.AddEdge("main", "log")

	if !g.Has("helper") || !g.Has("log") {
		t.Error("callees must have their own entries")
	}
	if got := g.Callees("helper"); len(got) != 0 {
		t.Errorf("helper callees = %v, want none", got)
	}
	if got := g.Callees("main"); len(got) != 2 {
		t.Errorf("main callees = %v, want 2 distinct edges", got)
	}
	if g.Callees("missing") != nil {
		t.Error("missing node should have no callees")
	}
}
