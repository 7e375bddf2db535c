package ranking

import (
	"reflect"
	"testing"

	"github.com/phobologic/callscope/internal/model"
)

func makeReport() *model.Report {
	return &model.Report{
		Target: "needle",
		File:   "app.js",
		Scope: []model.ScopeEntry{
			{Function: "parseInput", Rank: 0.5},
			{Function: "validate", Rank: 0.3},
			{Function: "render", Rank: 0.2},
		},
		Matches: []model.MatchRecord{
			{Function: "main", InSelection: true},
			{Function: "parseInput"},
			{Function: "validate"},
			{Function: "render"},
		},
		Callers: []model.CallerEdge{
			{Function: "parseInput", Caller: "main"},
			{Function: "render", Caller: "main"},
		},
	}
}

func functions(ms []model.MatchRecord) []string {
	var out []string
	for _, m := range ms {
		out = append(out, m.Function)
	}
	return out
}

func TestSelectFunctionsAll(t *testing.T) {
	t.Parallel()

	r := makeReport()
	for _, n := range []int{0, 3, 5} {
		if got := SelectFunctions(r, n); got != r {
			t.Errorf("n=%d should return original", n)
		}
	}
}

func TestSelectFunctionsSubset(t *testing.T) {
	t.Parallel()

	got := SelectFunctions(makeReport(), 2)

	if len(got.Scope) != 2 {
		t.Fatalf("expected 2 scope rows, got %d", len(got.Scope))
	}
	if want := []string{"main", "parseInput", "validate"}; !reflect.DeepEqual(functions(got.Matches), want) {
		t.Errorf("matches = %v, want %v", functions(got.Matches), want)
	}
	if len(got.Callers) != 1 || got.Callers[0].Function != "parseInput" {
		t.Errorf("callers = %+v", got.Callers)
	}
}

func TestFilterByFunction(t *testing.T) {
	t.Parallel()

	got := FilterByFunction(makeReport(), "REND")

	if len(got.Scope) != 1 || got.Scope[0].Function != "render" {
		t.Fatalf("scope = %+v", got.Scope)
	}
	if want := []string{"main", "render"}; !reflect.DeepEqual(functions(got.Matches), want) {
		t.Errorf("matches = %v, want %v", functions(got.Matches), want)
	}
	if got.Target != "needle" || got.File != "app.js" {
		t.Error("header fields not carried over")
	}
}

func TestFilterByFunctionNoMatch(t *testing.T) {
	t.Parallel()

	got := FilterByFunction(makeReport(), "zzz")
	if len(got.Scope) != 0 || len(got.Callers) != 0 {
		t.Errorf("expected empty scope and callers, got %+v", got)
	}
	if len(got.Matches) != 1 || !got.Matches[0].InSelection {
		t.Errorf("selection match should survive, got %+v", got.Matches)
	}
}
