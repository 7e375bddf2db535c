// Package ranking trims search reports to their most central functions.
package ranking

import (
	"strings"

	"github.com/phobologic/callscope/internal/model"
)

// SelectFunctions returns a new Report keeping only the n highest-ranked
// scope functions, the matches attributed to them, and the caller rows
// about them. Selection matches are always kept. If n is <= 0 or covers
// the whole scope, r is returned unchanged.
func SelectFunctions(r *model.Report, n int) *model.Report {
	if n <= 0 || n >= len(r.Scope) {
		return r
	}

	// Scope is sorted by rank, so the prefix is the top n.
	selected := r.Scope[:n]
	keep := make(map[string]struct{}, n)
	for i := range selected {
		keep[selected[i].Function] = struct{}{}
	}
	return filter(r, selected, func(name string) bool {
		_, ok := keep[name]
		return ok
	})
}

// FilterByFunction returns a new Report containing only the scope rows,
// matches and caller rows of functions whose name contains substr
// (case-insensitive). Selection matches are always kept.
func FilterByFunction(r *model.Report, substr string) *model.Report {
	lower := strings.ToLower(substr)
	contains := func(name string) bool {
		return strings.Contains(strings.ToLower(name), lower)
	}

	var scope []model.ScopeEntry
	for i := range r.Scope {
		if contains(r.Scope[i].Function) {
			scope = append(scope, r.Scope[i])
		}
	}
	return filter(r, scope, contains)
}

func filter(r *model.Report, scope []model.ScopeEntry, keep func(string) bool) *model.Report {
	var matches []model.MatchRecord
	for i := range r.Matches {
		m := &r.Matches[i]
		if m.InSelection || keep(m.Function) {
			matches = append(matches, *m)
		}
	}

	var callers []model.CallerEdge
	for i := range r.Callers {
		if keep(r.Callers[i].Function) {
			callers = append(callers, r.Callers[i])
		}
	}

	return &model.Report{
		Target:  r.Target,
		File:    r.File,
		Scope:   scope,
		Imports: r.Imports,
		Matches: matches,
		Callers: callers,
	}
}
