package search

import (
	"slices"

	"github.com/phobologic/callscope/internal/model"
)

// Group is the matches attributed to one function.
type Group struct {
	Function string
	Matches  []model.MatchRecord
}

// InSelection reports whether any match in the group came from the selection.
func (g *Group) InSelection() bool {
	for i := range g.Matches {
		if g.Matches[i].InSelection {
			return true
		}
	}
	return false
}

// GroupByFunction groups records by containing function, in order of each
// function's first match.
func GroupByFunction(records []model.MatchRecord) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, rec := range records {
		i, ok := index[rec.Function]
		if !ok {
			i = len(groups)
			index[rec.Function] = i
			groups = append(groups, Group{Function: rec.Function})
		}
		groups[i].Matches = append(groups[i].Matches, rec)
	}
	return groups
}

// OrderGroups sorts groups holding selection matches first, then by
// descending rank. Equal groups keep their order.
func OrderGroups(groups []Group, ranks map[string]float64) []Group {
	out := slices.Clone(groups)
	slices.SortStableFunc(out, func(a, b Group) int {
		as, bs := a.InSelection(), b.InSelection()
		if as != bs {
			if as {
				return -1
			}
			return 1
		}
		ra, rb := ranks[a.Function], ranks[b.Function]
		switch {
		case ra > rb:
			return -1
		case ra < rb:
			return 1
		}
		return 0
	})
	return out
}
