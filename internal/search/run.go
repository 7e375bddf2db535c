// Package search finds occurrences of a target inside a selection and
// inside every function the selection reaches through the call graph.
package search

import (
	"context"
	"log/slog"
	"slices"

	"github.com/phobologic/callscope/internal/graph"
	"github.com/phobologic/callscope/internal/model"
	"github.com/phobologic/callscope/internal/parse"
	"github.com/phobologic/callscope/internal/scope"
)

// Request is one search over a prepared source.
type Request struct {
	Target    string
	Selection model.Span
	Options

	// Callers also computes the transitive callers of every seed.
	Callers bool
}

// Prepared holds the per-source structures a search needs. A source that
// failed to parse is prepared with empty structures and ParseErr set.
type Prepared struct {
	Source   string
	Analysis *parse.Analysis
	Imports  model.ImportBindings
	ParseErr error
}

// Prepare parses source once and builds its definition table, call graph
// and import bindings.
func Prepare(ctx context.Context, source []byte, opts parse.Options) *Prepared {
	p := &Prepared{
		Source:   string(source),
		Analysis: parse.Empty(),
		Imports:  model.ImportBindings{},
	}
	f, err := parse.Parse(ctx, source, opts)
	if err != nil {
		slog.Debug("searching without call graph", slog.String("error", err.Error()))
		p.ParseErr = err
		return p
	}
	defer f.Close()
	p.Analysis = f.Analyze()
	p.Imports = f.Imports()
	return p
}

// Result is the outcome of one search.
type Result struct {
	Target  string
	Scope   *scope.Result
	Matches []model.MatchRecord
	Ranks   map[string]float64
	Callers []model.CallerEdge

	// ParseErr is set when the search ran on selection text alone.
	ParseErr error
}

// Search runs scope detection and match extraction for req.
func (p *Prepared) Search(req Request) (*Result, error) {
	if req.Target == "" {
		return nil, ErrEmptyTarget
	}
	sel := clampSpan(req.Selection, len(p.Source))
	if sel.Len() == 0 {
		return nil, ErrEmptySelection
	}
	// Fail on a bad pattern before doing any scope work.
	if _, err := Compile(req.Target, req.Mode); err != nil {
		return nil, err
	}

	tbl, g := p.Analysis.Table, p.Analysis.Graph
	sc := scope.Compute(p.Source[sel.Start:sel.End], tbl, p.Imports, g)
	matches, err := Extract(req.Target, p.Source, sel, sc.Relevant, tbl, req.Options)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Target:   req.Target,
		Scope:    sc,
		Matches:  matches,
		Ranks:    graph.Rank(g),
		ParseErr: p.ParseErr,
	}
	if req.Callers {
		res.Callers = callerEdges(g, sc.Seeds)
	}
	slog.Debug("search complete",
		slog.String("target", req.Target),
		slog.Int("seeds", sc.Seeds.Len()),
		slog.Int("relevant", sc.Relevant.Len()),
		slog.Int("matches", len(matches)),
	)
	return res, nil
}

// Run prepares source and searches it in one step.
func Run(ctx context.Context, source []byte, req Request, opts parse.Options) (*Result, error) {
	if req.Target == "" {
		return nil, ErrEmptyTarget
	}
	if req.Selection.Len() <= 0 {
		return nil, ErrEmptySelection
	}
	return Prepare(ctx, source, opts).Search(req)
}

func callerEdges(g *model.CallGraph, seeds *model.NameSet) []model.CallerEdge {
	var edges []model.CallerEdge
	for _, seed := range seeds.Names() {
		for _, caller := range graph.TransitiveCallers(g, seed).Sorted() {
			edges = append(edges, model.CallerEdge{Function: seed, Caller: caller})
		}
	}
	return edges
}

// Report converts r into its presentable form. When grouped is set the
// matches are reordered by OrderGroups.
func (r *Result) Report(file string, grouped bool) *model.Report {
	rep := &model.Report{
		Target:  r.Target,
		File:    file,
		Callers: r.Callers,
	}

	for _, name := range r.Scope.Relevant.Names() {
		rep.Scope = append(rep.Scope, model.ScopeEntry{Function: name, Rank: r.Ranks[name]})
	}
	slices.SortStableFunc(rep.Scope, func(a, b model.ScopeEntry) int {
		switch {
		case a.Rank > b.Rank:
			return -1
		case a.Rank < b.Rank:
			return 1
		}
		return 0
	})

	refs := make([]string, 0, len(r.Scope.Annotations))
	for ref := range r.Scope.Annotations {
		refs = append(refs, ref)
	}
	slices.Sort(refs)
	for _, ref := range refs {
		rep.Imports = append(rep.Imports, model.ImportNote{Reference: ref, Imported: r.Scope.Annotations[ref]})
	}

	if !grouped {
		rep.Matches = r.Matches
		return rep
	}
	for _, grp := range OrderGroups(GroupByFunction(r.Matches), r.Ranks) {
		rep.Matches = append(rep.Matches, grp.Matches...)
	}
	return rep
}
