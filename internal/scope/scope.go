// Package scope derives the set of functions relevant to a text selection.
//
// The selection is raw text that need not parse, so names are recovered with
// regular expressions rather than a parser. The heuristics may report extra
// names; they never fail on malformed input.
package scope

import (
	"regexp"

	"github.com/phobologic/callscope/internal/graph"
	"github.com/phobologic/callscope/internal/model"
)

var (
	// function name(  |  function* name(  |  async function name(
	declRe = regexp.MustCompile(`\bfunction\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`)

	// name(  |  base.member(
	callRe = regexp.MustCompile(`([A-Za-z_$][\w$]*)(?:\s*\.\s*([A-Za-z_$][\w$]*))?\s*\(`)

	// const name[: Type] = function | [<T>](args) => | arg =>
	bindingRe = regexp.MustCompile(`\b(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::(?:[^=;\n{]|=>)*?)?=\s*(?:async\s+)?(?:function\b|(?:<[^>]*>\s*)?\([^()]*\)\s*(?::[^=]*?)?=>|[A-Za-z_$][\w$]*\s*=>)`)
)

// Result is the outcome of scope detection for one selection.
type Result struct {
	// Seeds are the names recognized in the selection itself.
	Seeds *model.NameSet

	// Secondary are names called from the bodies of seeds declared inside
	// the selection that were not seeds already.
	Secondary *model.NameSet

	// Relevant holds every seed and secondary seed plus their nested calls.
	Relevant *model.NameSet

	// Annotations maps import-resolved references found in the selection
	// ("alias.member" or a bare imported name) to their imported names.
	Annotations map[string]string
}

// Compute runs the layered heuristics over selection and expands each seed
// through the call graph.
func Compute(selection string, tbl *model.Table, imports model.ImportBindings, g *model.CallGraph) *Result {
	res := &Result{
		Seeds:       &model.NameSet{},
		Secondary:   &model.NameSet{},
		Relevant:    &model.NameSet{},
		Annotations: make(map[string]string),
	}
	if selection == "" {
		return res
	}

	for _, m := range declRe.FindAllStringSubmatch(selection, -1) {
		res.Seeds.Add(m[1])
	}
	for _, m := range callRe.FindAllStringSubmatch(selection, -1) {
		base, member := m[1], m[2]
		if tbl.Has(base) {
			res.Seeds.Add(base)
		}
		if member == "" {
			if imported, ok := imports[base]; ok {
				res.Annotations[base] = imported
			}
			continue
		}
		// Call edges fold obj.method onto method, so the member is a seed too.
		if tbl.Has(member) {
			res.Seeds.Add(member)
		}
		if imported, ok := imports[base+"."+member]; ok {
			res.Annotations[base+"."+member] = imported
		}
	}
	for _, m := range bindingRe.FindAllStringSubmatch(selection, -1) {
		res.Seeds.Add(m[1])
	}

	for _, seed := range res.Seeds.Names() {
		res.Relevant.Add(seed)
		res.Relevant.AddAll(graph.NestedCalls(g, seed))
	}

	for _, seed := range res.Seeds.Names() {
		for _, body := range declaredBodies(selection, seed) {
			for _, name := range calledNames(body, tbl, g) {
				if res.Seeds.Has(name) {
					continue
				}
				res.Secondary.Add(name)
			}
		}
	}
	for _, name := range res.Secondary.Names() {
		res.Relevant.Add(name)
		res.Relevant.AddAll(graph.NestedCalls(g, name))
	}
	return res
}

// calledNames returns call-like references in text that name a known
// definition or graph node.
func calledNames(text string, tbl *model.Table, g *model.CallGraph) []string {
	found := &model.NameSet{}
	for _, m := range callRe.FindAllStringSubmatch(text, -1) {
		for _, name := range m[1:] {
			if name != "" && (tbl.Has(name) || g.Has(name)) {
				found.Add(name)
			}
		}
	}
	return found.Names()
}
