// Package graph answers reachability questions over a call graph and ranks
// its functions by centrality.
package graph

import (
	"math"

	"github.com/phobologic/callscope/internal/model"
)

// NestedCalls returns every function reachable from seed along caller ->
// callee edges, in breadth-first order. The seed itself is included only
// when a cycle leads back to it. An unknown seed yields an empty set.
func NestedCalls(g *model.CallGraph, seed string) *model.NameSet {
	reached := &model.NameSet{}
	if !g.Has(seed) {
		return reached
	}
	queue := []string{seed}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, callee := range g.Callees(current) {
			if reached.Add(callee) {
				queue = append(queue, callee)
			}
		}
	}
	return reached
}

// TransitiveCallers returns every function that directly or indirectly
// calls target. It iterates over all edges until a full pass adds no new
// caller. An unknown target yields an empty set.
func TransitiveCallers(g *model.CallGraph, target string) *model.NameSet {
	callers := &model.NameSet{}
	if !g.Has(target) {
		return callers
	}
	nodes := g.Nodes()
	for _, caller := range nodes {
		if g.Calls(caller, target) {
			callers.Add(caller)
		}
	}
	for {
		added := 0
		for _, caller := range nodes {
			if callers.Has(caller) {
				continue
			}
			for _, callee := range g.Callees(caller) {
				if callers.Has(callee) {
					callers.Add(caller)
					added++
					break
				}
			}
		}
		if added == 0 {
			return callers
		}
	}
}

// Rank computes PageRank over the call graph, so functions called from many
// places score highest. Every node receives a score; the scores sum to 1.
func Rank(g *model.CallGraph) map[string]float64 {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return map[string]float64{}
	}
	return pageRank(g, nodes, 0.85, 100, 1e-6)
}

func pageRank(g *model.CallGraph, nodes []string, alpha float64, maxIter int, tol float64) map[string]float64 {
	n := float64(len(nodes))
	rank := make(map[string]float64, len(nodes))
	for _, node := range nodes {
		rank[node] = 1.0 / n
	}
	teleport := (1.0 - alpha) / n

	for iter := 0; iter < maxIter; iter++ {
		// Functions that call nothing spread their rank evenly.
		var dangling float64
		for _, node := range nodes {
			if len(g.Callees(node)) == 0 {
				dangling += rank[node]
			}
		}

		next := make(map[string]float64, len(nodes))
		for _, node := range nodes {
			next[node] = teleport + alpha*dangling/n
		}
		for _, caller := range nodes {
			callees := g.Callees(caller)
			if len(callees) == 0 {
				continue
			}
			share := alpha * rank[caller] / float64(len(callees))
			for _, callee := range callees {
				next[callee] += share
			}
		}

		var diff float64
		for _, node := range nodes {
			diff += math.Abs(next[node] - rank[node])
		}
		rank = next
		if diff < tol {
			break
		}
	}
	return rank
}
