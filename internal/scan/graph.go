package scan

import (
	"graft/internal/logging"
)

// Edge is one resolved import relationship.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DependencyGraph is a directed multigraph of module import relationships.
// Cycles are representable; nothing in this package traverses the graph.
// Built once by BuildGraph and read-only afterwards.
type DependencyGraph struct {
	nodes []string
	edges []Edge
	out   map[string][]string
}

// BuildGraph resolves each module's imports against the module index.
// Resolution is exact canonical-key matching: an import resolves only when
// its normalized form is itself an indexed key. Unresolved imports (third
// party packages, relative imports) produce no edge.
func BuildGraph(actx *AnalysisContext) *DependencyGraph {
	timer := logging.StartTimer(logging.CategoryGraph, "Graph build")
	defer timer.Stop()

	g := &DependencyGraph{
		nodes: actx.Keys(),
		out:   make(map[string][]string),
	}

	for _, from := range g.nodes {
		rec := actx.Module(from)
		for _, raw := range rec.Imports {
			to := NormalizeImport(raw)
			if to == "" || actx.Module(to) == nil {
				logging.GraphDebug("unresolved import %q in %s", raw, from)
				continue
			}
			g.edges = append(g.edges, Edge{From: from, To: to})
			g.out[from] = append(g.out[from], to)
		}
	}

	logging.Graph("built dependency graph: %d nodes, %d edges", len(g.nodes), len(g.edges))
	return g
}

// Nodes returns all module keys in sorted order.
func (g *DependencyGraph) Nodes() []string { return g.nodes }

// Edges returns every resolved import edge.
func (g *DependencyGraph) Edges() []Edge { return g.edges }

// HasNode reports whether a module key is in the node set.
func (g *DependencyGraph) HasNode(key string) bool {
	_, ok := g.out[key]
	if ok {
		return true
	}
	for _, n := range g.nodes {
		if n == key {
			return true
		}
	}
	return false
}

// Dependencies returns the resolved import targets of a module, in the
// module's import order. Duplicates are preserved (multigraph).
func (g *DependencyGraph) Dependencies(key string) []string {
	return g.out[key]
}
