package graph

import "sort"

// Graph is a validated dependency graph over spec names. Instances are
// constructed by Build and never mutated afterwards, so they are safe for
// concurrent read access without locking.
//
// Invariant: every name appearing in an edge also appears as a node, and the
// reverse edge map mirrors the forward edge map exactly.
type Graph struct {
	nodes      map[string]struct{}
	dependsOn  map[string]map[string]struct{}
	dependents map[string]map[string]struct{}
}

func newGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]struct{}),
		dependsOn:  make(map[string]map[string]struct{}),
		dependents: make(map[string]map[string]struct{}),
	}
}

func (g *Graph) addNode(name string) {
	if _, ok := g.nodes[name]; ok {
		return
	}
	g.nodes[name] = struct{}{}
	g.dependsOn[name] = make(map[string]struct{})
	g.dependents[name] = make(map[string]struct{})
}

// addEdge records that spec depends on dep. Both nodes must already exist.
// Duplicate declarations collapse to a single edge.
func (g *Graph) addEdge(spec, dep string) {
	g.dependsOn[spec][dep] = struct{}{}
	g.dependents[dep][spec] = struct{}{}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Has reports whether name is a node in the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Nodes returns all node names in lexicographic order.
func (g *Graph) Nodes() []string {
	return sortedKeys(g.nodes)
}

// Dependencies returns the names the given spec depends on, sorted.
// An unknown name yields nil.
func (g *Graph) Dependencies(name string) []string {
	return sortedKeys(g.dependsOn[name])
}

// Dependents returns the names that depend on the given spec, sorted.
// An unknown name yields nil.
func (g *Graph) Dependents(name string) []string {
	return sortedKeys(g.dependents[name])
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
