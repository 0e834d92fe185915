package graph

import (
	"container/heap"
	"sort"
)

// Order returns a linear build order: every dependency strictly before every
// one of its dependents. When no constraint distinguishes two ready nodes the
// lexicographically smaller name is emitted first, so repeated calls over the
// same graph return byte-identical output.
//
// If the graph contains a cycle, Order returns a *CircularDependencyError
// carrying one located cycle.
func Order(g *Graph) ([]string, error) {
	indeg := make(map[string]int, g.Len())
	ready := &nameHeap{}
	for name := range g.nodes {
		indeg[name] = len(g.dependsOn[name])
		if indeg[name] == 0 {
			heap.Push(ready, name)
		}
	}

	out := make([]string, 0, g.Len())
	for ready.Len() > 0 {
		name := heap.Pop(ready).(string)
		out = append(out, name)
		for _, dependent := range g.Dependents(name) {
			indeg[dependent]--
			if indeg[dependent] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	if len(out) < g.Len() {
		return nil, &CircularDependencyError{Cycle: findCycle(g, remainder(g, out))}
	}
	return out, nil
}

// Levels returns the build order grouped into parallelizable levels: every
// member of level k depends only on names found in levels 0..k-1, so the
// members of one level may build concurrently. Names within a level are
// sorted for deterministic reporting only.
func Levels(g *Graph) ([][]string, error) {
	indeg := make(map[string]int, g.Len())
	var ready []string
	for name := range g.nodes {
		indeg[name] = len(g.dependsOn[name])
		if indeg[name] == 0 {
			ready = append(ready, name)
		}
	}

	var levels [][]string
	emitted := 0
	for len(ready) > 0 {
		sort.Strings(ready)
		level := ready
		levels = append(levels, level)
		emitted += len(level)

		var next []string
		for _, name := range level {
			for _, dependent := range g.Dependents(name) {
				indeg[dependent]--
				if indeg[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		ready = next
	}

	if emitted < g.Len() {
		var flat []string
		for _, level := range levels {
			flat = append(flat, level...)
		}
		return nil, &CircularDependencyError{Cycle: findCycle(g, remainder(g, flat))}
	}
	return levels, nil
}

// remainder returns the node set minus the emitted sequence. When elimination
// stalls this restricted subgraph necessarily contains at least one cycle.
func remainder(g *Graph, emitted []string) map[string]struct{} {
	rest := make(map[string]struct{}, g.Len()-len(emitted))
	for name := range g.nodes {
		rest[name] = struct{}{}
	}
	for _, name := range emitted {
		delete(rest, name)
	}
	return rest
}

// findCycle locates one cycle inside the given node subset via depth-first
// traversal over dependsOn edges, tracking the current path. The first node
// revisited while still on the path delimits the cycle; the returned sequence
// repeats that node at the end to close the loop.
//
// Traversal order is sorted at every choice point so the same graph always
// yields the same witness.
func findCycle(g *Graph, within map[string]struct{}) []string {
	onPath := make(map[string]int, len(within))
	visited := make(map[string]struct{}, len(within))
	var path []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		onPath[name] = len(path)
		path = append(path, name)
		for _, dep := range g.Dependencies(name) {
			if _, ok := within[dep]; !ok {
				continue
			}
			if at, ok := onPath[dep]; ok {
				cycle = append(append([]string(nil), path[at:]...), dep)
				return true
			}
			if _, done := visited[dep]; done {
				continue
			}
			if visit(dep) {
				return true
			}
		}
		path = path[:len(path)-1]
		delete(onPath, name)
		visited[name] = struct{}{}
		return false
	}

	for _, name := range sortedKeys(within) {
		if _, done := visited[name]; done {
			continue
		}
		if visit(name) {
			return cycle
		}
	}
	return nil
}

// nameHeap is a min-heap of spec names used as the deterministic ready queue.
type nameHeap []string

func (h nameHeap) Len() int           { return len(h) }
func (h nameHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h nameHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nameHeap) Push(x any)        { *h = append(*h, x.(string)) }
func (h *nameHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
