package graph

import "fmt"

// Affected returns the changed spec plus every transitive dependent, in valid
// build order. A spec with no dependents yields just itself.
func Affected(g *Graph, changed string) ([]string, error) {
	if !g.Has(changed) {
		return nil, fmt.Errorf("unknown spec %q", changed)
	}

	reachable := map[string]struct{}{changed: {}}
	queue := []string{changed}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, dependent := range g.Dependents(name) {
			if _, seen := reachable[dependent]; seen {
				continue
			}
			reachable[dependent] = struct{}{}
			queue = append(queue, dependent)
		}
	}

	order, err := Order(g)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(reachable))
	for _, name := range order {
		if _, ok := reachable[name]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}
