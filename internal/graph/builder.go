package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"specforge/internal/ctxlog"
)

// Provider supplies the universe of known spec names and, per spec, its
// declared dependency references. internal/model implements it over a
// workspace of spec files; tests implement it over plain maps.
type Provider interface {
	// Universe returns every spec name the provider knows about.
	Universe(ctx context.Context) ([]string, error)

	// Dependencies returns the declared dependency references for the given
	// spec. References may be bare names or path-like (e.g.
	// "specs/auth.spec"); Build normalizes them before the graph sees them.
	Dependencies(ctx context.Context, name string) ([]string, error)
}

// Build constructs a validated dependency graph for the requested names,
// following declared dependencies transitively. If no names are given, the
// provider's full universe is used.
//
// Every dependency reference must resolve to a name in the requested set or
// the provider's universe; otherwise Build fails with a
// *MissingDependencyError naming both the dependent and the missing name.
func Build(ctx context.Context, p Provider, names ...string) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)

	universe, err := p.Universe(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing spec universe: %w", err)
	}
	known := make(map[string]struct{}, len(universe))
	for _, n := range universe {
		known[n] = struct{}{}
	}

	if len(names) == 0 {
		names = append([]string(nil), universe...)
	}
	sort.Strings(names)
	requested := make(map[string]struct{}, len(names))
	for _, n := range names {
		requested[n] = struct{}{}
	}

	logger.Debug("Building dependency graph.", "requested", len(names), "universe", len(universe))

	g := newGraph()
	queue := append([]string(nil), names...)
	visited := make(map[string]struct{})
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, done := visited[name]; done {
			continue
		}
		visited[name] = struct{}{}
		g.addNode(name)

		refs, err := p.Dependencies(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolving dependencies of %q: %w", name, err)
		}
		for _, ref := range refs {
			dep, err := NormalizeRef(ref)
			if err != nil {
				return nil, fmt.Errorf("spec %q: %w", name, err)
			}
			if _, inUniverse := known[dep]; !inUniverse {
				if _, inRequest := requested[dep]; !inRequest {
					return nil, &MissingDependencyError{Spec: name, Missing: dep}
				}
			}
			g.addNode(dep)
			g.addEdge(name, dep)
			queue = append(queue, dep)
		}
	}

	logger.Debug("Dependency graph built.", "node_count", g.Len())
	return g, nil
}

// NormalizeRef reduces a dependency reference to the bare spec name it
// addresses. A reference may be a plain name ("auth"), a path
// ("specs/auth.spec"), or a filename with an extension ("auth.spec"); the
// directory prefix and extension are stripped.
func NormalizeRef(ref string) (string, error) {
	name := strings.TrimSpace(ref)
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	if name == "" {
		return "", fmt.Errorf("empty dependency reference %q", ref)
	}
	return name, nil
}
