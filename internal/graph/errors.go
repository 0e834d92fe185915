package graph

import (
	"fmt"
	"strings"
)

// MissingDependencyError reports a declared dependency that does not exist
// anywhere in the provider's universe. Both names are carried verbatim so the
// caller can produce a precise diagnostic.
type MissingDependencyError struct {
	// Spec is the name of the spec that declared the dependency.
	Spec string
	// Missing is the dependency name that could not be resolved.
	Missing string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("spec %q depends on %q, which does not exist", e.Spec, e.Missing)
}

// CircularDependencyError reports one cycle found in the graph. Cycle holds
// the node sequence with the entry node repeated at the end, e.g.
// [a, b, c, a]. It names a single minimal witness, not every node stuck
// behind the cycle.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(e.Cycle, " -> "))
}
