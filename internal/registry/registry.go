// Package registry maps producer names to registered Producer
// implementations. Spec blocks select a producer by name; resolution happens
// once at startup so an unknown producer fails before any build runs.
package registry

import (
	"context"
	"fmt"
	"sort"

	"specforge/internal/model"
)

// BuildRequest is everything a producer receives for one spec build.
type BuildRequest struct {
	// Name is the spec being built.
	Name string
	// Spec is the full workspace declaration.
	Spec *model.Spec
	// Root is the workspace root directory; producers run relative to it.
	Root string
	// SourcePath is the resolved path of the spec's content file.
	SourcePath string
	// Fingerprint is the spec's current content fingerprint.
	Fingerprint string
	// Dependencies is the normalized dependency list for this build.
	Dependencies []string
}

// BuildResult is what a successful producer invocation reports back. It is
// recorded in the manifest verbatim.
type BuildResult struct {
	Fingerprint  string
	Dependencies []string
	OutputFiles  []string
}

// Producer transforms one spec into its build outputs. Implementations must
// honor context cancellation; the executor retries failed invocations.
type Producer interface {
	Produce(ctx context.Context, req BuildRequest) (BuildResult, error)
}

// Module registers one or more producers into a Registry. Built-in producer
// packages under modules/ implement it.
type Module interface {
	Register(r *Registry) error
}

// Registry holds the producers available to a run. It is populated during
// startup and read-only afterwards.
type Registry struct {
	producers map[string]Producer
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{producers: make(map[string]Producer)}
}

// Register adds a producer under name. Registering the same name twice is a
// wiring bug and returns an error.
func (r *Registry) Register(name string, p Producer) error {
	if name == "" {
		return fmt.Errorf("registry: producer name must not be empty")
	}
	if _, exists := r.producers[name]; exists {
		return fmt.Errorf("registry: producer %q already registered", name)
	}
	r.producers[name] = p
	return nil
}

// Get returns the producer registered under name.
func (r *Registry) Get(name string) (Producer, bool) {
	p, ok := r.producers[name]
	return p, ok
}

// Names returns all registered producer names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.producers))
	for name := range r.producers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
