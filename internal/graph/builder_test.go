package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specforge/internal/ctxlog"
)

// mapProvider backs the builder with plain maps for testing.
type mapProvider map[string][]string

func (p mapProvider) Universe(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (p mapProvider) Dependencies(ctx context.Context, name string) ([]string, error) {
	deps, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("unknown spec %q", name)
	}
	return deps, nil
}

func testCtx() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func TestBuild_FullUniverse(t *testing.T) {
	t.Parallel()

	p := mapProvider{
		"types": nil,
		"auth":  {"types"},
		"users": {"types"},
		"api":   {"auth", "users"},
	}

	g, err := Build(testCtx(), p)
	require.NoError(t, err)

	assert.Equal(t, []string{"api", "auth", "types", "users"}, g.Nodes())
	assert.Equal(t, []string{"auth", "users"}, g.Dependencies("api"))
	assert.Equal(t, []string{"auth", "users"}, g.Dependents("types"))
	assert.Empty(t, g.Dependencies("types"))
}

func TestBuild_SubsetFollowsTransitiveDeps(t *testing.T) {
	t.Parallel()

	p := mapProvider{
		"types":     nil,
		"auth":      {"types"},
		"api":       {"auth"},
		"unrelated": nil,
	}

	g, err := Build(testCtx(), p, "api")
	require.NoError(t, err)

	assert.Equal(t, []string{"api", "auth", "types"}, g.Nodes())
	assert.False(t, g.Has("unrelated"))
}

func TestBuild_MissingDependency(t *testing.T) {
	t.Parallel()

	p := mapProvider{
		"auth": {"users"},
	}

	_, err := Build(testCtx(), p)
	require.Error(t, err)

	var missing *MissingDependencyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "auth", missing.Spec)
	assert.Equal(t, "users", missing.Missing)
	assert.Contains(t, err.Error(), "auth")
	assert.Contains(t, err.Error(), "users")
}

func TestBuild_NormalizesPathLikeReferences(t *testing.T) {
	t.Parallel()

	p := mapProvider{
		"types": nil,
		"auth":  {"specs/types.spec"},
	}

	g, err := Build(testCtx(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"types"}, g.Dependencies("auth"))
}

func TestBuild_DuplicateDeclarationsCollapse(t *testing.T) {
	t.Parallel()

	p := mapProvider{
		"types": nil,
		"auth":  {"types", "types", "specs/types.spec"},
	}

	g, err := Build(testCtx(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"types"}, g.Dependencies("auth"))
	assert.Equal(t, []string{"auth"}, g.Dependents("types"))
}

func TestBuild_EveryEdgeNameIsANode(t *testing.T) {
	t.Parallel()

	p := mapProvider{
		"a": {"b"},
		"b": {"c"},
		"c": nil,
	}

	g, err := Build(testCtx(), p, "a")
	require.NoError(t, err)
	for _, name := range g.Nodes() {
		for _, dep := range g.Dependencies(name) {
			assert.True(t, g.Has(dep), "edge target %q must be a node", dep)
		}
		for _, dependent := range g.Dependents(name) {
			assert.True(t, g.Has(dependent), "edge source %q must be a node", dependent)
		}
	}
}

func TestNormalizeRef(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ref  string
		want string
	}{
		{"auth", "auth"},
		{"auth.spec", "auth"},
		{"specs/auth.spec", "auth"},
		{"a/b/c/users.md", "users"},
		{" types ", "types"},
	}
	for _, tc := range cases {
		got, err := NormalizeRef(tc.ref)
		require.NoError(t, err, "ref %q", tc.ref)
		assert.Equal(t, tc.want, got, "ref %q", tc.ref)
	}

	_, err := NormalizeRef("   ")
	assert.Error(t, err)
}
