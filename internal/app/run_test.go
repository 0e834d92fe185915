package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specforge/internal/graph"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// setupWorkspace writes a two-spec chain whose command producer drops marker
// files into the workspace.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	specHCL := `
spec "types" {
  source  = "types.md"
  command = "touch built-types"
}

spec "auth" {
  source     = "auth.md"
  depends_on = ["types"]
  command    = "touch built-auth"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "specs.hcl"), []byte(specHCL), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "types.md"), []byte("types content"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "auth.md"), []byte("auth content"), 0o644))
	return root
}

func setupApp(t *testing.T, cfg Config) (*App, *SafeBuffer) {
	t.Helper()
	out := &SafeBuffer{}
	cfg.LogLevel = "error"
	config, err := NewConfig(cfg)
	require.NoError(t, err)
	application, err := NewApp(out, config)
	require.NoError(t, err)
	return application, out
}

func TestRun_BuildThenIncrementalNoOp(t *testing.T) {
	t.Parallel()

	root := setupWorkspace(t)
	outDir := t.TempDir()

	application, _ := setupApp(t, Config{WorkspacePath: root, OutDir: outDir, Workers: 2})
	require.NoError(t, application.Run(context.Background()))

	for _, marker := range []string{"built-types", "built-auth"} {
		_, err := os.Stat(filepath.Join(root, marker))
		assert.NoError(t, err, "producer must have run for %s", marker)
		require.NoError(t, os.Remove(filepath.Join(root, marker)))
	}

	// Nothing changed: a second invocation runs no producers.
	application, _ = setupApp(t, Config{WorkspacePath: root, OutDir: outDir, Workers: 2})
	require.NoError(t, application.Run(context.Background()))
	for _, marker := range []string{"built-types", "built-auth"} {
		_, err := os.Stat(filepath.Join(root, marker))
		assert.True(t, os.IsNotExist(err), "%s must not be rebuilt", marker)
	}
}

func TestRun_AffectedReport(t *testing.T) {
	t.Parallel()

	root := setupWorkspace(t)
	application, out := setupApp(t, Config{
		WorkspacePath: root,
		OutDir:        t.TempDir(),
		Affected:      "types",
	})
	require.NoError(t, application.Run(context.Background()))
	assert.Equal(t, "types\nauth\n", out.String())
}

func TestRun_DryRunPrintsReasons(t *testing.T) {
	t.Parallel()

	root := setupWorkspace(t)
	application, out := setupApp(t, Config{
		WorkspacePath: root,
		OutDir:        t.TempDir(),
		DryRun:        true,
	})
	require.NoError(t, application.Run(context.Background()))

	assert.Contains(t, out.String(), "types\tnever built")
	assert.Contains(t, out.String(), "auth\tnever built")

	// No producers ran and no manifest was written.
	_, err := os.Stat(filepath.Join(root, "built-types"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_MissingDependencyDiagnostic(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	specHCL := `
spec "auth" {
  source     = "auth.md"
  depends_on = ["users"]
}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "specs.hcl"), []byte(specHCL), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "auth.md"), []byte("x"), 0o644))

	application, _ := setupApp(t, Config{WorkspacePath: root, OutDir: t.TempDir()})
	err := application.Run(context.Background())
	require.Error(t, err)

	var missing *graph.MissingDependencyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "auth", missing.Spec)
	assert.Equal(t, "users", missing.Missing)
}
