package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New()
	assert.Equal(t, Version, m.Version)
	assert.Empty(t, m.Specs)
}

func TestRecordBuild_OverwritesWholesale(t *testing.T) {
	m := New()

	m.RecordBuild("auth", "hash1", []string{"types"}, []string{"gen/auth.go"})
	first, ok := m.Lookup("auth")
	require.True(t, ok)
	assert.Equal(t, "hash1", first.SpecHash)
	assert.Equal(t, []string{"types"}, first.Dependencies)
	assert.WithinDuration(t, time.Now(), first.BuiltAt, time.Minute)

	m.RecordBuild("auth", "hash2", nil, nil)
	second, ok := m.Lookup("auth")
	require.True(t, ok)
	assert.Equal(t, "hash2", second.SpecHash)
	assert.Empty(t, second.Dependencies, "prior dependencies must not leak into the new record")
	assert.Empty(t, second.OutputFiles)
}

func TestForget(t *testing.T) {
	m := New()
	m.RecordBuild("auth", "h", nil, nil)

	m.Forget("auth")
	_, ok := m.Lookup("auth")
	assert.False(t, ok)

	m.Forget("never-existed") // no-op
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := New()
	m.RecordBuild("types", "aaa", []string{}, []string{"gen/types.go"})
	m.RecordBuild("auth", "bbb", []string{"types"}, []string{"gen/auth.go", "gen/auth_test.go"})
	m.RecordBuild("api", "ccc", []string{"auth", "types"}, []string{})

	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Version, loaded.Version)
	require.Len(t, loaded.Specs, 3)
	for _, name := range m.Names() {
		want, _ := m.Lookup(name)
		got, ok := loaded.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want.SpecHash, got.SpecHash, name)
		assert.Equal(t, want.Dependencies, got.Dependencies, name)
		assert.Equal(t, want.OutputFiles, got.OutputFiles, name)
		assert.True(t, want.BuiltAt.Equal(got.BuiltAt), name)
	}
}

func TestLoad_MissingFileYieldsEmptyManifest(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "does", "not", "exist.json"))
	require.NoError(t, err)
	assert.Equal(t, Version, m.Version)
	assert.Empty(t, m.Specs)
}

func TestLoad_MalformedContentYieldsEmptyManifest(t *testing.T) {
	cases := map[string]string{
		"garbage":       "{not json at all",
		"wrong shape":   `["a","b"]`,
		"wrong version": `{"version":"999","specs":{}}`,
		"null specs":    `{"version":"1"}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "manifest.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			m, err := Load(path)
			require.NoError(t, err)
			assert.Empty(t, m.Specs)
			assert.Equal(t, Version, m.Version)
		})
	}
}

func TestLoad_RecordsMissingRequiredFieldsAreDropped(t *testing.T) {
	content := `{
  "version": "1",
  "specs": {
    "complete": {
      "spec_hash": "abc",
      "built_at": "2026-08-30T12:00:00Z",
      "dependencies": [],
      "output_files": ["out.go"]
    },
    "no-hash": {
      "built_at": "2026-08-30T12:00:00Z",
      "dependencies": [],
      "output_files": []
    },
    "no-deps": {
      "spec_hash": "abc",
      "built_at": "2026-08-30T12:00:00Z",
      "output_files": []
    }
  }
}`
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := Load(path)
	require.NoError(t, err)

	_, ok := m.Lookup("complete")
	assert.True(t, ok)
	_, ok = m.Lookup("no-hash")
	assert.False(t, ok)
	_, ok = m.Lookup("no-deps")
	assert.False(t, ok)
}

func TestLoad_EnvironmentFaultIsSurfaced(t *testing.T) {
	// A path component that is a regular file is an environment problem, not
	// an empty project.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := Load(filepath.Join(blocker, "manifest.json"))
	assert.Error(t, err)
}

func TestSave_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := New()
	m.RecordBuild("auth", "h1", nil, nil)
	require.NoError(t, m.Save(path))

	m.RecordBuild("auth", "h2", nil, nil)
	require.NoError(t, m.Save(path))

	// No temp files are left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}

	loaded, err := Load(path)
	require.NoError(t, err)
	info, ok := loaded.Lookup("auth")
	require.True(t, ok)
	assert.Equal(t, "h2", info.SpecHash)
}

func TestSave_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".specforge", "manifest.json")
	require.NoError(t, New().Save(path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
