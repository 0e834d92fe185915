package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Load reads a manifest from path. A missing file or unparsable content is
// not an error: cold starts and corrupted state both recover to an empty
// manifest. Any other I/O failure (e.g. permission denied) is surfaced,
// because it indicates an environment problem rather than an empty project.
//
// Records missing any required field are dropped during load, so a later
// lookup treats the spec as never built.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return New(), nil
	}
	if m.Version != Version || m.Specs == nil {
		return New(), nil
	}

	for name, info := range m.Specs {
		if !info.valid() {
			delete(m.Specs, name)
		}
	}
	return &m, nil
}

// Save writes the manifest to path as one atomic operation: the document is
// marshaled once, written to a temporary file in the target directory,
// synced, and renamed into place. A crash mid-save leaves the previous file
// intact.
func (m *Manifest) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating manifest dir: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("committing manifest: %w", err)
	}
	committed = true
	return nil
}
