// Package fingerprint computes opaque, comparable content fingerprints for
// spec source files. Staleness detection compares these strings; nothing else
// inspects them.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Sum returns the fingerprint of raw content.
func Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Hasher fingerprints files, caching results keyed by path, size, and
// modification time so unchanged files are not rehashed across repeated
// invocations within one process.
type Hasher struct {
	cache *lru.Cache[string, string]
}

// NewHasher returns a Hasher whose cache holds up to size entries.
func NewHasher(size int) (*Hasher, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("creating fingerprint cache: %w", err)
	}
	return &Hasher{cache: cache}, nil
}

// File returns the fingerprint of the file at path. A spec whose source
// cannot be read cannot be planned, so read failures are surfaced.
func (h *Hasher) File(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	if sum, ok := h.cache.Get(key); ok {
		return sum, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	sum := Sum(data)
	h.cache.Add(key, sum)
	return sum, nil
}
