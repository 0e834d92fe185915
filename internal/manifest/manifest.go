// Package manifest tracks what was built, from what inputs, producing what
// outputs. The manifest is the only persisted state in the system: it is
// loaded at the start of a build cycle, mutated in memory as specs finish,
// and written back atomically at the end.
package manifest

import (
	"sort"
	"time"
)

// Version is the current manifest schema version. A persisted manifest with a
// different version is treated as empty rather than migrated.
const Version = "1"

// BuildInfo records one spec's last successful build.
type BuildInfo struct {
	// SpecHash is the content fingerprint of the spec at build time.
	SpecHash string `json:"spec_hash"`
	// BuiltAt is the timestamp of the last successful build.
	BuiltAt time.Time `json:"built_at"`
	// Dependencies is the dependency list as it existed at build time.
	Dependencies []string `json:"dependencies"`
	// OutputFiles lists the output locations the build produced.
	OutputFiles []string `json:"output_files"`
}

// valid reports whether the record carries all required fields. A record
// missing any of them is treated as absent, which forces a rebuild.
func (b BuildInfo) valid() bool {
	return b.SpecHash != "" && !b.BuiltAt.IsZero() && b.Dependencies != nil && b.OutputFiles != nil
}

// Manifest maps spec names to their last-built records. It is a plain value
// with no implicit lifecycle; callers own it and must serialize writes.
type Manifest struct {
	Version string               `json:"version"`
	Specs   map[string]BuildInfo `json:"specs"`
}

// New returns an empty manifest at the current schema version.
func New() *Manifest {
	return &Manifest{
		Version: Version,
		Specs:   make(map[string]BuildInfo),
	}
}

// RecordBuild replaces any prior record for name with a freshly stamped one.
// Records are overwritten wholesale, never merged.
func (m *Manifest) RecordBuild(name, specHash string, dependencies, outputFiles []string) {
	deps := append([]string(nil), dependencies...)
	sort.Strings(deps)
	if deps == nil {
		deps = []string{}
	}
	outputs := append([]string(nil), outputFiles...)
	if outputs == nil {
		outputs = []string{}
	}
	m.Specs[name] = BuildInfo{
		SpecHash:     specHash,
		BuiltAt:      time.Now().UTC(),
		Dependencies: deps,
		OutputFiles:  outputs,
	}
}

// Forget removes the record for name, if any. Used when a spec is deleted
// from the workspace.
func (m *Manifest) Forget(name string) {
	delete(m.Specs, name)
}

// Lookup returns the record for name and whether one exists.
func (m *Manifest) Lookup(name string) (BuildInfo, bool) {
	info, ok := m.Specs[name]
	return info, ok
}

// Names returns all recorded spec names, sorted.
func (m *Manifest) Names() []string {
	out := make([]string, 0, len(m.Specs))
	for name := range m.Specs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
