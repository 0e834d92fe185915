// Package plan decides which specs are stale and must be rebuilt this cycle,
// cascading the decision through dependents.
package plan

import (
	"sort"

	"specforge/internal/manifest"
)

// Inputs is everything the planner needs for one cycle: the linear build
// order, the current content fingerprint per spec, and the current
// (normalized) dependency list per spec.
type Inputs struct {
	Order        []string
	Fingerprints map[string]string
	Dependencies map[string][]string
}

// Reason explains why a spec entered the rebuild plan.
type Reason string

const (
	// NeverBuilt means the manifest has no usable record for the spec.
	NeverBuilt Reason = "never built"
	// ContentChanged means the spec's fingerprint differs from the record.
	ContentChanged Reason = "content changed"
	// DependenciesChanged means the declared dependency set differs from the
	// recorded snapshot.
	DependenciesChanged Reason = "dependencies changed"
	// DependencyRebuilt means a dependency was marked for rebuild earlier in
	// this same planning pass.
	DependencyRebuilt Reason = "dependency rebuilt"
)

// Decision is one spec's entry in the rebuild plan.
type Decision struct {
	Name   string
	Reason Reason
	// Trigger names the dependency that forced the rebuild when Reason is
	// DependencyRebuilt.
	Trigger string
}

// Plan returns the subsequence of in.Order that must be rebuilt, preserving
// relative order. With no changes and no manifest mutation between calls, a
// second plan is empty.
func Plan(in Inputs, m *manifest.Manifest) []string {
	decisions := Explain(in, m)
	out := make([]string, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, d.Name)
	}
	return out
}

// Explain is Plan with reasons attached, used for dry-run reporting.
//
// Specs are evaluated in build order so that cascading is causally correct:
// a dependency's decision is always settled before its dependents are
// considered.
func Explain(in Inputs, m *manifest.Manifest) []Decision {
	rebuilt := make(map[string]struct{})
	var out []Decision

	mark := func(name string, reason Reason, trigger string) {
		rebuilt[name] = struct{}{}
		out = append(out, Decision{Name: name, Reason: reason, Trigger: trigger})
	}

	for _, name := range in.Order {
		info, ok := m.Lookup(name)
		if !ok {
			mark(name, NeverBuilt, "")
			continue
		}
		if in.Fingerprints[name] != info.SpecHash {
			mark(name, ContentChanged, "")
			continue
		}
		if !sameSet(in.Dependencies[name], info.Dependencies) {
			mark(name, DependenciesChanged, "")
			continue
		}
		if dep, hit := firstRebuilt(in.Dependencies[name], rebuilt); hit {
			mark(name, DependencyRebuilt, dep)
		}
	}
	return out
}

// sameSet compares two dependency lists as unordered sets. Declaration order
// is not semantically meaningful, so reordering alone never triggers a
// rebuild.
func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func firstRebuilt(deps []string, rebuilt map[string]struct{}) (string, bool) {
	sorted := append([]string(nil), deps...)
	sort.Strings(sorted)
	for _, dep := range sorted {
		if _, ok := rebuilt[dep]; ok {
			return dep, true
		}
	}
	return "", false
}
