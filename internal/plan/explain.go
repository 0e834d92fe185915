package plan

import (
	"sort"

	"github.com/pmezard/go-difflib/difflib"

	"specforge/internal/manifest"
)

// DependencyDiff renders a unified diff between the recorded dependency
// snapshot and the current declaration for one spec, for dry-run output.
// It returns "" when the spec has no record or the sets match.
func DependencyDiff(name string, current []string, m *manifest.Manifest) string {
	info, ok := m.Lookup(name)
	if !ok || sameSet(current, info.Dependencies) {
		return ""
	}

	u := difflib.UnifiedDiff{
		A:        depLines(info.Dependencies),
		B:        depLines(current),
		FromFile: "recorded",
		ToFile:   "current",
		Context:  3,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return ""
	}
	return s
}

func depLines(deps []string) []string {
	sorted := append([]string(nil), deps...)
	sort.Strings(sorted)
	out := make([]string, len(sorted))
	for i, d := range sorted {
		out[i] = d + "\n"
	}
	return out
}
