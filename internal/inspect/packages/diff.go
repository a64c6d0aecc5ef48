package packages

import "github.com/marrusl/yoinkc/internal/snapshot"

// Diff classifies installed against baseline by name-set difference
// only (spec §3 invariant: "membership is determined solely by set
// difference between the host package-name set and the baseline
// package-name set"). added and removed are always disjoint.
func Diff(installed []snapshot.Package, baselineNames map[string]bool) (added, removed, unchanged []snapshot.Package) {
	hostNames := make(map[string]bool, len(installed))
	for _, p := range installed {
		hostNames[p.Name] = true
		if baselineNames[p.Name] {
			unchanged = append(unchanged, p)
		} else {
			added = append(added, p)
		}
	}
	for name := range baselineNames {
		if !hostNames[name] {
			removed = append(removed, snapshot.Package{Name: name})
		}
	}
	return added, removed, unchanged
}
