package packages

import (
	"testing"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestDiffAddedRemoved(t *testing.T) {
	installed := []snapshot.Package{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	baseline := map[string]bool{"b": true, "c": true, "d": true}

	added, removed, unchanged := Diff(installed, baseline)

	if len(added) != 1 || added[0].Name != "a" {
		t.Fatalf("added = %+v, want [a]", added)
	}
	if len(removed) != 1 || removed[0].Name != "d" {
		t.Fatalf("removed = %+v, want [d]", removed)
	}
	if len(unchanged) != 2 {
		t.Fatalf("unchanged = %+v, want len 2", unchanged)
	}

	addedSet := map[string]bool{}
	for _, p := range added {
		addedSet[p.Name] = true
	}
	for _, p := range removed {
		if addedSet[p.Name] {
			t.Fatalf("package %s present in both added and removed", p.Name)
		}
	}
}

func TestDiffEmptyBaselineIsAllPackagesMode(t *testing.T) {
	installed := []snapshot.Package{{Name: "a"}, {Name: "b"}}
	added, removed, unchanged := Diff(installed, nil)
	if len(added) != 2 || len(removed) != 0 || len(unchanged) != 0 {
		t.Fatalf("empty baseline should treat every installed package as added, got added=%d removed=%d unchanged=%d", len(added), len(removed), len(unchanged))
	}
}
