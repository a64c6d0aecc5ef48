package sbom

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRenderProducesValidSPDXJSON(t *testing.T) {
	snap := &snapshot.Snapshot{
		Host: snapshot.HostInfo{Hostname: "web01"},
		Packages: snapshot.PackagesSection{
			Unchanged: []snapshot.Package{{Name: "glibc", Version: "2.34", Release: "100.el9", Architecture: "x86_64"}},
			Added:     []snapshot.Package{{Name: "htop", Version: "3.3.0", Release: "1.el9", Architecture: "x86_64"}},
		},
	}
	b, err := Render(snap, time.Unix(1_700_000_000, 0))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc["spdxVersion"] == nil {
		t.Errorf("expected spdxVersion field, got: %v", doc)
	}
	pkgs, ok := doc["packages"].([]any)
	if !ok || len(pkgs) != 2 {
		t.Errorf("expected 2 packages in SBOM, got: %v", doc["packages"])
	}
}
