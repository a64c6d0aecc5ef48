package readme

import (
	"strings"
	"testing"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRenderNamesBuildCommandAndArtifacts(t *testing.T) {
	snap := &snapshot.Snapshot{
		Host:   snapshot.HostInfo{Hostname: "web01", Distribution: "rhel", FullVersion: "9.4", Architecture: "x86_64"},
		Target: snapshot.TargetInfo{Image: "registry.redhat.io/rhel9/rhel-bootc:9.4"},
		Containers: snapshot.ContainersSection{
			Quadlets: []snapshot.QuadletUnit{{Path: "/etc/containers/systemd/app.container"}},
		},
	}
	out, err := Render(snap, true)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		"podman build -t web01-bootc -f Containerfile .",
		"quadlet/` — container-workload",
		"sbom.spdx.json",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected README to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRenderOmitsQuadletSectionWhenAbsent(t *testing.T) {
	snap := &snapshot.Snapshot{Host: snapshot.HostInfo{Hostname: "web01"}}
	out, err := Render(snap, false)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(out, "quadlet/") {
		t.Errorf("did not expect quadlet section, got:\n%s", out)
	}
	if strings.Contains(out, "sbom.spdx.json") {
		t.Errorf("did not expect sbom mention, got:\n%s", out)
	}
}
