package baseline

import (
	"context"
	"testing"

	"github.com/marrusl/yoinkc/internal/adapter"
	"github.com/marrusl/yoinkc/internal/bridge"
	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

// unprivilegedBridge returns a Bridge whose Probe fails the way it
// would in any test process: not running as root, so the privilege
// bridge is unusable and every query-the-target-image path is skipped.
func unprivilegedBridge() *bridge.Bridge {
	return &bridge.Bridge{Runner: adapter.Exec{}}
}

func TestResolveFallsBackToAllPackagesModeWithoutRuntimeOrFallbackFile(t *testing.T) {
	r := Resolver{Bridge: unprivilegedBridge(), Table: DefaultTable()}
	host := snapshot.HostInfo{Distribution: "rhel", MajorVersion: "9"}
	sink := &pipeline.Sink{}

	_, bl := r.Resolve(context.Background(), host, Options{}, sink)

	if bl.Mode != snapshot.BaselineModeAllPackages {
		t.Errorf("Mode = %q, want %q", bl.Mode, snapshot.BaselineModeAllPackages)
	}

	var found bool
	for _, w := range sink.Warnings() {
		if w.Severity == snapshot.SeverityWarn && w.Source == "baseline" {
			found = true
		}
	}
	if !found {
		t.Error("expected a warn-severity warning from source \"baseline\", found none")
	}
}

func TestResolveWarnsOnCrossMajorTransition(t *testing.T) {
	// fedora is the distro whose image tag carries the major version
	// directly (rhel's lives in the repository path, not the tag), so
	// it's the one majorFromImage can actually parse back out.
	r := Resolver{Bridge: unprivilegedBridge(), Table: DefaultTable()}
	host := snapshot.HostInfo{Distribution: "fedora", MajorVersion: "38"}
	sink := &pipeline.Sink{}

	target, _ := r.Resolve(context.Background(), host, Options{TargetVersionOverride: "40"}, sink)

	if !target.CrossMajor {
		t.Error("expected CrossMajor true for host major 38 vs. target major 40")
	}

	var found bool
	for _, w := range sink.Warnings() {
		if w.Source == "baseline" && w.Resource == target.Image {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a cross-major warning for resource %q, found none in %+v", target.Image, sink.Warnings())
	}
}
