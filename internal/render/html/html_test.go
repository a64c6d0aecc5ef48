package html

import (
	"strings"
	"testing"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRenderBannerReflectsHighestSeverity(t *testing.T) {
	snap := &snapshot.Snapshot{
		Host:   snapshot.HostInfo{Hostname: "web01"},
		Target: snapshot.TargetInfo{Image: "registry.redhat.io/rhel9/rhel-bootc:9.4"},
		Warnings: []snapshot.Warning{
			{Severity: snapshot.SeverityError, Resource: "baseline", Message: "could not reach repo mirror"},
		},
	}
	out, err := Render(snap)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, `class="banner blocked"`) {
		t.Errorf("expected blocked banner, got:\n%s", out)
	}
	if !strings.Contains(out, "Review required before building") {
		t.Errorf("expected headline, got:\n%s", out)
	}
	if !strings.Contains(out, "could not reach repo mirror") {
		t.Errorf("expected warning text, got:\n%s", out)
	}
	if strings.Contains(out, "<script src=") {
		t.Errorf("report.html must not fetch external scripts, got:\n%s", out)
	}
}

func TestRenderOKBannerWithNoWarnings(t *testing.T) {
	snap := &snapshot.Snapshot{Host: snapshot.HostInfo{Hostname: "web01"}}
	out, err := Render(snap)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, `class="banner ok"`) {
		t.Errorf("expected ok banner, got:\n%s", out)
	}
}
