package audit

import (
	"strings"
	"testing"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRenderIncludesWarningsAndPackageCounts(t *testing.T) {
	snap := &snapshot.Snapshot{
		Host:   snapshot.HostInfo{Hostname: "web01", Distribution: "rhel", FullVersion: "9.4"},
		Target: snapshot.TargetInfo{Image: "registry.redhat.io/rhel9/rhel-bootc:9.4"},
		Baseline: snapshot.Baseline{Mode: snapshot.BaselineModeQueried},
		Packages: snapshot.PackagesSection{
			Added: []snapshot.Package{{Name: "htop", Version: "3.3.0", Release: "1.el9", Architecture: "x86_64"}},
		},
		Warnings: []snapshot.Warning{
			{Severity: snapshot.SeverityError, Resource: "baseline", Message: "could not reach repo mirror"},
			{Severity: snapshot.SeverityWarn, Resource: "configs:/etc/foo.conf", Message: "unowned file excluded by default", SuggestedAction: "pass --config-diffs to include it"},
		},
		SecretsReview: []snapshot.SecretsReviewEntry{{Path: "/etc/foo.conf", Class: "api-key"}},
	}

	out, err := Render(snap)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		"Host: web01 (rhel 9.4)",
		"1 error(s)",
		"1 warning(s)",
		"1 value(s) redacted",
		"could not reach repo mirror",
		"pass --config-diffs to include it",
		"htop-3.3.0-1.el9.x86_64",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected report to contain %q, got:\n%s", want, out)
		}
	}
}
