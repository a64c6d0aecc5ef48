package secretsreview

import (
	"strings"
	"testing"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRenderListsEntriesAndOmitsToken(t *testing.T) {
	snap := &snapshot.Snapshot{
		SecretsReview: []snapshot.SecretsReviewEntry{
			{Path: "/etc/app/secrets.env", Class: "api-key", Token: "sk-should-not-appear", Line: 12},
			{Path: "/etc/app/tls.key", Class: "private-key", Token: "-----BEGIN", Excluded: true},
		},
	}
	out := Render(snap)
	if !strings.Contains(out, "2 value(s) were redacted") {
		t.Errorf("expected count, got:\n%s", out)
	}
	if !strings.Contains(out, "/etc/app/secrets.env | api-key | 12 | value") {
		t.Errorf("expected line-scoped entry, got:\n%s", out)
	}
	if !strings.Contains(out, "/etc/app/tls.key | private-key | — | whole file excluded") {
		t.Errorf("expected whole-file entry, got:\n%s", out)
	}
	if strings.Contains(out, "sk-should-not-appear") || strings.Contains(out, "-----BEGIN") {
		t.Errorf("secret token leaked into report:\n%s", out)
	}
}

func TestRenderReportsNoneFound(t *testing.T) {
	out := Render(&snapshot.Snapshot{})
	if !strings.Contains(out, "No secret-shaped values") {
		t.Errorf("expected none-found message, got:\n%s", out)
	}
}
