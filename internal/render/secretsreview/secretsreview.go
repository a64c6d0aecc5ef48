// Package secretsreview renders secrets-review.md: the list of every
// value the redaction gate removed or masked, so an operator can confirm
// nothing sensitive made it into the rest of the bundle (spec §4.4).
package secretsreview

import (
	"fmt"
	"strings"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

// Render produces the secrets-review.md text for snap's recorded
// redaction events, in the (inspector, first-discovery index) order
// Seal recorded (spec §5).
func Render(snap *snapshot.Snapshot) string {
	entries := snap.SecretsReview

	var b strings.Builder
	b.WriteString("# Secrets review\n\n")
	if len(entries) == 0 {
		b.WriteString("No secret-shaped values were found during inspection.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%d value(s) were redacted before any artifact was written to disk. ", len(entries))
	b.WriteString("None of the values below appear elsewhere in this bundle.\n\n")
	b.WriteString("| Path | Class | Line | Scope |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, e := range entries {
		scope := "value"
		line := fmt.Sprintf("%d", e.Line)
		if e.Excluded {
			scope = "whole file excluded"
			line = "—"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", e.Path, e.Class, line, scope)
	}
	return b.String()
}
