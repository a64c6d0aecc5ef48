// Package redact implements the mandatory redaction gate (spec §4.4):
// every captured content blob must traverse it exactly once before the
// snapshot is sealed. It is the only pipeline stage whose failure
// aborts the run, because it is a safety gate rather than a collector.
package redact

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

// Gate holds the configured exclusion and pattern lists. The zero value
// uses [DefaultPatterns] and [ExcludedPaths].
type Gate struct {
	ExcludedPaths []string
	Patterns      []Pattern
}

// NewGate constructs a Gate with the default policy.
func NewGate() *Gate {
	return &Gate{ExcludedPaths: ExcludedPaths(), Patterns: DefaultPatterns()}
}

// Redact runs all three stages over content captured at relPath. It
// returns the content to carry into the snapshot (nil if the path was
// excluded) and the secrets-review entries the substitutions and
// exclusion produced.
func (g *Gate) Redact(relPath string, content []byte) ([]byte, []snapshot.SecretsReviewEntry) {
	if MatchesExcludedPath(relPath, g.ExcludedPaths) {
		return nil, []snapshot.SecretsReviewEntry{{
			Path:     relPath,
			Class:    "path-excluded",
			Excluded: true,
		}}
	}

	var entries []snapshot.SecretsReviewEntry
	out := content
	for _, p := range g.Patterns {
		out, entries = substitute(out, p, relPath, entries)
	}
	return out, entries
}

// ScanBytes reports every pattern class with at least one match in b,
// without rewriting anything. Used by the push path's second,
// belt-and-braces scan (spec §4.4): a non-empty result means the
// already-rendered artifact still contains a secret shape.
func (g *Gate) ScanBytes(b []byte) []string {
	var classes []string
	for _, p := range g.Patterns {
		if p.Re.Match(b) {
			classes = append(classes, p.Class)
		}
	}
	return classes
}

func substitute(content []byte, p Pattern, relPath string, entries []snapshot.SecretsReviewEntry) ([]byte, []snapshot.SecretsReviewEntry) {
	matches := p.Re.FindAllIndex(content, -1)
	if len(matches) == 0 {
		return content, entries
	}
	var out bytes.Buffer
	prev := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		out.Write(content[prev:start])
		token := stableToken(p.Class, content[start:end])
		out.WriteString(token)
		entries = append(entries, snapshot.SecretsReviewEntry{
			Path:  relPath,
			Class: p.Class,
			Token: token,
			Line:  lineOf(content, start),
		})
		prev = end
	}
	out.Write(content[prev:])
	return out.Bytes(), entries
}

// stableToken is the REDACTED_<class>_<hash> replacement: the hash is a
// fixed-length prefix of the stable hash of the original value, so the
// same secret always redacts to the same token across runs (useful for
// diffing two audits without ever storing the secret itself).
func stableToken(class string, original []byte) string {
	sum := sha256.Sum256(original)
	return fmt.Sprintf("REDACTED_%s_%s", class, hex.EncodeToString(sum[:])[:12])
}

func lineOf(content []byte, offset int) int {
	return bytes.Count(content[:offset], []byte("\n")) + 1
}
