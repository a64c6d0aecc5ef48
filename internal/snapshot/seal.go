package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Seal freezes the snapshot: it records the final warnings and
// secrets-review events (already accumulated by the redaction pass,
// and already in spec §5's (inspector, first-discovery index) order —
// pipeline.Run's Sink merge step is what establishes that order, Seal
// only carries it forward verbatim), sorts package lists into the
// stable, discovery-order-independent ordering spec §5 requires for
// build-cache determinism, and marks the snapshot read-only for
// renderers.
//
// Seal must only be called once the redaction pass has run to
// completion over every captured content blob; it does not redact
// anything itself.
func (s *Snapshot) Seal(warnings []Warning, secretsReview []SecretsReviewEntry) {
	s.Warnings = warnings
	s.SecretsReview = secretsReview
	sortPackages(s.Packages.Added)
	sortPackages(s.Packages.Removed)
	sortPackages(s.Packages.Unchanged)
	s.sealed = true
}

func sortPackages(pkgs []Package) {
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
}

// Save writes the sealed snapshot to path as indented JSON. Calling
// Save on an unsealed snapshot is a programmer error and returns an
// *Error with ErrPrecondition.
func (s *Snapshot) Save(path string) error {
	if !s.sealed {
		return &Error{Op: "snapshot.Save", Kind: ErrPrecondition, Message: "snapshot not sealed"}
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return &Error{Op: "snapshot.Save", Kind: ErrInternal, Inner: err}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return &Error{Op: "snapshot.Save", Kind: ErrInternal, Inner: err}
	}
	return nil
}

// Load reads a previously sealed snapshot from path, for re-render mode
// (--from-snapshot). The returned Snapshot reports IsSealed() true: a
// snapshot read back from disk was, by definition, sealed when written.
func Load(path string) (*Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Op: "snapshot.Load", Kind: ErrInvalid, Message: fmt.Sprintf("reading %s", path), Inner: err}
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, &Error{Op: "snapshot.Load", Kind: ErrInvalid, Message: "malformed snapshot JSON", Inner: err}
	}
	s.sealed = true
	return &s, nil
}
