package pipeline

import (
	"sync"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

// Sink is the append-only warnings collector inspectors write into
// during the inspection phase (spec §5: "the only shared, mutable
// object"). [Run] gives each inspector its own private Sink so
// concurrent inspectors never interleave appends, then folds them
// together with merge once the whole fan-out has completed. Safe for
// concurrent Append from multiple goroutines regardless; must not be
// read until every inspector has returned.
type Sink struct {
	mu            sync.Mutex
	warnings      []snapshot.Warning
	secretsReview []snapshot.SecretsReviewEntry
}

// Append records a warning. Calls into a single Sink execute
// sequentially (a Sink is never shared between concurrently-running
// inspectors; [Run] gives each inspector its own, then merges them in
// registration order once every inspector has returned), so append
// order within one Sink is discovery order.
func (s *Sink) Append(w snapshot.Warning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, w)
}

// Infof is a convenience for the common "missing optional tool/file"
// case: an info-level, dismissible warning.
func (s *Sink) Infof(source, resource, format string, args ...any) {
	s.Append(snapshot.Warning{
		Severity:    snapshot.SeverityInfo,
		Source:      source,
		Resource:    resource,
		Message:     sprintf(format, args...),
		Dismissible: true,
	})
}

// Warnf records a warn-severity, dismissible warning.
func (s *Sink) Warnf(source, resource, format string, args ...any) {
	s.Append(snapshot.Warning{
		Severity:    snapshot.SeverityWarn,
		Source:      source,
		Resource:    resource,
		Message:     sprintf(format, args...),
		Dismissible: true,
	})
}

// Errorf records an error-severity warning. Inspectors never abort the
// pipeline (spec §7): this is how an inspector surfaces a serious,
// non-fatal problem.
func (s *Sink) Errorf(source, resource, format string, args ...any) {
	s.Append(snapshot.Warning{
		Severity: snapshot.SeverityError,
		Source:   source,
		Resource: resource,
		Message:  sprintf(format, args...),
	})
}

// Warnings returns a copy of the accumulated warnings, in append order.
// Call only after every inspector has returned.
func (s *Sink) Warnings() []snapshot.Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]snapshot.Warning, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// AppendSecretsReview records one or more redaction-gate entries. Every
// inspector that captures file content routes the gate's output here
// instead of collecting it itself, so the secrets review list reflects
// every redaction across the whole run (spec §4.4).
func (s *Sink) AppendSecretsReview(entries ...snapshot.SecretsReviewEntry) {
	if len(entries) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secretsReview = append(s.secretsReview, entries...)
}

// SecretsReview returns a copy of the accumulated secrets-review
// entries. Call only after every inspector has returned.
func (s *Sink) SecretsReview() []snapshot.SecretsReviewEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]snapshot.SecretsReviewEntry, len(s.secretsReview))
	copy(out, s.secretsReview)
	return out
}

// merge appends another Sink's accumulated entries onto s, in that
// Sink's own discovery order. Used by [Run] to fold each inspector's
// private Sink into the shared one, in inspector registration order,
// once the fan-out has completed — giving spec §5's (inspector,
// first-discovery index) ordering without ever letting two inspectors'
// appends interleave.
func (s *Sink) merge(other *Sink) {
	other.mu.Lock()
	warnings := append([]snapshot.Warning(nil), other.warnings...)
	secretsReview := append([]snapshot.SecretsReviewEntry(nil), other.secretsReview...)
	other.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, warnings...)
	s.secretsReview = append(s.secretsReview, secretsReview...)
}
