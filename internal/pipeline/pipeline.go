// Package pipeline runs the inspector fan-out described in spec §4.2 and
// §5: inspectors are plugin-like values implementing [Inspector],
// registered as a static list (no dynamic loading), each contributing a
// disjoint section of a shared [snapshot.Snapshot]. The baseline must be
// resolved before any inspector whose DependsOnBaseline is true runs;
// the redaction pass (internal/redact) runs after every inspector
// completes and before any renderer starts.
package pipeline

import (
	"context"
	"io/fs"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/marrusl/yoinkc/internal/snapshot"
	"github.com/marrusl/yoinkc/internal/telemetry"
)

var tracer = telemetry.Tracer("yoinkc/pipeline")

// Config carries the subset of CLI flags that change inspector
// behavior.
type Config struct {
	ConfigDiffs    bool // --config-diffs
	DeepBinaryScan bool // --deep-binary-scan
	QueryPodman    bool // --query-podman
}

// Context is the read-only view an inspector runs against: the host
// filesystem, shared config flags, the warnings sink, and the resolved
// baseline (valid only for inspectors with DependsOnBaseline true).
type Context struct {
	HostRoot string
	FS       fs.FS
	Config   Config
	Sink     *Sink
	Baseline snapshot.Baseline
}

// Inspector is one of the twelve collectors named in spec §2. An
// implementation must tolerate missing files/tools silently (emitting
// an info warning), must not write to the host, and must write only
// into the snapshot fields it owns.
type Inspector interface {
	Name() string
	DependsOnBaseline() bool
	Run(ctx context.Context, ictx *Context, snap *snapshot.Snapshot) error
}

// Run executes every registered inspector against snap. Inspectors with
// DependsOnBaseline()==false run concurrently with everything else;
// inspectors with DependsOnBaseline()==true only ever see a
// fully-resolved ictx.Baseline, which callers must set before invoking
// Run. A single inspector's hard failure is logged and converted into
// an error-severity warning rather than aborting the run (spec §7):
// Run itself only returns a non-nil error for a context cancellation.
func Run(ctx context.Context, ictx *Context, snap *snapshot.Snapshot, inspectors []Inspector) error {
	g, gctx := errgroup.WithContext(ctx)
	localSinks := make([]*Sink, len(inspectors))
	for idx, insp := range inspectors {
		idx, insp := idx, insp
		localSinks[idx] = &Sink{}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			spanCtx, span := tracer.Start(gctx, "inspector."+insp.Name())
			defer span.End()
			localCtx := *ictx
			localCtx.Sink = localSinks[idx]
			if err := insp.Run(spanCtx, &localCtx, snap); err != nil {
				slog.ErrorContext(gctx, "inspector failed", "inspector", insp.Name(), "error", err)
				localSinks[idx].Errorf(insp.Name(), "", "inspector failed: %v", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// Merge in inspectors' registration order, not goroutine-completion
	// order, so warnings and secrets-review entries land in spec §5's
	// (inspector, first-discovery index) order deterministically.
	for _, s := range localSinks {
		ictx.Sink.merge(s)
	}
	return nil
}
