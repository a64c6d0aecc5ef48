package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/marrusl/yoinkc/internal/adapter"
	"github.com/marrusl/yoinkc/internal/baseline"
	"github.com/marrusl/yoinkc/internal/bridge"
	"github.com/marrusl/yoinkc/internal/hostinfo"
	"github.com/marrusl/yoinkc/internal/inspect/configs"
	"github.com/marrusl/yoinkc/internal/inspect/containers"
	"github.com/marrusl/yoinkc/internal/inspect/kernel"
	"github.com/marrusl/yoinkc/internal/inspect/network"
	"github.com/marrusl/yoinkc/internal/inspect/nonpackage"
	"github.com/marrusl/yoinkc/internal/inspect/packages"
	"github.com/marrusl/yoinkc/internal/inspect/scheduled"
	"github.com/marrusl/yoinkc/internal/inspect/security"
	"github.com/marrusl/yoinkc/internal/inspect/services"
	"github.com/marrusl/yoinkc/internal/inspect/storage"
	"github.com/marrusl/yoinkc/internal/inspect/users"
	"github.com/marrusl/yoinkc/internal/metrics"
	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/redact"
	"github.com/marrusl/yoinkc/internal/render/layout"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

// loadOrInspect implements the --from-snapshot short-circuit (spec §6):
// either load a previously sealed snapshot from disk, or run the full
// inspection pipeline and seal a new one.
func loadOrInspect(ctx context.Context, cfg config) (*snapshot.Snapshot, error) {
	if cfg.FromSnapshot != "" {
		return snapshot.Load(cfg.FromSnapshot)
	}
	return inspectHost(ctx, cfg)
}

func inspectHost(ctx context.Context, cfg config) (*snapshot.Snapshot, error) {
	hostFS := os.DirFS(cfg.HostRoot)
	now := time.Now()

	br := &bridge.Bridge{Runner: adapter.Exec{}}
	if !cfg.SkipPreflight {
		if _, err := br.Probe(ctx); err != nil {
			return nil, &snapshot.Error{Op: "inspect", Kind: snapshot.ErrPrecondition, Message: "privilege probe failed", Inner: err}
		}
	}
	runner := bridge.Runner{Bridge: br}

	sink := &pipeline.Sink{}
	host := hostinfo.Detect(hostFS, now)

	resolver := baseline.Resolver{
		Bridge: br,
		Podman: adapter.Podman{Runner: runner},
		Table:  baseline.DefaultTable(),
	}
	target, bl := resolver.Resolve(ctx, host, baseline.Options{
		TargetImageOverride:   cfg.TargetImage,
		TargetVersionOverride: cfg.TargetVersion,
		FallbackPackagesPath:  cfg.BaselinePkgs,
	}, sink)

	gate := redact.NewGate()
	ictx := &pipeline.Context{
		HostRoot: cfg.HostRoot,
		FS:       hostFS,
		Config: pipeline.Config{
			ConfigDiffs:    cfg.ConfigDiffs,
			DeepBinaryScan: cfg.DeepBinaryScan,
			QueryPodman:    cfg.QueryPodman,
		},
		Sink:     sink,
		Baseline: bl,
	}

	snap := &snapshot.Snapshot{Host: host, Target: target, Baseline: bl}

	inspectors := []pipeline.Inspector{
		packages.Inspector{Runner: runner, Gate: gate},
		services.Inspector{Runner: runner},
		configs.Inspector{Runner: runner, Gate: gate},
		network.Inspector{Gate: gate},
		storage.Inspector{},
		scheduled.Inspector{},
		containers.Inspector{},
		nonpackage.Inspector{Readelf: adapter.Readelf{Runner: runner}, File: adapter.File{Runner: runner}, Deep: cfg.DeepBinaryScan},
		kernel.Inspector{},
		security.Inspector{},
		users.Inspector{},
	}

	start := time.Now()
	if err := pipeline.Run(ctx, ictx, snap, inspectors); err != nil {
		return nil, fmt.Errorf("running inspectors: %w", err)
	}
	slog.InfoContext(ctx, "inspection complete", "duration", time.Since(start), "inspectors", len(inspectors))

	snap.Seal(sink.Warnings(), sink.SecretsReview())

	if err := snap.Save(layout.Join(cfg.OutputDir, layout.SnapshotJSON)); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	reg := metrics.New()
	reg.InspectorDuration.WithLabelValues("pipeline").Observe(time.Since(start).Seconds())
	reg.PackagesTotal.Set(float64(len(snap.Packages.Added) + len(snap.Packages.Unchanged)))
	for _, e := range sink.SecretsReview() {
		reg.Redactions.WithLabelValues(e.Class).Inc()
	}
	for _, w := range snap.Warnings {
		reg.Warnings.WithLabelValues(string(w.Severity)).Inc()
	}
	if err := reg.WriteTextfile(layout.Join(cfg.OutputDir, layout.MetricsTextfile)); err != nil {
		slog.WarnContext(ctx, "writing metrics textfile failed", "error", err)
	}

	return snap, nil
}
