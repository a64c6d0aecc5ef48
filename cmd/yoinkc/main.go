// Command yoinkc inspects a live RHEL/CentOS/Fedora host and renders a
// reproducible bootc build recipe from what it finds.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	ylog "github.com/marrusl/yoinkc/internal/log"
	"github.com/marrusl/yoinkc/internal/snapshot"
	"github.com/marrusl/yoinkc/internal/telemetry"
)

// config carries every flag in the §6 option table.
type config struct {
	OutputDir      string
	HostRoot       string
	FromSnapshot   string
	InspectOnly    bool
	TargetVersion  string
	TargetImage    string
	BaselinePkgs   string
	ConfigDiffs    bool
	DeepBinaryScan bool
	QueryPodman    bool
	Validate       bool
	PushToGithub   string
	Public         bool
	Yes            bool
	SkipPreflight  bool
	LogFormat      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	ylog.Init(ylog.Format(cfg.LogFormat), slog.LevelInfo)

	if err := run(ctx, cfg); err != nil {
		slog.ErrorContext(ctx, "yoinkc failed", "error", err)
		os.Exit(exitCodeFor(err))
	}
}

func parseFlags(args []string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("yoinkc", flag.ExitOnError)
	fs.StringVar(&cfg.OutputDir, "output-dir", "", "directory to write all artifacts into (created if missing)")
	fs.StringVar(&cfg.HostRoot, "host-root", "/host", "path at which the host root is mounted")
	fs.StringVar(&cfg.FromSnapshot, "from-snapshot", "", "load a previously sealed snapshot from file; skip inspection")
	fs.BoolVar(&cfg.InspectOnly, "inspect-only", false, "run inspection and seal the snapshot; skip renderers")
	fs.StringVar(&cfg.TargetVersion, "target-version", "", "override the auto-detected base image version")
	fs.StringVar(&cfg.TargetImage, "target-image", "", "override the base image reference entirely")
	fs.StringVar(&cfg.BaselinePkgs, "baseline-packages", "", "path to an externally supplied package-name list (air-gapped mode)")
	fs.BoolVar(&cfg.ConfigDiffs, "config-diffs", false, "diff modified owned configs against package-shipped originals")
	fs.BoolVar(&cfg.DeepBinaryScan, "deep-binary-scan", false, "enable full-binary string scanning in the non-package inspector")
	fs.BoolVar(&cfg.QueryPodman, "query-podman", false, "enumerate live containers through the host container runtime")
	fs.BoolVar(&cfg.Validate, "validate", false, "after rendering, build the recipe through the host container runtime")
	fs.StringVar(&cfg.PushToGithub, "push-to-github", "", "push the output directory to owner/repo (triggers a second redaction pass and confirmation)")
	fs.BoolVar(&cfg.Public, "public", false, "create a new remote repository as public (default private)")
	fs.BoolVar(&cfg.Yes, "yes", false, "skip interactive confirmation")
	fs.BoolVar(&cfg.SkipPreflight, "skip-preflight", false, "bypass the privilege probe")
	fs.StringVar(&cfg.LogFormat, "log-format", "text", "log output format: text or json")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.OutputDir == "" {
		fs.Usage()
		return cfg, fmt.Errorf("yoinkc: -output-dir is required")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config) error {
	shutdown, err := telemetry.Init(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	snap, err := loadOrInspect(ctx, cfg)
	if err != nil {
		return err
	}
	if cfg.InspectOnly {
		return nil
	}

	if err := renderAll(snap, cfg); err != nil {
		return fmt.Errorf("rendering artifacts: %w", err)
	}

	if cfg.Validate {
		if err := validateBuild(ctx, cfg); err != nil {
			slog.ErrorContext(ctx, "build validation failed", "error", err)
		}
	}

	if cfg.PushToGithub != "" {
		if err := pushBundle(ctx, snap, cfg); err != nil {
			return fmt.Errorf("pushing to github: %w", err)
		}
	}
	return nil
}

// exitCodeFor maps the error-kind taxonomy in spec §7 onto the
// process's exit status: everything fatal is a non-zero code, but the
// specific value only matters for scripts that want to distinguish a
// precondition failure (e.g. re-run with --skip-preflight) from a
// conflict (residual secrets: never safe to retry blindly).
func exitCodeFor(err error) int {
	var se *snapshot.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case snapshot.ErrPrecondition:
			return 3
		case snapshot.ErrConflict:
			return 4
		case snapshot.ErrInvalid:
			return 5
		}
	}
	return 1
}
