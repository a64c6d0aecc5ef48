package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marrusl/yoinkc/internal/adapter"
	"github.com/marrusl/yoinkc/internal/render/layout"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

// validateBuild implements --validate (spec §6/§7): build the rendered
// Containerfile through the host container runtime and surface
// failures without treating them as fatal to the overall run — the
// recipe is a starting point, not a finished product, so a failed
// validation build is reported but does not change the process's exit
// code on its own.
func validateBuild(ctx context.Context, cfg config) error {
	tag := "localhost/yoinkc-validate:latest"
	runner := adapter.Exec{}
	out, err := runner.Run(ctx, "podman", "build", "-f", layout.Join(cfg.OutputDir, layout.Containerfile), "-t", tag, cfg.OutputDir)
	if err != nil {
		if ee, ok := err.(*adapter.ExitError); ok {
			return &snapshot.Error{
				Op:      "validate",
				Kind:    snapshot.ErrInvalid,
				Message: fmt.Sprintf("podman build failed: %s", firstLines(ee.Stderr, 20)),
				Inner:   err,
			}
		}
		return fmt.Errorf("running podman build: %w", err)
	}
	slog.InfoContext(ctx, "validation build succeeded", "tag", tag, "output_bytes", len(out))
	return nil
}

func firstLines(b []byte, n int) string {
	count := 0
	for i, c := range b {
		if c == '\n' {
			count++
			if count == n {
				return string(b[:i])
			}
		}
	}
	return string(b)
}
