package log

import (
	"log/slog"
	"os"
)

// Format selects the on-disk shape of log lines written to stderr.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Init installs the process-wide [slog.Default] logger, wrapped with
// [WrapHandler] so that context-scoped attributes attached with [With]
// show up on every record regardless of which package emitted it.
func Init(format Format, level slog.Level) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch format {
	case FormatJSON:
		h = slog.NewJSONHandler(os.Stderr, opts)
	default:
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(WrapHandler(h)))
}
