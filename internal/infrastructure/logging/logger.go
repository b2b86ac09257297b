// Package logging provides structured logging utilities.
//
// Text output is a compact console format:
// [LEVEL] [component] [HH:MM:SS] message key=value
// JSON output uses slog's JSON handler for log shippers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/eshaffer321/orderrecon/internal/infrastructure/config"
)

// ComponentKey is the attribute rendered as the bracketed component tag.
const ComponentKey = "component"

// ParseLevel maps a config level name onto a slog level. Unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a logger writing to stderr, keeping stdout free for
// command output.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	return New(os.Stderr, cfg)
}

// New creates a logger writing to w.
func New(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(NewConsoleHandler(w, opts))
}

// NewComponentLogger scopes a logger to one component, e.g. "api" or "engine".
func NewComponentLogger(cfg config.LoggingConfig, component string) *slog.Logger {
	return NewLogger(cfg).With(ComponentKey, component)
}
