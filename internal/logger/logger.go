package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON logger on stdout with level from string.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stdout, level, false)
}

// NewWithWriter returns a logger writing to w. Text output is used by the
// CLI, where a human reads the log on stderr.
func NewWithWriter(w io.Writer, level string, text bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if text {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
