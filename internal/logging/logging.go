// Package logging configures the process-wide structured logger.
// reaperd draws on the terminal, so log output goes to a file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Setup opens the log file in append mode and returns a JSON logger
// writing to it, plus a closer for shutdown. An empty path discards
// all output. The returned logger also becomes the slog default so
// stray library logging lands in the file instead of the screen.
func Setup(path, level string) (*slog.Logger, func() error, error) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	if strings.TrimSpace(path) == "" {
		logger := slog.New(slog.NewJSONHandler(io.Discard, opts))
		slog.SetDefault(logger)
		return logger, func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: open log file: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(f, opts))
	slog.SetDefault(logger)
	return logger, f.Close, nil
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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
