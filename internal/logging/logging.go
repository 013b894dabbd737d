// Package logging wraps log/slog with a package-level default configured
// once at startup from a level name.
package logging

import (
	"fmt"
	"log/slog"
	"os"
)

var global *slog.Logger

// Init configures the package-level logger for the given level
// ("debug"|"info"|"warn"|"error") and installs it as slog's default.
func Init(level string) error {
	var slogLevel slog.Level

	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevel,
	})

	global = slog.New(handler)
	slog.SetDefault(global)

	return nil
}

// Get returns the configured logger, or slog's default if Init was never
// called.
func Get() *slog.Logger {
	if global == nil {
		return slog.Default()
	}
	return global
}
