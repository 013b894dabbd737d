package logging

import (
	"log/slog"
	"testing"
)

func TestInitValidLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			if err := Init(level); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if Get() == nil {
				t.Fatal("Get() returned nil")
			}
		})
	}
}

func TestInitInvalidLevel(t *testing.T) {
	if err := Init("verbose"); err == nil {
		t.Error("expected error for invalid log level, got nil")
	}
}

func TestGetBeforeInit(t *testing.T) {
	global = nil

	logger := Get()
	if logger == nil {
		t.Error("Get() should return a default logger when not initialized")
	}
	if logger != slog.Default() {
		t.Error("Get() should return slog.Default() when not initialized")
	}
}

func TestGetAfterInit(t *testing.T) {
	if err := Init("info"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Get() != global {
		t.Error("Get() should return the initialized logger")
	}
}
