package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		enable slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"warn level", "warn", slog.LevelWarn},
		{"warning alias", "WARNING", slog.LevelWarn},
		{"default info", "", slog.LevelInfo},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			if !logger.Enabled(ctx, tt.enable) {
				t.Fatalf("expected level %s to be enabled", tt.enable)
			}
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	logger := Default()
	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("Default() should enable info level")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Default() should not enable debug level")
	}
	if logger == Default() {
		t.Error("Default() returned the same instance twice")
	}
}

func TestWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", &buf).With("patient_id", "p-1")
	logger.Info("wizard created", "wizard_id", "w-1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["patient_id"] != "p-1" {
		t.Fatalf("patient_id = %v, want p-1", entry["patient_id"])
	}
	if entry["wizard_id"] != "w-1" {
		t.Fatalf("wizard_id = %v, want w-1", entry["wizard_id"])
	}
}

func TestWithOnNilLogger(t *testing.T) {
	var logger *Logger
	if child := logger.With("k", "v"); child == nil || child.Logger == nil {
		t.Fatal("With on nil logger should return a usable logger")
	}
}
