package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNewHandlerFormats(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newHandler(&buf, "text", nil)).Info("hello", "key", "value")
	if !strings.Contains(buf.String(), "key=value") {
		t.Errorf("expected text output, got %s", buf.String())
	}

	buf.Reset()
	slog.New(newHandler(&buf, "json", nil)).Info("hello", "key", "value")
	if !strings.Contains(buf.String(), `"key":"value"`) {
		t.Errorf("expected JSON output, got %s", buf.String())
	}
}

func TestNewWritesToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testimonials.log")

	logger, closer := New(Options{Level: "info", Format: "json", File: path})
	logger.Info("testimonial saved", "url", "https://host/abc.mp4")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "https://host/abc.mp4") {
		t.Errorf("expected record in log file, got %s", data)
	}
}

func TestNewWithoutFile(t *testing.T) {
	logger, closer := New(Options{Level: "error"})
	if logger == nil {
		t.Fatal("expected logger")
	}
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info to be disabled at error level")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("expected no-op close, got %v", err)
	}
}
