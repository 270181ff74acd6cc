package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_FormatAutoDetection(t *testing.T) {
	var buf bytes.Buffer

	// Production defaults to JSON.
	log := New(Config{Writer: &buf, Environment: "production"})
	log.Info("hello", "key", "value")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output in production, got %q", buf.String())
	}

	// Development defaults to pretty.
	buf.Reset()
	log = New(Config{Writer: &buf, Environment: "development"})
	log.Info("hello", "key", "value")
	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected pretty output in development, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPrettyHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty"})

	log.Warn("invite sweep skipped", "community_id", "g1")

	out := buf.String()
	if !strings.Contains(out, "WARN") {
		t.Errorf("expected level in output, got %q", out)
	}
	if !strings.Contains(out, "invite sweep skipped") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "community_id=g1") {
		t.Errorf("expected attribute in output, got %q", out)
	}
}

func TestPrettyHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty", Level: slog.LevelWarn})

	log.Info("should be dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
	}

	log.Error("should be kept")
	if buf.Len() == 0 {
		t.Error("expected error to pass at warn level")
	}
}
