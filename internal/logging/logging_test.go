package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelDebug, "text", &buf)

	New("api").Info("dataset loaded", "rows", 6)

	out := buf.String()
	for _, want := range []string{"component=api", "dataset loaded", "rows=6"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelInfo, "json", &buf)

	New("registry").Info("ready")

	out := buf.String()
	if !strings.Contains(out, `"component":"registry"`) || !strings.Contains(out, `"level":"INFO"`) {
		t.Errorf("unexpected JSON output: %s", out)
	}
}

func TestSetupLevelGating(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup("warn", "text", &buf); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	New("gate").Info("hidden")
	New("gate").Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be suppressed at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn should be logged at warn level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
