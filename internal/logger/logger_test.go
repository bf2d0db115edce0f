package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/dbsmedya/featsync/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"bogus", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	log, err := New(&config.LoggingConfig{Level: "debug", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if log == nil {
		t.Fatal("New returned nil logger")
	}
}

func TestContextHelpers(t *testing.T) {
	log := NewDefault()

	if log.WithJob("nightly") == nil {
		t.Error("WithJob returned nil")
	}
	if log.WithRun("run-1") == nil {
		t.Error("WithRun returned nil")
	}
	if log.WithStore("source") == nil {
		t.Error("WithStore returned nil")
	}
}
