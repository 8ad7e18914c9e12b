package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	testCases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"":        zapcore.InfoLevel,
		"WARNING": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
	}
	for level, expected := range testCases {
		logger, err := NewLogger(level, "json")
		if err != nil {
			t.Fatalf("level %q: %v", level, err)
		}
		if !logger.Core().Enabled(expected) {
			t.Fatalf("level %q: expected %v enabled", level, expected)
		}
		if expected > zapcore.DebugLevel && logger.Core().Enabled(expected-1) {
			t.Fatalf("level %q: expected %v disabled", level, expected-1)
		}
	}
}

func TestNewLoggerFormats(t *testing.T) {
	if _, err := NewLogger("info", "console"); err != nil {
		t.Fatalf("console: %v", err)
	}
	if _, err := NewLogger("info", "xml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
