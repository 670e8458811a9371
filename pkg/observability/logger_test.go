package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"nonsense", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	return entry
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("partner_id", 10).Info("visibility updated")

	entry := decodeLogLine(t, &buf)
	if entry["msg"] != "visibility updated" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["partner_id"] != float64(10) {
		t.Errorf("partner_id = %v", entry["partner_id"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Info("should be suppressed")
	if buf.Len() != 0 {
		t.Errorf("info line leaked through warn level: %q", buf.String())
	}

	logger.Warn("should appear")
	if buf.Len() == 0 {
		t.Error("warn line missing")
	}
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(ErrorLevel, &buf)

	logger.WithError(errors.New("db down")).Error("lookup failed")

	entry := decodeLogLine(t, &buf)
	if entry["error"] != "db down" {
		t.Errorf("error field = %v", entry["error"])
	}
}

func TestLogger_WithErrorNil(t *testing.T) {
	logger := NopLogger()
	if got := logger.WithError(nil); got != logger {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithFields(map[string]interface{}{
		"tenant_id":  1,
		"partner_id": 10,
	}).Info("listed engineers")

	entry := decodeLogLine(t, &buf)
	if entry["tenant_id"] != float64(1) || entry["partner_id"] != float64(10) {
		t.Errorf("fields missing: %v", entry)
	}
}
