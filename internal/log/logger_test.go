package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/oneway/internal/errors"
)

func newBufferLogger(level Level, format Format) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Format: format, Output: &buf, ServiceName: "oneway"}), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew_JSONIncludesService(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, FormatJSON)
	logger.Info("hello", "key", "value")

	entry := decodeLine(t, buf)
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry["service"] != "oneway" {
		t.Errorf("service = %v, want oneway", entry["service"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
}

func TestNew_TextFormat(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, FormatText)
	logger.Info("token rotated")

	if !strings.Contains(buf.String(), "msg=\"token rotated\"") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn, FormatJSON)

	logger.Debug("debug")
	logger.Info("info")
	if buf.Len() != 0 {
		t.Fatalf("expected debug/info to be filtered, got %q", buf.String())
	}

	logger.Warn("warn")
	if !strings.Contains(buf.String(), "warn") {
		t.Errorf("expected warn to be logged, got %q", buf.String())
	}

	if logger.Enabled(context.Background(), LevelInfo) {
		t.Error("info should not be enabled at warn level")
	}
	if !logger.Enabled(context.Background(), LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestWithError_CodedError(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, FormatJSON)

	err := errors.Wrap(errors.ErrCodeStoreWrite, "write failed", fmt.Errorf("disk full")).
		WithSuggestion("free some space")
	logger.WithError(err).Info("store")

	entry := decodeLine(t, buf)
	if entry["error_code"] != "STORE-002" {
		t.Errorf("error_code = %v, want STORE-002", entry["error_code"])
	}
	if entry["error"] != "write failed" {
		t.Errorf("error = %v, want 'write failed'", entry["error"])
	}
	if entry["cause"] != "disk full" {
		t.Errorf("cause = %v, want 'disk full'", entry["cause"])
	}
}

func TestWithError_PlainAndNil(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, FormatJSON)

	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}

	logger.WithError(fmt.Errorf("boom")).Info("plain")
	entry := decodeLine(t, buf)
	if entry["error"] != "boom" {
		t.Errorf("error = %v, want boom", entry["error"])
	}
	if _, ok := entry["error_code"]; ok {
		t.Error("plain errors should not carry error_code")
	}
}

func TestLogError(t *testing.T) {
	logger, buf := newBufferLogger(LevelError, FormatJSON)

	logger.LogError(context.Background(), "ignored", nil)
	if buf.Len() != 0 {
		t.Fatalf("nil error should not log, got %q", buf.String())
	}

	logger.LogError(context.Background(), "welcome call failed", errors.NewStatusError("/welcome", 401))
	entry := decodeLine(t, buf)
	if entry["msg"] != "welcome call failed" || entry["error_code"] != "REST-001" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestWithGroup(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, FormatJSON)
	logger.WithGroup("gateway").Info("sent", "operation", "login")

	entry := decodeLine(t, buf)
	group, ok := entry["gateway"].(map[string]any)
	if !ok {
		t.Fatalf("expected gateway group, got %v", entry)
	}
	if group["operation"] != "login" {
		t.Errorf("operation = %v, want login", group["operation"])
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing")
	if logger.Enabled(context.Background(), LevelError) {
		t.Error("discard logger should report disabled")
	}
}
