package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: "json"}, "walletd", buf)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid json log line %q: %v", line, err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "invalid-level", Format: "json"}, "test", &buf)
	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("invalid level should fall back to info")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("expected info message")
	}
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info").WithComponent("manager")

	l.Info("wallet connected", WalletFields("injected", "0xaa"), Fields(FieldChainID, 146))

	m := decodeLine(t, &buf)
	if m["message"] != "wallet connected" {
		t.Errorf("unexpected message %v", m["message"])
	}
	if m[FieldComponent] != "manager" {
		t.Errorf("expected component field, got %v", m[FieldComponent])
	}
	if m[FieldService] != "walletd" {
		t.Errorf("expected service field, got %v", m[FieldService])
	}
	if m[FieldKind] != "injected" || m[FieldAddress] != "0xaa" {
		t.Errorf("expected wallet fields, got %v", m)
	}
	if m[FieldChainID] != float64(146) {
		t.Errorf("expected chain id 146, got %v", m[FieldChainID])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "warn")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Error("expected warn message")
	}
}

func TestWithContextWithoutSpan(t *testing.T) {
	l := NewDefault("test")
	if got := l.WithContext(context.Background()); got != l {
		t.Error("expected the same logger when no span is active")
	}
}

func TestWalletFieldsOmitsEmptyAddress(t *testing.T) {
	f := WalletFields("coinbase", "")
	if _, ok := f[FieldAddress]; ok {
		t.Error("expected no address key for empty address")
	}
}

func TestFields(t *testing.T) {
	f := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if len(f) != 2 {
		t.Errorf("expected 2 fields, got %v", f)
	}
	if f["a"] != 1 || f["b"] != "two" {
		t.Errorf("unexpected fields %v", f)
	}
}

func TestMergeWithError(t *testing.T) {
	f := MergeWithError(nil, errors.New("x"))
	if f[FieldError] != "x" {
		t.Errorf("expected error field, got %v", f)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"console", Config{Level: "debug", Format: "console"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != FormatConsole || cfg.Output != "stderr" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestGetCachesComponentLoggers(t *testing.T) {
	var buf bytes.Buffer
	Init("walletd", Config{Level: "info", Format: FormatJSON})
	global.Store(jsonLogger(&buf, "info"))
	registry.reset()

	first := Get("session")
	if Get("session") != first {
		t.Error("expected the cached logger on the second call")
	}
	first.Info("saved")
	if m := decodeLine(t, &buf); m[FieldComponent] != "session" {
		t.Errorf("expected component field, got %v", m[FieldComponent])
	}

	Init("walletd", Config{Level: "warn", Format: FormatJSON})
	if Get("session") == first {
		t.Error("expected Init to drop cached loggers")
	}
}
