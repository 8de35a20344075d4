package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newJSONLogger(t *testing.T, level string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log entry %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"default config", DefaultConfig()},
		{"text format", Config{Level: "debug", Format: "text"}},
		{"console format", Config{Level: "info", Format: "console"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	l, buf := newJSONLogger(t, "debug")

	tests := []struct {
		name  string
		log   func(string, ...any)
		level string
	}{
		{"debug", l.Debug, "DEBUG"},
		{"info", l.Info, "INFO"},
		{"warn", l.Warn, "WARN"},
		{"error", l.Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log("login checked", "surface", "nordlys")

			entry := decodeEntry(t, buf)
			if entry["msg"] != "login checked" {
				t.Errorf("msg = %v", entry["msg"])
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["surface"] != "nordlys" {
				t.Errorf("surface = %v", entry["surface"])
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	l, buf := newJSONLogger(t, "info")

	l.With("component", "gate").Info("ready")

	if got := decodeEntry(t, buf)["component"]; got != "gate" {
		t.Errorf("component = %v, want gate", got)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newJSONLogger(t, "warn")

	l.Debug("debug message")
	l.Info("info message")
	if buf.Len() > 0 {
		t.Errorf("debug/info logged at warn level: %s", buf.String())
	}

	l.Warn("warn message")
	if buf.Len() == 0 {
		t.Error("warn message was filtered")
	}
}

func TestSetLevel(t *testing.T) {
	l, buf := newJSONLogger(t, "error")

	l.Info("before")
	if buf.Len() > 0 {
		t.Error("info logged at error level")
	}

	SetLevel("debug")
	l.Info("after")
	if buf.Len() == 0 {
		t.Error("info filtered after SetLevel(debug)")
	}
	if got := GetLevel(); got != "debug" {
		t.Errorf("GetLevel() = %q, want debug", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "debug"},
		{"DEBUG", "debug"},
		{" info ", "info"},
		{"warn", "warn"},
		{"warning", "warn"},
		{"Error", "error"},
		{"verbose", "info"},
		{"", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			SetLevel(tt.input)
			if got := GetLevel(); got != tt.want {
				t.Errorf("SetLevel(%q); GetLevel() = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	l := Default()
	if l == nil {
		t.Fatal("Default() returned nil")
	}
	l.Info("default logger works")
}

func TestPackageLevelFunctions(t *testing.T) {
	l, buf := newJSONLogger(t, "debug")
	prev := Default()
	SetDefault(l)
	t.Cleanup(func() { SetDefault(prev) })

	tests := []struct {
		name string
		log  func(string, ...any)
	}{
		{"Debug", Debug},
		{"Info", Info},
		{"Warn", Warn},
		{"Error", Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log("package level")
			if buf.Len() == 0 {
				t.Errorf("%s() produced no output", tt.name)
			}
		})
	}
}

func TestLogger_WithContext(t *testing.T) {
	l, buf := newJSONLogger(t, "info")

	l.WithContext(context.Background()).Info("with context")
	if buf.Len() == 0 {
		t.Error("expected log output")
	}
}

func TestSlog(t *testing.T) {
	l, buf := newJSONLogger(t, "info")

	Slog(l).Info("from slog", "password", "hunter2")

	entry := decodeEntry(t, buf)
	if entry["password"] != redactedValue {
		t.Errorf("password = %v, want redacted", entry["password"])
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Format != "json" {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if cfg.Output == nil {
		t.Error("DefaultConfig().Output is nil")
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("listening", "addr", "127.0.0.1:8080")

	out := buf.String()
	if !strings.Contains(out, "listening") || !strings.Contains(out, "addr=127.0.0.1:8080") {
		t.Errorf("text output = %q", out)
	}
}

func TestNewFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gatekeep.log")
	w := NewFileWriter(FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 1})

	l, err := New(Config{Level: "info", Format: "json", Output: w})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Info("to file")
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"msg":"to file"`) {
		t.Errorf("file content = %q", data)
	}
}
