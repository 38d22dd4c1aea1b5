package logging

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level %s, got %s", LevelInfo, cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("Expected default format %s, got %s", FormatText, cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("Expected default output stderr, got %s", cfg.Output)
	}
}

func TestNewWithInvalidLevel(t *testing.T) {
	logger, err := New(Config{Level: "bogus", Format: FormatText, Output: "stderr"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("New returned nil logger")
	}
}

func TestNewWithFileOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "nmapfusion.log")

	logger, err := New(Config{Level: LevelDebug, Format: FormatJSON, Output: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello")
}

func TestWriterLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, DefaultConfig())

	logger.WithComponent("fusion").Info("merged host", "ip", "10.0.0.1")

	out := buf.String()
	for _, want := range []string{"merged host", "component=fusion", "ip=10.0.0.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestWarnParse(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, DefaultConfig())

	logger.WarnParse("skipping file", "scans/broken.xml", fmt.Errorf("unexpected EOF"))

	out := buf.String()
	if !strings.Contains(out, "scans/broken.xml") {
		t.Errorf("log output missing file: %s", out)
	}
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("parse failures should log at warn level: %s", out)
	}
}

func TestDefaultLoggerReplacement(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer
	SetDefault(NewWriter(&buf, DefaultConfig()))

	Info("through package helper")
	if !strings.Contains(buf.String(), "through package helper") {
		t.Error("package-level Info should use the replaced default logger")
	}
}
