package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("NewLogger writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "project", 42)

		if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "project=42") {
			t.Errorf("unexpected log output: %q", buf.String())
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "run", "abc")
		logger.Info("started")

		if !strings.Contains(buf.String(), "run=abc") {
			t.Errorf("expected run field in %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "glx.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		logger.Warn("to file")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "to file") {
			t.Errorf("log file missing entry: %q", string(data))
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		name    string
		level   string
		want    log.Level
		wantErr bool
	}{
		{name: "empty defaults to info", level: "", want: log.InfoLevel},
		{name: "debug", level: "debug", want: log.DebugLevel},
		{name: "warn", level: "warn", want: log.WarnLevel},
		{name: "unknown", level: "chatty", want: log.InfoLevel, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct IDs")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string of length 36, got %d", len(a))
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"id": 1}

	compact, err := MarshalJSON(v, false)
	if err != nil || string(compact) != `{"id":1}` {
		t.Errorf("MarshalJSON(compact) = %s, %v", compact, err)
	}

	pretty, err := MarshalJSON(v, true)
	if err != nil || string(pretty) != "{\n  \"id\": 1\n}" {
		t.Errorf("MarshalJSON(pretty) = %s, %v", pretty, err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
