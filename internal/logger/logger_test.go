package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewStderrOnly(t *testing.T) {
	log := New(Config{})
	if log == nil {
		t.Fatalf("expected logger")
	}
	ctx := context.Background()
	if !log.Enabled(ctx, slog.LevelInfo) {
		t.Fatalf("info should be enabled by default")
	}
	if log.Enabled(ctx, slog.LevelDebug) {
		t.Fatalf("debug should be disabled by default")
	}
}

func TestNewFileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.log")
	log := New(Config{File: path, Level: "debug"})
	log.Debug("hello", "k", "v")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("diagnostics file not created: %v", err)
	}
	if !strings.Contains(string(b), "hello") {
		t.Fatalf("message not written: %q", b)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWriterDefaults(t *testing.T) {
	c := Config{File: "x.log"}
	w := c.writer()
	if w == nil {
		t.Fatalf("expected writer")
	}
}
