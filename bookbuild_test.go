package bookbuild

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func requireUnix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func TestRunFacadeSuccess(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	spec := Spec{Name: "facade", Command: "sh -c 'echo Building...; echo Done'"}
	res, err := Run(context.Background(), spec, dir, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", res.ExitCode)
	}
	if res.Lines != 2 {
		t.Fatalf("expected 2 output lines, got %d", res.Lines)
	}
	if res.LogPath == "" {
		t.Fatalf("expected a log file path")
	}
	data, err := os.ReadFile(res.LogPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "Build succeeded") {
		t.Fatalf("missing summary line in log: %s", data)
	}
}

func TestRunFacadeChildFailurePassthrough(t *testing.T) {
	requireUnix(t)
	r := NewRunner()
	var console bytes.Buffer
	r.Console = &console
	res, err := r.Run(context.Background(), Spec{Name: "fail", Command: "sh -c 'exit 7'"}, t.TempDir(), false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 7 {
		t.Fatalf("expected exit 7, got %d", res.ExitCode)
	}
	if !strings.Contains(console.String(), "Build failed with exit code 7") {
		t.Fatalf("missing failure summary on console: %s", console.String())
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Build.Command == "" || cfg.Log.Dir == "" {
		t.Fatalf("expected defaulted config, got %+v", cfg)
	}
	sp := cfg.Spec()
	if sp.Command != cfg.Build.Command {
		t.Fatalf("spec conversion mismatch: %q vs %q", sp.Command, cfg.Build.Command)
	}
}

func TestHistoryStoreFacade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.db")
	st, err := NewHistoryStore("sqlite://" + path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = st.Close() }()
	b := Build{Name: "facade", StartedAt: time.Now().UTC(), FinishedAt: time.Now().UTC(), ExitCode: 0, DurationMin: 0.01, Lines: 3}
	if err := st.Send(context.Background(), b); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, err := st.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].Name != "facade" {
		t.Fatalf("unexpected history: %+v", got)
	}
}

func TestRegisterMetricsDefault(t *testing.T) {
	if err := RegisterMetricsDefault(); err != nil {
		t.Fatalf("register: %v", err)
	}
	// Second registration is tolerated.
	if err := RegisterMetricsDefault(); err != nil {
		t.Fatalf("re-register: %v", err)
	}
}
