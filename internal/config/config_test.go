package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Build.Command != DefaultCommand {
		t.Fatalf("command = %q, want %q", cfg.Build.Command, DefaultCommand)
	}
	if cfg.Build.AllArg != "--all" {
		t.Fatalf("all_arg = %q, want --all", cfg.Build.AllArg)
	}
	if cfg.Log.Dir != DefaultLogDir {
		t.Fatalf("log dir = %q, want %q", cfg.Log.Dir, DefaultLogDir)
	}
	if cfg.Build.Timeout != 0 {
		t.Fatalf("timeout should default to unbounded, got %v", cfg.Build.Timeout)
	}
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing explicit config path")
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
[build]
name = "docs"
command = "make html"
all_arg = "--clean"
workdir = "/srv/book"
env = ["PYTHONUNBUFFERED=1"]
timeout = "45m"

[log]
dir = "out/logs"
[log.diagnostics]
level = "debug"
file = "out/bookbuild.log"
max_size_mb = 5

[history]
dsn = "sqlite://history.db"

[server]
listen = ":9090"
base_path = "/status"

[git]
remote = "upstream"
branch = "gh-pages"
message = "Publish"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Build.Name != "docs" || cfg.Build.Command != "make html" || cfg.Build.AllArg != "--clean" {
		t.Fatalf("build section: %+v", cfg.Build)
	}
	if cfg.Build.Timeout != 45*time.Minute {
		t.Fatalf("timeout = %v, want 45m", cfg.Build.Timeout)
	}
	if cfg.Log.Dir != "out/logs" {
		t.Fatalf("log dir = %q", cfg.Log.Dir)
	}
	if cfg.Log.Diagnostics.Level != "debug" || cfg.Log.Diagnostics.File != "out/bookbuild.log" || cfg.Log.Diagnostics.MaxSizeMB != 5 {
		t.Fatalf("diagnostics: %+v", cfg.Log.Diagnostics)
	}
	if cfg.History.DSN != "sqlite://history.db" {
		t.Fatalf("history dsn = %q", cfg.History.DSN)
	}
	if cfg.Server.Listen != ":9090" || cfg.Server.BasePath != "/status" {
		t.Fatalf("server: %+v", cfg.Server)
	}
	if cfg.Git.Remote != "upstream" || cfg.Git.Branch != "gh-pages" || cfg.Git.Message != "Publish" {
		t.Fatalf("git: %+v", cfg.Git)
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[build]
command = "mkdocs build"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Build.Command != "mkdocs build" {
		t.Fatalf("command = %q", cfg.Build.Command)
	}
	if cfg.Build.AllArg != "--all" {
		t.Fatalf("all_arg default lost: %q", cfg.Build.AllArg)
	}
	if cfg.Log.Dir != DefaultLogDir {
		t.Fatalf("log dir default lost: %q", cfg.Log.Dir)
	}
	if cfg.Git.Remote != "origin" {
		t.Fatalf("git remote default lost: %q", cfg.Git.Remote)
	}
}

func TestSpecConversion(t *testing.T) {
	path := writeConfig(t, `
[build]
name = "docs"
command = "make html"
timeout = "10s"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	spec := cfg.Spec()
	if spec.Name != "docs" || spec.Command != "make html" || spec.Timeout != 10*time.Second {
		t.Fatalf("spec: %+v", spec)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := writeConfig(t, "[build\ncommand=")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
