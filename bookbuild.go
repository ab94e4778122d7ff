package bookbuild

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/bookbuild/internal/buildlog"
	cfg "github.com/loykin/bookbuild/internal/config"
	"github.com/loykin/bookbuild/internal/gitseq"
	"github.com/loykin/bookbuild/internal/history"
	"github.com/loykin/bookbuild/internal/history/factory"
	"github.com/loykin/bookbuild/internal/logger"
	"github.com/loykin/bookbuild/internal/metrics"
	"github.com/loykin/bookbuild/internal/runner"
	"github.com/loykin/bookbuild/internal/server"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Spec = runner.Spec

type Result = runner.Result

type SpawnError = runner.SpawnError

type Record = buildlog.Record

type Level = buildlog.Level

type Classifier = buildlog.Classifier

type Runner = runner.Runner

type Build = history.Build

type HistoryStore = history.Store

type Config = cfg.Config

type LoggerConfig = logger.Config

type Sequence = gitseq.Sequence

// NewRunner returns a Runner with default clock, classifier and
// console, ready for embedding.
func NewRunner() *Runner { return runner.New() }

// Run executes one build session with defaults: spawn the wrapped
// command, mirror its annotated output to the dated log file under
// logDir and to stdout, and return the child's exit code in Result.
func Run(ctx context.Context, spec Spec, logDir string, rebuildAll bool) (Result, error) {
	return runner.New().Run(ctx, spec, logDir, rebuildAll)
}

// LoadConfig reads a TOML config file; an empty path yields defaults.
func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// NewLogger builds the launcher diagnostics logger.
func NewLogger(c LoggerConfig) *slog.Logger { return logger.New(c) }

// NewHistoryStore opens a build history store from a DSN
// (sqlite:// or postgres://).
func NewHistoryStore(dsn string) (HistoryStore, error) { return factory.NewStoreFromDSN(dsn) }

// RegisterMetricsDefault registers build metrics with the default
// Prometheus registry.
func RegisterMetricsDefault() error { return metrics.Register(prometheus.DefaultRegisterer) }

// NewHTTPServer starts the read-only history/metrics server.
func NewHTTPServer(addr, basePath string, store history.Querier) (*http.Server, error) {
	return server.NewServer(addr, basePath, store)
}
