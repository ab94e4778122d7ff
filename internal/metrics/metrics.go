package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	buildRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookbuild",
			Subsystem: "build",
			Name:      "runs_total",
			Help:      "Number of build sessions started.",
		}, []string{"name"},
	)
	buildFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookbuild",
			Subsystem: "build",
			Name:      "failures_total",
			Help:      "Number of build sessions whose wrapped command exited non-zero.",
		}, []string{"name"},
	)
	buildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookbuild",
			Subsystem: "build",
			Name:      "duration_minutes",
			Help:      "Total elapsed minutes per build session.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"name"},
	)
	outputLines = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookbuild",
			Subsystem: "build",
			Name:      "output_lines_total",
			Help:      "Captured child output lines by classified severity.",
		}, []string{"level"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{buildRuns, buildFailures, buildDuration, outputLines}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving Prometheus metrics for the
// DefaultGatherer. The caller wires the route.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers below no-op if Register hasn't been called.

func IncRun(name string) {
	if regOK.Load() {
		buildRuns.WithLabelValues(name).Inc()
	}
}

func IncFailure(name string) {
	if regOK.Load() {
		buildFailures.WithLabelValues(name).Inc()
	}
}

func ObserveDuration(name string, minutes float64) {
	if regOK.Load() {
		buildDuration.WithLabelValues(name).Observe(minutes)
	}
}

func IncOutputLine(level string) {
	if regOK.Load() {
		outputLines.WithLabelValues(level).Inc()
	}
}
