package history

import (
	"context"
	"time"
)

// Build is one completed build session as recorded in the store.
type Build struct {
	Name         string    `json:"name"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	ExitCode     int       `json:"exit_code"`
	DurationMin  float64   `json:"duration_min"`
	Lines        int       `json:"lines"`
	WarningLines int       `json:"warning_lines"`
	ErrorLines   int       `json:"error_lines"`
	LogPath      string    `json:"log_path"`
}

// Succeeded reports whether the wrapped command exited zero.
func (b Build) Succeeded() bool { return b.ExitCode == 0 }

// Sink is a destination for build records. Implementations must be
// safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, b Build) error
}

// Querier reads back recorded builds, most recent first.
type Querier interface {
	Recent(ctx context.Context, limit int) ([]Build, error)
}

// Store combines write and read access over one backend.
type Store interface {
	Sink
	Querier
	Close() error
}
