package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/loykin/bookbuild/internal/history"
)

// Store keeps build history in a SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite history store.
// DSN format:
//   - "sqlite:///path/to/file.db"
//   - "sqlite://:memory:"
//   - "/path/to/file.db" (without prefix)
//   - ":memory:" (in-memory database)
func New(dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty SQLite DSN")
	}

	if strings.HasPrefix(strings.ToLower(dsn), "sqlite://") {
		dsn = strings.TrimPrefix(dsn, "sqlite://")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS build_history(
		name TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		exit_code INTEGER NOT NULL,
		duration_min REAL NOT NULL,
		lines INTEGER NOT NULL,
		warning_lines INTEGER NOT NULL,
		error_lines INTEGER NOT NULL,
		log_path TEXT
	);`
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

func (s *Store) Send(ctx context.Context, b history.Build) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO build_history(name, started_at, finished_at, exit_code, duration_min, lines, warning_lines, error_lines, log_path)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		b.Name, b.StartedAt.UTC(), b.FinishedAt.UTC(), b.ExitCode, b.DurationMin, b.Lines, b.WarningLines, b.ErrorLines, b.LogPath)
	return err
}

func (s *Store) Recent(ctx context.Context, limit int) ([]history.Build, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, started_at, finished_at, exit_code, duration_min, lines, warning_lines, error_lines, log_path
		FROM build_history ORDER BY started_at DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []history.Build
	for rows.Next() {
		var b history.Build
		if err := rows.Scan(&b.Name, &b.StartedAt, &b.FinishedAt, &b.ExitCode, &b.DurationMin, &b.Lines, &b.WarningLines, &b.ErrorLines, &b.LogPath); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
