package buildlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FileName returns the dated log file name for a session start date.
// Two sessions started on the same calendar day share one file; a
// session crossing midnight keeps the file for its start day.
func FileName(date time.Time) string {
	return fmt.Sprintf("book_build_%s.log", date.Format("20060102"))
}

// Sink fans one Record out to the dated log file and the console, file
// first, so the two destinations never reorder relative to each other.
// When the file cannot be opened the sink degrades to console-only;
// logging failure must never abort the build it is observing.
type Sink struct {
	file    io.WriteCloser
	console io.Writer
	path    string
}

// Open creates dir (including parents) if absent and opens the dated
// file in append mode. Appends rely on O_APPEND so concurrent sessions
// writing whole lines do not corrupt each other. On any I/O failure
// the returned sink is console-only and the error is reported for
// diagnostics; the sink itself is always usable.
func Open(dir string, date time.Time, console io.Writer) (*Sink, error) {
	s := &Sink{console: console}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return s, fmt.Errorf("create log dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName(date))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640) // #nosec G304
	if err != nil {
		return s, fmt.Errorf("open log file %s: %w", path, err)
	}
	s.file = f
	s.path = path
	return s, nil
}

// Write appends one formatted record to the file, then the console.
func (s *Sink) Write(r Record) {
	line := r.Format()
	if s.file != nil {
		if _, err := fmt.Fprintln(s.file, line); err != nil {
			// Mid-session write failure: drop the file, keep the console.
			_ = s.file.Close()
			s.file = nil
		}
	}
	if s.console != nil {
		_, _ = fmt.Fprintln(s.console, line)
	}
}

// FileBacked reports whether records still reach the dated file.
func (s *Sink) FileBacked() bool { return s.file != nil }

// Path returns the dated file path, empty when console-only.
func (s *Sink) Path() string { return s.path }

func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
