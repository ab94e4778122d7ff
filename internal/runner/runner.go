package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/loykin/bookbuild/internal/buildlog"
	"github.com/loykin/bookbuild/internal/history"
	"github.com/loykin/bookbuild/internal/metrics"
)

// SpawnError reports that the wrapped command could not be started at
// all (not found, not executable). Distinct from the child running and
// exiting non-zero, which is reported through Result.ExitCode.
type SpawnError struct {
	Cmd string
	Err error
}

func (e *SpawnError) Error() string { return fmt.Sprintf("spawn %s: %v", e.Cmd, e.Err) }
func (e *SpawnError) Unwrap() error { return e.Err }

// Result summarizes one completed build session.
type Result struct {
	ExitCode     int       `json:"exit_code"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	ElapsedMin   float64   `json:"elapsed_min"`
	Lines        int       `json:"lines"`
	WarningLines int       `json:"warning_lines"`
	ErrorLines   int       `json:"error_lines"`
	LogPath      string    `json:"log_path"` // empty when the session degraded to console-only
}

// Runner supervises one wrapped build command per Run call. A Runner
// holds no per-session state, so a single value may serve sequential
// runs; each Run gets its own session and sink.
type Runner struct {
	Clock    func() time.Time    // defaults to time.Now
	Classify buildlog.Classifier // defaults to buildlog.DefaultClassifier
	Console  io.Writer           // defaults to os.Stdout
	Logger   *slog.Logger        // launcher diagnostics; defaults to slog.Default
	History  history.Sink        // optional build history sink
}

func New() *Runner { return &Runner{} }

func (r *Runner) clock() func() time.Time {
	if r.Clock != nil {
		return r.Clock
	}
	return time.Now
}

func (r *Runner) classify() buildlog.Classifier {
	if r.Classify != nil {
		return r.Classify
	}
	return buildlog.DefaultClassifier
}

func (r *Runner) console() io.Writer {
	if r.Console != nil {
		return r.Console
	}
	return os.Stdout
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Run executes the wrapped command described by spec, mirrors its
// merged stdout/stderr to the dated log file in logDir and the
// console, and returns the child's exit code unchanged. The returned
// error is non-nil only when the command could not be spawned; a child
// that ran and failed is not an error of the runner.
func (r *Runner) Run(ctx context.Context, spec Spec, logDir string, rebuildAll bool) (Result, error) {
	clock := r.clock()
	classify := r.classify()
	log := r.logger()

	start := clock()
	res := Result{StartedAt: start}

	sink, err := buildlog.Open(logDir, start, r.console())
	if err != nil {
		// Console-only from here on; never fatal to the build.
		log.Warn("build log unavailable, continuing console-only", "error", err)
	}
	defer func() { _ = sink.Close() }()
	res.LogPath = sink.Path()

	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := spec.BuildCommand(ctx, rebuildAll)
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	log.Info("starting build", "name", spec.name(), "cmd", strings.Join(cmd.Args, " "), "rebuild_all", rebuildAll)

	// Merge stderr into stdout so lines arrive in the order the child
	// emitted them, as one single-pass stream.
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return res, &SpawnError{Cmd: cmd.Args[0], Err: err}
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return res, &SpawnError{Cmd: cmd.Args[0], Err: err}
	}

	sc := bufio.NewScanner(pipe)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		now := clock()
		rec := buildlog.Record{
			Timestamp:  now,
			ElapsedMin: buildlog.Elapsed(start, now),
			Level:      classify(line),
			Message:    line,
		}
		sink.Write(rec)
		res.Lines++
		switch rec.Level {
		case buildlog.LevelWarning:
			res.WarningLines++
		case buildlog.LevelError:
			res.ErrorLines++
		}
		metrics.IncOutputLine(string(rec.Level))
	}
	if err := sc.Err(); err != nil {
		log.Warn("reading build output, remaining output discarded", "error", err)
	}
	// A scanner error (an over-long line, a read failure) leaves data in
	// the pipe; the child would block writing into it and Wait would
	// never return. Drain whatever is left before waiting.
	_, _ = io.Copy(io.Discard, pipe)

	werr := cmd.Wait()
	finished := clock()
	res.FinishedAt = finished
	res.ElapsedMin = buildlog.Elapsed(start, finished)
	res.ExitCode = exitCode(werr)

	summary := buildlog.Record{
		Timestamp:  finished,
		ElapsedMin: res.ElapsedMin,
		Level:      buildlog.LevelInfo,
		Message:    fmt.Sprintf("Build succeeded in %.3f min", res.ElapsedMin),
	}
	if res.ExitCode != 0 {
		summary.Level = buildlog.LevelError
		summary.Message = fmt.Sprintf("Build failed with exit code %d after %.3f min", res.ExitCode, res.ElapsedMin)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			summary.Message = fmt.Sprintf("Build timed out after %.3f min (limit %s)", res.ElapsedMin, spec.Timeout)
		}
	}
	sink.Write(summary)

	metrics.IncRun(spec.name())
	if res.ExitCode != 0 {
		metrics.IncFailure(spec.name())
	}
	metrics.ObserveDuration(spec.name(), res.ElapsedMin)

	r.record(ctx, spec, res)
	return res, nil
}

// record sends the session to the history sink. Failures are advisory
// and never alter the build outcome.
func (r *Runner) record(ctx context.Context, spec Spec, res Result) {
	if r.History == nil {
		return
	}
	// The run context may already be canceled (timeout); use a short
	// independent deadline for the insert.
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	b := history.Build{
		Name:         spec.name(),
		StartedAt:    res.StartedAt.UTC(),
		FinishedAt:   res.FinishedAt.UTC(),
		ExitCode:     res.ExitCode,
		DurationMin:  res.ElapsedMin,
		Lines:        res.Lines,
		WarningLines: res.WarningLines,
		ErrorLines:   res.ErrorLines,
		LogPath:      res.LogPath,
	}
	if err := r.History.Send(hctx, b); err != nil {
		r.logger().Warn("recording build history", "error", err)
	}
}

// exitCode maps cmd.Wait's error to the child's exit code. A child
// terminated by a signal has no code; report generic failure (1).
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if code := ee.ExitCode(); code >= 0 {
			return code
		}
	}
	return 1
}
