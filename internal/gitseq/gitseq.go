package gitseq

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ExecFunc runs one git step and returns its combined output. It is a
// field so tests can substitute commands.
type ExecFunc func(ctx context.Context, workdir string, argv ...string) (string, error)

// Sequence automates the quick-publish flow:
// pull -> build -> stage -> commit -> push. The first failing step
// aborts the remainder. A clean worktree after the build is a
// recognized terminal state, not a failure: commit and push are
// skipped and the sequence succeeds.
type Sequence struct {
	WorkDir string
	Remote  string
	Branch  string
	Message string
	Logger  *slog.Logger
	Build   func(ctx context.Context) error
	Exec    ExecFunc // defaults to running git via os/exec
}

func (s *Sequence) exec() ExecFunc {
	if s.Exec != nil {
		return s.Exec
	}
	return run
}

func (s *Sequence) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Run executes the sequence. The returned error is the first step's
// failure, wrapped with the step name.
func (s *Sequence) Run(ctx context.Context) error {
	ex := s.exec()
	log := s.logger()

	pull := []string{"git", "pull"}
	if s.Remote != "" {
		pull = append(pull, s.Remote)
		if s.Branch != "" {
			pull = append(pull, s.Branch)
		}
	}
	log.Info("pulling", "remote", s.Remote, "branch", s.Branch)
	if _, err := ex(ctx, s.WorkDir, pull...); err != nil {
		return fmt.Errorf("pull: %w", err)
	}

	if s.Build == nil {
		return fmt.Errorf("build step not configured")
	}
	if err := s.Build(ctx); err != nil {
		return fmt.Errorf("build: %w", err)
	}

	status, err := ex(ctx, s.WorkDir, "git", "status", "--porcelain")
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if strings.TrimSpace(status) == "" {
		log.Info("nothing to commit, skipping commit and push")
		return nil
	}

	if _, err := ex(ctx, s.WorkDir, "git", "add", "-A"); err != nil {
		return fmt.Errorf("stage: %w", err)
	}

	msg := s.Message
	if msg == "" {
		msg = "Update book"
	}
	out, err := ex(ctx, s.WorkDir, "git", "commit", "-m", msg)
	if err != nil {
		// A commit racing an identical upstream state can still find
		// nothing to record; treat that like the clean-worktree path.
		if strings.Contains(out, "nothing to commit") {
			log.Info("nothing to commit, skipping push")
			return nil
		}
		return fmt.Errorf("commit: %w", err)
	}

	push := []string{"git", "push"}
	if s.Remote != "" {
		push = append(push, s.Remote)
		if s.Branch != "" {
			push = append(push, s.Branch)
		}
	}
	log.Info("pushing", "remote", s.Remote, "branch", s.Branch)
	if _, err := ex(ctx, s.WorkDir, push...); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

func run(ctx context.Context, workdir string, argv ...string) (string, error) {
	// #nosec G204
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if workdir != "" {
		cmd.Dir = workdir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s: %w (%s)", strings.Join(argv, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
