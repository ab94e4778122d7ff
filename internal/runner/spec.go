package runner

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// Spec describes one wrapped build invocation.
type Spec struct {
	Name    string        `json:"name"`     // session name used in history and metrics (default "book")
	Command string        `json:"command"`  // command to run (shell string); used when Args is empty
	Args    []string      `json:"args"`     // explicit argv; takes precedence over Command
	AllArg  string        `json:"all_arg"`  // argument appended for a full rebuild (default "--all")
	WorkDir string        `json:"work_dir"` // optional working dir
	Env     []string      `json:"env"`      // optional extra env (KEY=VALUE)
	Timeout time.Duration `json:"timeout"`  // 0 = unbounded
}

const (
	DefaultName   = "book"
	DefaultAllArg = "--all"
)

func (s *Spec) name() string {
	if s.Name == "" {
		return DefaultName
	}
	return s.Name
}

func (s *Spec) allArg() string {
	if s.AllArg == "" {
		return DefaultAllArg
	}
	return s.AllArg
}

// BuildCommand constructs the *exec.Cmd for this spec, appending the
// rebuild-all argument when rebuildAll is set. It avoids invoking a
// shell when not necessary and respects an explicit shell invocation
// already present in the command string (e.g. "sh -c 'make html'"),
// avoiding double-wrapping with another shell.
func (s *Spec) BuildCommand(ctx context.Context, rebuildAll bool) *exec.Cmd {
	if len(s.Args) > 0 {
		argv := append([]string(nil), s.Args...)
		if rebuildAll {
			argv = append(argv, s.allArg())
		}
		// #nosec G204
		return exec.CommandContext(ctx, argv[0], argv[1:]...)
	}

	cmdStr := strings.TrimSpace(s.Command)
	if cmdStr == "" {
		// #nosec G204
		return exec.CommandContext(ctx, "/bin/true")
	}
	// If the command already explicitly uses a shell, honor it without
	// adding another layer. The rebuild-all argument belongs inside the
	// shell script, after whatever command it runs.
	if afterC, ok := parseExplicitShell(cmdStr); ok {
		if rebuildAll {
			afterC += " " + s.allArg()
		}
		// Always use absolute shell path to avoid PATH dependency when Env is overridden.
		// #nosec G204
		return exec.CommandContext(ctx, "/bin/sh", "-c", afterC)
	}
	// Fallback: when metacharacters are present, use /bin/sh -c
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		if rebuildAll {
			cmdStr += " " + s.allArg()
		}
		// #nosec G204
		return exec.CommandContext(ctx, "/bin/sh", "-c", cmdStr)
	}
	parts := strings.Fields(cmdStr)
	if rebuildAll {
		parts = append(parts, s.allArg())
	}
	// #nosec G204
	return exec.CommandContext(ctx, parts[0], parts[1:]...)
}

// parseExplicitShell detects patterns like "sh -c <ARG>" or
// "/bin/sh -c <ARG>" at the beginning of cmdStr and returns the
// argument after "-c" verbatim to avoid breaking quoting.
func parseExplicitShell(cmdStr string) (string, bool) {
	trim := strings.TrimLeft(cmdStr, " \t")
	candidates := []string{"sh -c ", "/bin/sh -c ", "/usr/bin/sh -c "}
	for _, p := range candidates {
		if strings.HasPrefix(trim, p) {
			after := trim[len(p):]
			// Strip one pair of wrapping quotes so the actual script
			// reaches the shell.
			if n := len(after); n >= 2 {
				if (after[0] == '\'' && after[n-1] == '\'') || (after[0] == '"' && after[n-1] == '"') {
					after = after[1 : n-1]
				}
			}
			return after, true
		}
	}
	return "", false
}
