package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loykin/bookbuild"
)

func main() {
	root, exitCode := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(*exitCode)
}

// buildRoot creates the root command. The returned int pointer carries
// the wrapped command's exit code out of RunE, so the process exits
// with the child's code instead of cobra's generic failure.
func buildRoot() (*cobra.Command, *int) {
	globalFlags := &GlobalFlags{}
	buildFlags := &BuildFlags{}
	quickFlags := &QuickFlags{}
	historyFlags := &HistoryFlags{}
	serveFlags := &ServeFlags{}
	exitCode := new(int)

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createBuildCommand(globalFlags, buildFlags, exitCode),
		createQuickCommand(globalFlags, quickFlags),
		createHistoryCommand(globalFlags, historyFlags),
		createServeCommand(globalFlags, serveFlags),
	)
	return root, exitCode
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "bookbuild",
		Short: "Build launcher for the book site with elapsed-time logging",
		Long: `Bookbuild wraps the external document-build command, mirrors its
output to the console and a per-day log file with wall-clock and
elapsed-time annotations, and records build history.

Examples:
  bookbuild build                   # Run a normal build
  bookbuild build --all             # Rebuild all pages
  bookbuild quick -m "Update book"  # pull, build, commit, push
  bookbuild history --limit 10      # Show recent builds
  bookbuild serve                   # History API and metrics`,
		SilenceUsage:  true,
		SilenceErrors: true, // main prints the error once
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	return root
}

func createBuildCommand(globalFlags *GlobalFlags, buildFlags *BuildFlags, exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the wrapped build command",
		Long: `Run the document-build command, streaming its merged stdout/stderr
to the console and the dated log file. The process exits with the
wrapped command's exit code, or 1 if it could not be spawned.

Examples:
  bookbuild build
  bookbuild build --all
  bookbuild build --cmd="make html" --log-dir=out/logs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runBuild(cmd.Context(), globalFlags, buildFlags)
			if err != nil {
				return err
			}
			*exitCode = res.ExitCode
			return nil
		},
	}
	cmd.Flags().BoolVar(&buildFlags.All, "all", false, "rebuild all pages regardless of modification status")
	cmd.Flags().StringVar(&buildFlags.Cmd, "cmd", "", "override the wrapped build command")
	cmd.Flags().StringVar(&buildFlags.Name, "name", "", "session name for history and metrics")
	cmd.Flags().StringVar(&buildFlags.LogDir, "log-dir", "", "directory for dated build logs (default \"logs\")")
	cmd.Flags().DurationVar(&buildFlags.Timeout, "timeout", 0, "abort the build after this duration (0 = unbounded)")
	cmd.Flags().StringVar(&buildFlags.HistoryDSN, "history-dsn", "", "record the build in this history store")
	return cmd
}

func createQuickCommand(globalFlags *GlobalFlags, quickFlags *QuickFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quick",
		Short: "Pull, build, commit and push in one step",
		Long: `Run the quick-publish sequence: git pull, build, stage all, commit
when there are changes, push. The first failing step aborts the
remainder; a clean worktree skips commit and push and succeeds.

Examples:
  bookbuild quick
  bookbuild quick --all -m "Rebuild everything"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuick(cmd.Context(), globalFlags, quickFlags)
		},
	}
	cmd.Flags().BoolVar(&quickFlags.All, "all", false, "rebuild all pages during the build step")
	cmd.Flags().StringVarP(&quickFlags.Message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&quickFlags.Remote, "remote", "", "git remote (default \"origin\")")
	cmd.Flags().StringVar(&quickFlags.Branch, "branch", "", "git branch (default: current)")
	return cmd
}

func createHistoryCommand(globalFlags *GlobalFlags, historyFlags *HistoryFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded builds",
		Long: `List recent builds from the history store, newest first.

Examples:
  bookbuild history
  bookbuild history --limit 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), globalFlags, historyFlags)
		},
	}
	cmd.Flags().IntVar(&historyFlags.Limit, "limit", 20, "maximum number of builds to show")
	cmd.Flags().StringVar(&historyFlags.DSN, "dsn", "", "history store DSN (overrides config)")
	cmd.Flags().BoolVar(&historyFlags.JSON, "json", false, "print as JSON")
	return cmd
}

func createServeCommand(globalFlags *GlobalFlags, serveFlags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve build history and metrics over HTTP",
		Long: `Start a read-only HTTP server exposing recent builds and
Prometheus metrics.

Examples:
  bookbuild serve
  bookbuild serve --listen=:9090 --dsn=sqlite://history.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(globalFlags, serveFlags)
		},
	}
	cmd.Flags().StringVar(&serveFlags.Listen, "listen", "", "listen address (default \":8080\")")
	cmd.Flags().StringVar(&serveFlags.BasePath, "base-path", "", "API base path (default \"/api\")")
	cmd.Flags().StringVar(&serveFlags.DSN, "dsn", "", "history store DSN (overrides config)")
	return cmd
}

func runBuild(ctx context.Context, globalFlags *GlobalFlags, buildFlags *BuildFlags) (bookbuild.Result, error) {
	cfg, err := bookbuild.LoadConfig(globalFlags.ConfigPath)
	if err != nil {
		return bookbuild.Result{}, err
	}
	spec := cfg.Spec()
	if buildFlags.Cmd != "" {
		spec.Command = buildFlags.Cmd
	}
	if buildFlags.Name != "" {
		spec.Name = buildFlags.Name
	}
	if buildFlags.Timeout > 0 {
		spec.Timeout = buildFlags.Timeout
	}
	logDir := cfg.Log.Dir
	if buildFlags.LogDir != "" {
		logDir = buildFlags.LogDir
	}

	r := bookbuild.NewRunner()
	r.Logger = bookbuild.NewLogger(cfg.Log.Diagnostics)

	dsn := cfg.History.DSN
	if buildFlags.HistoryDSN != "" {
		dsn = buildFlags.HistoryDSN
	}
	if dsn != "" {
		store, err := bookbuild.NewHistoryStore(dsn)
		if err != nil {
			// History is advisory; the build must still run.
			r.Logger.Warn("history store unavailable", "dsn", dsn, "error", err)
		} else {
			defer func() { _ = store.Close() }()
			r.History = store
		}
	}

	res, err := r.Run(ctx, spec, logDir, buildFlags.All)
	var se *bookbuild.SpawnError
	if errors.As(err, &se) {
		return res, fmt.Errorf("cannot start build command: %w", se)
	}
	return res, err
}

func runQuick(ctx context.Context, globalFlags *GlobalFlags, quickFlags *QuickFlags) error {
	cfg, err := bookbuild.LoadConfig(globalFlags.ConfigPath)
	if err != nil {
		return err
	}
	log := bookbuild.NewLogger(cfg.Log.Diagnostics)

	seq := &bookbuild.Sequence{
		WorkDir: cfg.Build.WorkDir,
		Remote:  firstNonEmpty(quickFlags.Remote, cfg.Git.Remote),
		Branch:  firstNonEmpty(quickFlags.Branch, cfg.Git.Branch),
		Message: firstNonEmpty(quickFlags.Message, cfg.Git.Message),
		Logger:  log,
		Build: func(ctx context.Context) error {
			r := bookbuild.NewRunner()
			r.Logger = log
			res, err := r.Run(ctx, cfg.Spec(), cfg.Log.Dir, quickFlags.All)
			if err != nil {
				return err
			}
			if res.ExitCode != 0 {
				return fmt.Errorf("build exited with code %d", res.ExitCode)
			}
			return nil
		},
	}
	return seq.Run(ctx)
}

func runHistory(ctx context.Context, globalFlags *GlobalFlags, historyFlags *HistoryFlags) error {
	cfg, err := bookbuild.LoadConfig(globalFlags.ConfigPath)
	if err != nil {
		return err
	}
	dsn := firstNonEmpty(historyFlags.DSN, cfg.History.DSN)
	if dsn == "" {
		return fmt.Errorf("no history DSN configured (set [history] dsn or --dsn)")
	}
	store, err := bookbuild.NewHistoryStore(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	builds, err := store.Recent(ctx, historyFlags.Limit)
	if err != nil {
		return err
	}
	if historyFlags.JSON {
		printJSON(builds)
		return nil
	}
	printBuilds(builds)
	return nil
}

func runServe(globalFlags *GlobalFlags, serveFlags *ServeFlags) error {
	cfg, err := bookbuild.LoadConfig(globalFlags.ConfigPath)
	if err != nil {
		return err
	}
	dsn := firstNonEmpty(serveFlags.DSN, cfg.History.DSN)
	if dsn == "" {
		return fmt.Errorf("no history DSN configured (set [history] dsn or --dsn)")
	}
	store, err := bookbuild.NewHistoryStore(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := bookbuild.RegisterMetricsDefault(); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	listen := firstNonEmpty(serveFlags.Listen, cfg.Server.Listen)
	basePath := firstNonEmpty(serveFlags.BasePath, cfg.Server.BasePath)
	server, err := bookbuild.NewHTTPServer(listen, basePath, store)
	if err != nil {
		return err
	}
	fmt.Printf("Serving build history on %s%s\n", listen, basePath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	return server.Close()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
