// Package cmd wires the grove binary's command-line surface: flag/config
// parsing, startup prerequisite checks, and construction of the Action
// Loop, pollers, and their dependencies. It is
// deliberately thin: everything it touches is a constructor call into an
// already-built package.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/groveterm/grove/internal/action"
	"github.com/groveterm/grove/internal/adapter"
	"github.com/groveterm/grove/internal/config"
	"github.com/groveterm/grove/internal/git"
	"github.com/groveterm/grove/internal/log"
	"github.com/groveterm/grove/internal/loop"
	"github.com/groveterm/grove/internal/orchestration/tracing"
	"github.com/groveterm/grove/internal/pane"
	"github.com/groveterm/grove/internal/poller"
	"github.com/groveterm/grove/internal/snapshot"
	"github.com/groveterm/grove/internal/workspace"
)

// tickInterval drives the loop's periodic TickAction, independent of poller
// cadence (the hook a future UI layer would use to force a redraw even
// when nothing else changed).
const tickInterval = 100 * time.Millisecond

// shutdownGrace bounds how long the process waits, after a QuitAction is
// submitted in response to a signal, before giving up on in-flight effects
// and exiting anyway.
const shutdownGrace = 5 * time.Second

var (
	version = "dev"
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:     "grove [repository path]",
	Short:   "Orchestrate parallel AI coding agents in terminal multiplexer sessions",
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runApp,
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .grove/config.yaml, then ~/.config/grove/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"enable debug logging (also: GROVE_DEBUG=1)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func runApp(cmd *cobra.Command, args []string) error {
	repoRoot, err := resolveRepoRoot(args)
	if err != nil {
		return err
	}

	// Unavailable prerequisite: neither check below can be
	// recovered from mid-run, so both fail startup rather than the agent
	// they'd otherwise be discovered under.
	gitExec := git.NewRealExecutor(repoRoot)
	if !gitExec.IsGitRepo() {
		return fmt.Errorf("%s is not a version-controlled repository", repoRoot)
	}

	paneCtl, err := pane.NewTmuxController()
	if err != nil {
		return fmt.Errorf("starting grove: %w", err)
	}

	cfg, usedConfigPath, err := config.Load(repoRoot, cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if debug || os.Getenv("GROVE_DEBUG") != "" {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Debug {
		logPath := os.Getenv("GROVE_LOG")
		if logPath == "" {
			logPath = "grove-debug.log"
		}
		cleanup, err := log.Init(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		defer cleanup()
		log.Info(log.CatConfig, "grove starting", "version", version, "repo", repoRoot, "config", usedConfigPath)
	}

	tracingProvider, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
		ServiceName:  "grove",
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn(log.CatConfig, "tracing shutdown failed", "error", err.Error())
		}
	}()

	snapshotStore := snapshot.New(cfg.Snapshot)
	doc, err := snapshotStore.Load()
	if err != nil {
		log.Warn(log.CatSnapshot, "snapshot load failed, starting fresh", "error", err.Error())
		doc = snapshot.Document{}
	}
	initial := snapshot.Restore(doc, cfg)

	provisioner := workspace.New(repoRoot, gitExec)
	remoteAdapter := buildRemoteChangeAdapter(cfg)
	taskAdapter := buildExternalTaskAdapter(cfg)

	executor := loop.NewExecutor(cfg, provisioner, paneCtl, remoteAdapter, taskAdapter)
	l := loop.New(initial, executor, nil, snapshotStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go poller.NewPanePoller(paneCtl, l, l, cfg.Polling).Run(ctx)
	go poller.NewMetricsPoller(l, cfg.Polling.MetricsInterval).Run(ctx)
	go poller.NewRemoteChangePoller(remoteAdapter, l, l, cfg.Polling.RemoteChangeInterval).Run(ctx)
	go poller.NewExternalTaskPoller(taskAdapter, l, l, cfg.Polling.ExternalTaskInterval).Run(ctx)
	go loop.Ticker(ctx, l, tickInterval)
	go quitOnSignal(ctx, l)

	// Run blocks on the action queue itself, not on ctx, so the reducer
	// gets a chance to process the QuitAction quitOnSignal submits and
	// flush a final snapshot before the process exits.
	l.Run(context.Background())

	if cfg.Debug {
		log.Info(log.CatConfig, "grove shutting down")
	}
	return nil
}

// quitOnSignal submits a QuitAction as soon as ctx is canceled (by a
// SIGINT/SIGTERM), so the loop's normal Reduce/snapshot/quit path handles
// shutdown instead of the process dying mid-effect. If the loop has not
// drained within shutdownGrace, the process exits anyway rather than hang
// on a stuck effect.
func quitOnSignal(ctx context.Context, l *loop.Loop) {
	<-ctx.Done()
	l.Submit(action.NewQuitAction())

	time.Sleep(shutdownGrace)
	log.Warn(log.CatAction, "shutdown grace period elapsed, forcing exit")
	os.Exit(1)
}

// resolveRepoRoot returns the single positional repository path argument,
// defaulting to the current directory, resolved to an absolute path.
func resolveRepoRoot(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving repository path %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("repository path %q: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("repository path %q is not a directory", abs)
	}
	return abs, nil
}

// buildRemoteChangeAdapter constructs the configured RemoteChangeAdapter, or
// nil if none is configured; the remote-change poller is disabled entirely
// when Providers.RemoteChange is empty.
func buildRemoteChangeAdapter(cfg config.Config) adapter.RemoteChangeAdapter {
	switch cfg.Providers.RemoteChange {
	case "gitlab":
		return adapter.NewGitLabAdapterFromEnv(
			cfg.Providers.RemoteChangeBaseURL,
			cfg.Providers.RemoteChangeProjectID,
			cfg.Providers.RemoteChangeTokenEnv,
		)
	case "":
		return nil
	default:
		log.Warn(log.CatAdapter, "unknown remote-change provider, disabling poller", "provider", cfg.Providers.RemoteChange)
		return nil
	}
}

// buildExternalTaskAdapter constructs the configured ExternalTaskAdapter, or
// nil if none is configured.
func buildExternalTaskAdapter(cfg config.Config) adapter.ExternalTaskAdapter {
	switch cfg.Providers.ExternalTask {
	case "linear":
		return adapter.NewLinearAdapterFromEnv(
			cfg.Providers.ExternalTaskBaseURL,
			cfg.Providers.ExternalTaskTeamID,
			cfg.Providers.ExternalTaskTokenEnv,
		)
	case "":
		return nil
	default:
		log.Warn(log.CatAdapter, "unknown external-task provider, disabling poller", "provider", cfg.Providers.ExternalTask)
		return nil
	}
}
