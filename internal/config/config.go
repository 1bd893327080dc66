// Package config provides configuration types and defaults for grove.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration options for grove.
type Config struct {
	Debug     bool            `mapstructure:"debug"`
	Worktree  WorktreeConfig  `mapstructure:"worktree"`
	Polling   PollingConfig   `mapstructure:"polling"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// WorktreeConfig controls how the Workspace Provisioner lays out per-agent checkouts.
type WorktreeConfig struct {
	// BaseDir is loaded from configuration (default: ".grove/worktrees"), but
	// the Workspace Provisioner does not read it: worktree paths come from
	// git.GitExecutor.DetermineWorktreePath, whose fallback directory is
	// always .grove/worktrees inside the repository.
	BaseDir string `mapstructure:"base_dir"`

	// Symlinks lists repo-root-relative paths (e.g. "node_modules", "vendor")
	// that are symlinked from the main repository into every new worktree.
	Symlinks []string `mapstructure:"symlinks"`
}

// DefaultWorktreeConfig returns sensible defaults.
func DefaultWorktreeConfig() WorktreeConfig {
	return WorktreeConfig{
		BaseDir:  ".grove/worktrees",
		Symlinks: nil,
	}
}

// PollingConfig controls the cadence of the four pollers.
type PollingConfig struct {
	// PaneInterval is the pane poller's round cadence. Default: 250ms.
	PaneInterval time.Duration `mapstructure:"pane_interval"`

	// URLRescanRounds is how many pane-poller rounds elapse between deep
	// rescans for agents without a known remote-change URL. Default: 20.
	URLRescanRounds int `mapstructure:"url_rescan_rounds"`

	// MetricsInterval is the system-metrics poller cadence. Default: 1s.
	MetricsInterval time.Duration `mapstructure:"metrics_interval"`

	// RemoteChangeInterval is the remote-change poller cadence. Default: 30s.
	RemoteChangeInterval time.Duration `mapstructure:"remote_change_interval"`

	// ExternalTaskInterval is the external-task poller cadence. Default: 30s.
	ExternalTaskInterval time.Duration `mapstructure:"external_task_interval"`
}

// DefaultPollingConfig returns the default poller cadences.
func DefaultPollingConfig() PollingConfig {
	return PollingConfig{
		PaneInterval:          250 * time.Millisecond,
		URLRescanRounds:       20,
		MetricsInterval:       1 * time.Second,
		RemoteChangeInterval:  30 * time.Second,
		ExternalTaskInterval:  30 * time.Second,
	}
}

// AgentFamilyConfig configures one agent family's launch command and
// classifier selection.
type AgentFamilyConfig struct {
	// Command is the shell command used to launch the agent process inside
	// its pane session (e.g. "claude", "opencode", "codex", "gemini").
	Command string `mapstructure:"command"`

	// Args are extra arguments appended to Command.
	Args []string `mapstructure:"args"`
}

// AgentsConfig maps agent family names to their launch configuration.
// Recognized keys: "claude", "opencode", "codex", "gemini".
type AgentsConfig struct {
	Default  string                        `mapstructure:"default"`
	Families map[string]AgentFamilyConfig `mapstructure:"families"`
}

// DefaultAgentsConfig returns the four known agent families with their
// conventional launch commands.
func DefaultAgentsConfig() AgentsConfig {
	return AgentsConfig{
		Default: "claude",
		Families: map[string]AgentFamilyConfig{
			"claude":   {Command: "claude"},
			"opencode": {Command: "opencode"},
			"codex":    {Command: "codex"},
			"gemini":   {Command: "gemini"},
		},
	}
}

// ProvidersConfig names the environment variables that carry provider
// credentials. The core treats the values as opaque strings.
type ProvidersConfig struct {
	// RemoteChange selects the configured remote-change adapter by name.
	// "gitlab" is the only recognized name; empty disables the poller, and
	// any other name is logged and leaves the adapter unset.
	RemoteChange string `mapstructure:"remote_change"`

	// RemoteChangeTokenEnv is the environment variable holding the
	// remote-change provider's API token.
	RemoteChangeTokenEnv string `mapstructure:"remote_change_token_env"`

	// RemoteChangeBaseURL is the forge's API base URL (e.g.
	// "https://gitlab.example.com/api/v4"); empty selects the provider's
	// conventional public default.
	RemoteChangeBaseURL string `mapstructure:"remote_change_base_url"`

	// RemoteChangeProjectID identifies the project/repo within the forge
	// (e.g. a GitLab numeric or URL-encoded path project ID).
	RemoteChangeProjectID string `mapstructure:"remote_change_project_id"`

	// ExternalTask selects the configured external-task adapter by name.
	// "linear" is the only recognized name; empty disables the poller, and
	// any other name is logged and leaves the adapter unset.
	ExternalTask string `mapstructure:"external_task"`

	// ExternalTaskTokenEnv is the environment variable holding the
	// external-task provider's API token.
	ExternalTaskTokenEnv string `mapstructure:"external_task_token_env"`

	// ExternalTaskBaseURL overrides the task tracker's API base URL; empty
	// selects the provider's conventional default.
	ExternalTaskBaseURL string `mapstructure:"external_task_base_url"`

	// ExternalTaskTeamID scopes task listing/status-option queries to one
	// team/workspace within the tracker.
	ExternalTaskTeamID string `mapstructure:"external_task_team_id"`
}

// SnapshotConfig holds session snapshot location configuration.
type SnapshotConfig struct {
	// BaseDir is the root directory for snapshot storage.
	// Default: ~/.grove/sessions
	BaseDir string `mapstructure:"base_dir"`

	// ApplicationName identifies the repository this snapshot belongs to.
	// Default: derived from the repository directory name.
	ApplicationName string `mapstructure:"application_name"`
}

// DefaultSnapshotBaseDir returns ~/.grove/sessions or "" if the home
// directory is unavailable.
func DefaultSnapshotBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".grove", "sessions")
}

// TracingConfig holds distributed tracing configuration for the Action Loop
// and pollers.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active. Default: false.
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp". Default: "file".
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for the "file" exporter.
	// Default: ~/.config/grove/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0). Default: 1.0.
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultTracingFilePath returns ~/.config/grove/traces/traces.jsonl or ""
// if the home directory is unavailable.
func DefaultTracingFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "grove", "traces", "traces.jsonl")
}

// Default returns a fully populated Config with every field at its
// documented default.
func Default() Config {
	return Config{
		Debug:    false,
		Worktree: DefaultWorktreeConfig(),
		Polling:  DefaultPollingConfig(),
		Agents:   DefaultAgentsConfig(),
		Providers: ProvidersConfig{
			RemoteChangeTokenEnv: "GROVE_REMOTE_TOKEN",
			ExternalTaskTokenEnv: "GROVE_TASK_TOKEN",
		},
		Snapshot: SnapshotConfig{
			BaseDir: DefaultSnapshotBaseDir(),
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     DefaultTracingFilePath(),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks the configuration for internal consistency, mirroring the
// per-section Validate pattern used throughout this package's predecessors.
func (c Config) Validate() error {
	if c.Polling.PaneInterval <= 0 {
		return fmt.Errorf("polling.pane_interval must be positive")
	}
	if c.Polling.MetricsInterval <= 0 {
		return fmt.Errorf("polling.metrics_interval must be positive")
	}
	if c.Polling.RemoteChangeInterval <= 0 {
		return fmt.Errorf("polling.remote_change_interval must be positive")
	}
	if c.Polling.ExternalTaskInterval <= 0 {
		return fmt.Errorf("polling.external_task_interval must be positive")
	}
	if c.Agents.Default != "" {
		if _, ok := c.Agents.Families[c.Agents.Default]; !ok {
			return fmt.Errorf("agents.default %q has no matching entry in agents.families", c.Agents.Default)
		}
	}
	switch c.Tracing.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter %q is not one of none|file|stdout|otlp", c.Tracing.Exporter)
	}
	if c.Tracing.Enabled && c.Tracing.Exporter == "file" && c.Tracing.FilePath == "" {
		return fmt.Errorf("tracing.file_path required when tracing is enabled with the file exporter")
	}
	return nil
}
