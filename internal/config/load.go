package config

import (
	"errors"
	"os"
	"path/filepath"

	viperlib "github.com/spf13/viper"
)

// newViper returns a viper instance using "::" as the key delimiter instead
// of ".", so dotted values (branch names, provider ids) can sit in a
// config key without colliding with viper's default nested-path separator.
func newViper() *viperlib.Viper {
	return viperlib.NewWithOptions(viperlib.KeyDelimiter("::"))
}

// applyDefaults seeds v with every leaf of d using the "::" delimiter, so a
// later Unmarshal produces a fully populated Config even when the config
// file on disk sets only a handful of keys.
func applyDefaults(v *viperlib.Viper, d Config) {
	v.SetDefault("debug", d.Debug)

	v.SetDefault("worktree::base_dir", d.Worktree.BaseDir)
	v.SetDefault("worktree::symlinks", d.Worktree.Symlinks)

	v.SetDefault("polling::pane_interval", d.Polling.PaneInterval)
	v.SetDefault("polling::url_rescan_rounds", d.Polling.URLRescanRounds)
	v.SetDefault("polling::metrics_interval", d.Polling.MetricsInterval)
	v.SetDefault("polling::remote_change_interval", d.Polling.RemoteChangeInterval)
	v.SetDefault("polling::external_task_interval", d.Polling.ExternalTaskInterval)

	v.SetDefault("agents::default", d.Agents.Default)
	v.SetDefault("agents::families", d.Agents.Families)

	v.SetDefault("providers::remote_change", d.Providers.RemoteChange)
	v.SetDefault("providers::remote_change_token_env", d.Providers.RemoteChangeTokenEnv)
	v.SetDefault("providers::remote_change_base_url", d.Providers.RemoteChangeBaseURL)
	v.SetDefault("providers::remote_change_project_id", d.Providers.RemoteChangeProjectID)
	v.SetDefault("providers::external_task", d.Providers.ExternalTask)
	v.SetDefault("providers::external_task_token_env", d.Providers.ExternalTaskTokenEnv)
	v.SetDefault("providers::external_task_base_url", d.Providers.ExternalTaskBaseURL)
	v.SetDefault("providers::external_task_team_id", d.Providers.ExternalTaskTeamID)

	v.SetDefault("snapshot::base_dir", d.Snapshot.BaseDir)
	v.SetDefault("snapshot::application_name", d.Snapshot.ApplicationName)

	v.SetDefault("tracing::enabled", d.Tracing.Enabled)
	v.SetDefault("tracing::exporter", d.Tracing.Exporter)
	v.SetDefault("tracing::file_path", d.Tracing.FilePath)
	v.SetDefault("tracing::otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing::sample_rate", d.Tracing.SampleRate)
}

// configSearchPaths returns, in precedence order, the config file locations
// Load checks when cfgFile is empty: a repo-local ".grove/config.yaml"
// first, falling back to "~/.config/grove/config.yaml".
func configSearchPaths(repoRoot string) []string {
	paths := []string{filepath.Join(repoRoot, ".grove", "config.yaml")}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "grove", "config.yaml"))
	}
	return paths
}

// Load assembles a Config from (in ascending precedence) built-in defaults,
// a config file, and the GROVE_-prefixed environment.
// cfgFile, when non-empty, is used verbatim instead of the
// conventional search path (the --config/-c flag). repoRoot is the
// directory Load's repo-local search path is rooted at (normally the
// positional CLI argument).
func Load(repoRoot, cfgFile string) (cfg Config, usedPath string, err error) {
	v := newViper()
	applyDefaults(v, Default())

	v.SetEnvPrefix("grove")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, "", err
		}
		usedPath = v.ConfigFileUsed()
	} else {
		for _, path := range configSearchPaths(repoRoot) {
			if _, statErr := os.Stat(path); statErr != nil {
				continue
			}
			v.SetConfigFile(path)
			if readErr := v.ReadInConfig(); readErr != nil {
				var notFound viperlib.ConfigFileNotFoundError
				if errors.As(readErr, &notFound) {
					continue
				}
				return Config{}, "", readErr
			}
			usedPath = v.ConfigFileUsed()
			break
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", err
	}
	if cfg.Snapshot.ApplicationName == "" {
		cfg.Snapshot.ApplicationName = filepath.Base(repoRoot)
	}
	return cfg, usedPath, nil
}
