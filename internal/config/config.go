// Package config manages application configuration from files and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Delimiter string `mapstructure:"delimiter"`
	LogLevel  string `mapstructure:"log_level"`
	Color     bool   `mapstructure:"color"`
	FailFast  bool   `mapstructure:"fail_fast"`
	Audit     struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"audit"`
	Plugins struct {
		Enabled bool   `mapstructure:"enabled"`
		Dir     string `mapstructure:"dir"`
	} `mapstructure:"plugins"`
	Shell struct {
		HistoryFile string `mapstructure:"history_file"`
	} `mapstructure:"shell"`
}

// Issue represents a validation finding.
type Issue struct {
	Key      string
	Severity string // "error" or "warning"
	Message  string
}

// Load reads the configuration from ~/.pipekit/config.yaml and environment variables.
func Load() (*Config, error) {
	dir := Dir()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dir)

	// Defaults
	viper.SetDefault("delimiter", "/")
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("color", true)
	viper.SetDefault("fail_fast", false)
	viper.SetDefault("audit.enabled", false)
	viper.SetDefault("audit.path", filepath.Join(dir, "audit.jsonl"))
	viper.SetDefault("plugins.enabled", true)
	viper.SetDefault("plugins.dir", filepath.Join(dir, "plugins"))
	viper.SetDefault("shell.history_file", filepath.Join(dir, "shell_history"))

	// Environment variable overrides, e.g. PIPEKIT_AUDIT_ENABLED
	viper.SetEnvPrefix("PIPEKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; a broken one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}

	return decode()
}

// Watch calls onChange with the re-read configuration each time the config
// file changes. It does nothing when no config file was loaded.
func Watch(onChange func(*Config, error)) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(fsnotify.Event) {
		onChange(decode())
	})
	viper.WatchConfig()
}

func decode() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the loaded configuration for values the dispatcher cannot use.
func Validate(cfg *Config) []Issue {
	var issues []Issue

	switch {
	case cfg.Delimiter == "":
		issues = append(issues, Issue{Key: "delimiter", Severity: "error",
			Message: "delimiter must not be empty"})
	case strings.ContainsAny(cfg.Delimiter, " \t\n"):
		issues = append(issues, Issue{Key: "delimiter", Severity: "error",
			Message: fmt.Sprintf("delimiter %q must be a single token without whitespace", cfg.Delimiter)})
	case strings.HasPrefix(cfg.Delimiter, "-"):
		issues = append(issues, Issue{Key: "delimiter", Severity: "error",
			Message: fmt.Sprintf("delimiter %q would be parsed as a flag", cfg.Delimiter)})
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		issues = append(issues, Issue{Key: "log_level", Severity: "warning",
			Message: fmt.Sprintf("unknown log level %q, using warn", cfg.LogLevel)})
	}

	if cfg.Audit.Enabled && cfg.Audit.Path == "" {
		issues = append(issues, Issue{Key: "audit.path", Severity: "warning",
			Message: "audit is enabled but audit.path is empty, nothing will be recorded"})
	}

	return issues
}

// Dir returns the configuration directory (~/.pipekit).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pipekit"
	}
	return filepath.Join(home, ".pipekit")
}
