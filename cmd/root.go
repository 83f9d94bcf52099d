// Package cmd wires configuration, logging and the command registry into the
// pipekit binary.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	cmdaudit "github.com/klytics/pipekit/cmd/audit"
	"github.com/klytics/pipekit/cmd/sheet"
	"github.com/klytics/pipekit/cmd/text"
	"github.com/klytics/pipekit/cmd/version"
	"github.com/klytics/pipekit/internal/audit"
	"github.com/klytics/pipekit/internal/config"
	"github.com/klytics/pipekit/internal/logging"
	"github.com/klytics/pipekit/internal/output"
	"github.com/klytics/pipekit/internal/pipeline"
	"github.com/klytics/pipekit/internal/registry"
	"github.com/klytics/pipekit/internal/shell"
)

const programName = "pipekit"

// Execute runs pipekit with the process arguments and exits with its status.
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Run executes one pipekit invocation and returns the exit status.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		output.WriteError(stderr, "%s", err)
		return output.ExitUserError
	}
	if !cfg.Color {
		color.NoColor = true
	}
	for _, issue := range config.Validate(cfg) {
		if issue.Severity == "error" {
			output.WriteError(stderr, "config %s: %s", issue.Key, issue.Message)
			return output.ExitUserError
		}
		output.WriteWarning(stderr, "config %s: %s", issue.Key, issue.Message)
	}

	log := logging.New(stderr, cfg.LogLevel, cfg.Color)
	live := newLiveConfig(cfg)
	reg, err := NewRegistry(cfg, func() string { return live.get().Audit.Path }, log)
	if err != nil {
		output.WriteError(stderr, "%s", err)
		return output.ExitSystemError
	}

	runner := func(ctx context.Context, in io.Reader, tokens []string, stdout, stderr io.Writer) int {
		cfg := live.get()
		exec := pipeline.NewExecutor(reg, in, stdout, stderr,
			pipeline.WithProgram(programName, version.Version),
			pipeline.WithDelimiter(cfg.Delimiter),
			pipeline.WithFailFast(cfg.FailFast),
			pipeline.WithLogger(log),
			pipeline.WithAudit(audit.NewLogger(cfg.Audit.Path, cfg.Audit.Enabled)),
		)
		return exec.Run(ctx, pipeline.Split(tokens, cfg.Delimiter))
	}

	if len(args) > 0 && args[0] == "--shell" {
		if len(args) > 1 {
			output.WriteError(stderr, "--shell takes no arguments, got %q", strings.Join(args[1:], " "))
			return output.ExitUserError
		}
		session := shell.NewSession(func(ctx context.Context, tokens []string, stdout, stderr io.Writer) int {
			return runner(ctx, strings.NewReader(""), tokens, stdout, stderr)
		}, reg.List(), cfg.Shell.HistoryFile)
		session.SetDelimiter(cfg.Delimiter)
		session.SetOutput(stdout, stderr)

		// The shell outlives many pipelines, so config edits apply from the next line.
		config.Watch(func(next *config.Config, err error) {
			if err == nil {
				err = live.update(next, log)
			}
			if err != nil {
				log.WithError(err).Warn("keeping previous configuration")
				return
			}
			session.SetDelimiter(next.Delimiter)
			log.Info("configuration reloaded")
		})

		if err := session.Run(ctx); err != nil {
			output.WriteError(stderr, "%s", err)
			return output.ExitSystemError
		}
		return output.ExitOK
	}

	return runner(ctx, stdin, args, stdout, stderr)
}

// NewRegistry populates a registry with the built-in commands and, when
// enabled, the plugins found in the configured directory.
func NewRegistry(cfg *config.Config, auditPath func() string, log logrus.FieldLogger) (*registry.Registry, error) {
	reg := registry.New()
	text.RegisterAll(reg)
	sheet.RegisterAll(reg)
	version.Register(reg)
	cmdaudit.Register(reg, auditPath)

	if cfg.Plugins.Enabled && cfg.Plugins.Dir != "" {
		plugins, err := reg.LoadPlugins(cfg.Plugins.Dir, log)
		if err != nil {
			return nil, fmt.Errorf("could not load plugins: %w", err)
		}
		log.WithField("count", len(plugins)).Debug("plugins loaded")
	}
	return reg, nil
}
