package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/deployerra/internal/config"
	"github.com/alexisbeaulieu97/deployerra/internal/hostexec"
	"github.com/alexisbeaulieu97/deployerra/internal/logger"
	"github.com/alexisbeaulieu97/deployerra/internal/platform"
	"github.com/alexisbeaulieu97/deployerra/internal/probe"
	"github.com/alexisbeaulieu97/deployerra/internal/provision"
	"github.com/alexisbeaulieu97/deployerra/internal/report"
)

// session holds what every host-facing command needs for one invocation.
type session struct {
	app     *AppContext
	cfg     *config.Config
	log     *logger.Logger
	printer *report.Printer
	runner  hostexec.Runner
}

func newSession(cmd *cobra.Command, root *rootFlags, app *AppContext) (*session, error) {
	log, err := newLogger(cmd, root, app)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("command-timeout") {
		if root.commandTimeout < 0 {
			return nil, fmt.Errorf("--command-timeout must not be negative")
		}
		cfg.CommandTimeout = root.commandTimeout
	}

	log.WithFields(map[string]any{
		"command":         cmd.Name(),
		"profile":         root.configPath,
		"command_timeout": cfg.CommandTimeout.String(),
	}).Debug("session started")

	return &session{
		app:     app,
		cfg:     cfg,
		log:     log,
		printer: report.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		runner:  app.NewRunner(cfg.CommandTimeout, log, cmd.OutOrStdout(), cmd.ErrOrStderr()),
	}, nil
}

func newLogger(cmd *cobra.Command, root *rootFlags, app *AppContext) (*logger.Logger, error) {
	level := "warn"
	if root.verbose {
		level = "debug"
	}

	var human bool
	switch root.logFormat {
	case "", "auto":
		human = app.IsTerminal != nil && app.IsTerminal(cmd.ErrOrStderr())
	case "console":
		human = true
	case "json":
		human = false
	default:
		return nil, fmt.Errorf("unknown log format %q (want auto, console or json)", root.logFormat)
	}

	return logger.New(logger.Options{
		Level:         level,
		HumanReadable: human,
		Writer:        cmd.ErrOrStderr(),
		Fields:        map[string]any{"run_id": uuid.NewString()},
	})
}

func (s *session) prober() *probe.Prober {
	var opts []probe.Option
	if s.app.ArchDetector != nil {
		opts = append(opts, probe.WithArchDetector(s.app.ArchDetector))
	}
	return probe.New(s.runner, s.cfg.Runtime, s.log, opts...)
}

func (s *session) executor(host platform.Identity) (*provision.Executor, error) {
	table, err := platform.NewCommandTable(s.cfg.Platforms)
	if err != nil {
		return nil, err
	}
	return provision.New(provision.Deps{
		Runner:   s.runner,
		Prober:   s.prober(),
		Commands: table,
		Host:     host,
		Config:   s.cfg,
		Printer:  s.printer,
		Logger:   s.log.WithFields(map[string]any{"distro": host.ID, "family": host.Family.String()}),
	})
}

func (s *session) classify() (platform.Identity, error) {
	host, err := platform.Classify(s.cfg.OSReleasePath)
	if err != nil {
		return platform.Identity{}, err
	}
	s.printer.Success("supported distro detected: %s", host)
	return host, nil
}
