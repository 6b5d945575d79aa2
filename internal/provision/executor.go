// Package provision drives the host towards a working container runtime,
// service, group membership and compose plugin. Each corrective action is
// attempted only when a probe shows it is needed, so repeated runs converge.
package provision

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alexisbeaulieu97/deployerra/internal/config"
	"github.com/alexisbeaulieu97/deployerra/internal/hostexec"
	"github.com/alexisbeaulieu97/deployerra/internal/logger"
	"github.com/alexisbeaulieu97/deployerra/internal/platform"
	"github.com/alexisbeaulieu97/deployerra/internal/probe"
	"github.com/alexisbeaulieu97/deployerra/internal/report"
	deperrors "github.com/alexisbeaulieu97/deployerra/pkg/errors"
)

// Deps wires an Executor to the host.
type Deps struct {
	Runner   hostexec.Runner
	Prober   *probe.Prober
	Commands platform.CommandTable
	Host     platform.Identity
	Config   *config.Config
	Printer  *report.Printer
	Logger   *logger.Logger
	// ReadFile reads the release descriptor. Defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
}

// Executor runs the two provisioning sub-flows against one classified host.
type Executor struct {
	runner   hostexec.Runner
	prober   *probe.Prober
	commands platform.CommandTable
	host     platform.Identity
	cfg      *config.Config
	printer  *report.Printer
	log      *logger.Logger
	readFile func(string) ([]byte, error)
}

// New validates deps and returns an Executor.
func New(deps Deps) (*Executor, error) {
	if deps.Runner == nil {
		return nil, fmt.Errorf("provision: runner is nil")
	}
	if deps.Prober == nil {
		return nil, fmt.Errorf("provision: prober is nil")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("provision: config is nil")
	}

	e := &Executor{
		runner:   deps.Runner,
		prober:   deps.Prober,
		commands: deps.Commands,
		host:     deps.Host,
		cfg:      deps.Config,
		printer:  deps.Printer,
		log:      deps.Logger,
		readFile: deps.ReadFile,
	}
	if e.printer == nil {
		e.printer = report.Discard()
	}
	if e.readFile == nil {
		e.readFile = os.ReadFile
	}
	return e, nil
}

// Run executes sub-flow A or B depending on whether the runtime is present,
// then always reconciles the compose plugin. The returned outcome is never nil.
func (e *Executor) Run(ctx context.Context) *Outcome {
	out := &Outcome{Host: e.host}
	started := time.Now()
	bin := e.cfg.Runtime.Binary

	e.printer.Step("checking for %s", bin)
	if !e.prober.RuntimeInstalled(ctx) {
		e.printer.Info("%s not found", bin)
		e.printer.Step("proceeding to install %s", bin)
		e.installRuntime(ctx, out)
	} else {
		e.printer.Info("%s found", bin)
		e.reconcileRuntime(ctx, out)
	}

	e.reconcileCompose(ctx, out)

	e.log.WithFields(map[string]any{
		"host":        e.host.String(),
		"actions":     len(out.Records),
		"mutations":   len(out.Mutations()),
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("provisioning finished")
	return out
}

// execute runs a mutating command with its output mirrored to the terminal.
// It returns a descriptive error when the command did not exit zero.
func (e *Executor) execute(ctx context.Context, action Action, command string) (hostexec.Result, error) {
	e.log.WithFields(map[string]any{"action": string(action), "command": command}).Info("running corrective action")
	res, err := e.runner.Run(ctx, command, hostexec.Streaming())
	return res, commandError(command, res, err)
}

func commandError(command string, res hostexec.Result, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	if res.Success() {
		return nil
	}
	if detail := hostexec.PrimaryOutput(res); detail != "" {
		return fmt.Errorf("%s: exit status %d: %s", command, res.ExitCode, detail)
	}
	return fmt.Errorf("%s: exit status %d", command, res.ExitCode)
}

// fatal records a sub-flow halting failure.
func (e *Executor) fatal(out *Outcome, action Action, command string, kind deperrors.StepKind, err error, msg string) {
	wrapped := deperrors.NewFatalError(kind, err)
	out.add(Record{Action: action, Result: FailedFatal, Command: command, Message: msg, Err: wrapped})
	e.log.WithFields(map[string]any{"action": string(action)}).Error(wrapped, msg)
	e.printer.Failure("%s", msg)
}

// reported records a failure that leaves the rest of the sub-flow running.
func (e *Executor) reported(out *Outcome, action Action, command string, kind deperrors.StepKind, err error, msg string) {
	wrapped := deperrors.NewReportedError(kind, err)
	out.add(Record{Action: action, Result: FailedIgnorable, Command: command, Message: msg, Err: wrapped})
	e.log.WithFields(map[string]any{"action": string(action)}).Warn(wrapped.Error())
	e.printer.Failure("%s", msg)
}

func (e *Executor) succeeded(out *Outcome, action Action, command, msg string) {
	out.add(Record{Action: action, Result: Succeeded, Command: command, Message: msg})
}

func (e *Executor) readRelease() (string, error) {
	data, err := e.readFile(e.cfg.SystemReleasePath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
