// Package privilege determines whether the process may run elevated commands.
package privilege

import (
	"context"
	"strings"

	"github.com/alexisbeaulieu97/deployerra/internal/hostexec"
	"github.com/alexisbeaulieu97/deployerra/internal/logger"
	deperrors "github.com/alexisbeaulieu97/deployerra/pkg/errors"
)

// State describes whether elevated actions may proceed.
type State int

const (
	Denied State = iota
	Available
	RequiresPassword
)

func (s State) String() string {
	switch s {
	case Available:
		return "available"
	case RequiresPassword:
		return "requires-password"
	default:
		return "denied"
	}
}

const (
	// probeCommand never prompts and never waits on a terminal.
	probeCommand = "sudo -n true"
	// authenticateCommand reads the password from stdin with an empty prompt
	// and refreshes sudo's credential cache.
	authenticateCommand = "sudo -S -p '' -v"
)

// Verifier runs the elevation probe.
type Verifier struct {
	runner hostexec.Runner
	log    *logger.Logger
}

// NewVerifier returns a Verifier issuing its probes through runner.
func NewVerifier(runner hostexec.Runner, log *logger.Logger) *Verifier {
	return &Verifier{runner: runner, log: log}
}

// Check issues the non-interactive probe and interprets its outcome.
func (v *Verifier) Check(ctx context.Context) State {
	res, err := v.runner.Run(ctx, probeCommand)
	state := Interpret(res, err)
	v.log.WithFields(map[string]any{"state": state.String()}).Debug("privilege probe finished")
	return state
}

// Interpret maps a probe result to a State. A diagnostic mentioning a
// password wins over the exit status.
func Interpret(res hostexec.Result, err error) State {
	if mentionsPassword(res.Stderr) || mentionsPassword(res.Stdout) {
		return RequiresPassword
	}
	if err == nil && res.Success() {
		return Available
	}
	return Denied
}

func mentionsPassword(diagnostic string) bool {
	return strings.Contains(strings.ToLower(diagnostic), "password")
}

// Authenticate validates password against the elevation mechanism. On
// success sudo caches the credential and the returned state is Available.
func (v *Verifier) Authenticate(ctx context.Context, password string) (State, error) {
	if password == "" {
		return RequiresPassword, deperrors.NewPrivilegeError(RequiresPassword.String(), "an empty password was supplied", nil)
	}

	res, err := v.runner.Run(ctx, authenticateCommand, hostexec.WithStdin(strings.NewReader(password+"\n")))
	if err != nil {
		return Denied, deperrors.NewPrivilegeError(Denied.String(), "could not run the elevation mechanism", err)
	}
	if !res.Success() {
		v.log.Warn("supplied password was rejected")
		return RequiresPassword, deperrors.NewPrivilegeError(RequiresPassword.String(), "the supplied password was rejected", nil)
	}

	return v.Check(ctx), nil
}

// Ensure gates mutating work: it returns nil only when elevation is
// available, using password when the probe asks for one.
func (v *Verifier) Ensure(ctx context.Context, password string) error {
	state := v.Check(ctx)
	switch state {
	case Available:
		return nil
	case RequiresPassword:
		if password == "" {
			return deperrors.NewPrivilegeError(state.String(), "sudo access is required; provide a password using the -p/--password or --ask-password flag", nil)
		}
		authed, err := v.Authenticate(ctx, password)
		if err != nil {
			return err
		}
		if authed != Available {
			return deperrors.NewPrivilegeError(authed.String(), "sudo access is still unavailable after authentication", nil)
		}
		return nil
	default:
		return deperrors.NewPrivilegeError(state.String(), "the current user may not use sudo", nil)
	}
}
