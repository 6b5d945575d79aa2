package provision

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/deployerra/internal/platform"
	"github.com/alexisbeaulieu97/deployerra/internal/probe"
	deperrors "github.com/alexisbeaulieu97/deployerra/pkg/errors"
)

func (e *Executor) enableCommand() string {
	return "sudo systemctl enable --now " + e.cfg.Runtime.Service
}

func (e *Executor) restartCommand() string {
	return "sudo systemctl restart " + e.cfg.Runtime.Service
}

func (e *Executor) grantCommand(user string) string {
	return fmt.Sprintf("sudo usermod -aG %s %s", e.cfg.Runtime.Group, probe.ShellQuote(user))
}

// installRuntime is sub-flow A: the runtime is absent.
func (e *Executor) installRuntime(ctx context.Context, out *Outcome) {
	cmds, ok := e.commands.Lookup(e.host.Family)
	if !ok {
		e.fatal(out, ActionResolveInstall, "", deperrors.UnsupportedDistroCommand,
			fmt.Errorf("no commands for %s", e.host), "unsupported distribution")
		return
	}

	if !e.refreshRepositories(ctx, out, cmds) {
		return
	}

	install, err := platform.ResolveInstall(cmds, e.host, e.readRelease)
	if err != nil {
		out.add(Record{Action: ActionResolveInstall, Result: FailedFatal, Message: "no install command for this host", Err: err})
		e.log.Error(err, "resolve install command")
		e.printer.Failure("%v", err)
		return
	}
	e.succeeded(out, ActionResolveInstall, install, "")

	bin := e.cfg.Runtime.Binary
	e.printer.Step("installing %s", bin)
	if _, err := e.execute(ctx, ActionInstallRuntime, install); err != nil {
		e.fatal(out, ActionInstallRuntime, install, deperrors.RuntimeInstallFailed, err, "failed to install "+bin)
		return
	}
	e.succeeded(out, ActionInstallRuntime, install, "")
	e.printer.Success("%s installed successfully", bin)

	e.enableService(ctx, out)

	user, ok := e.resolveIdentity(ctx, out)
	if !ok {
		return
	}
	e.grantGroup(ctx, out, user)
	e.restartService(ctx, out)
}

func (e *Executor) refreshRepositories(ctx context.Context, out *Outcome, cmds platform.Commands) bool {
	e.printer.Step("updating package repositories")
	res, err := e.execute(ctx, ActionRefreshRepositories, cmds.Refresh)
	switch {
	case err == nil:
		e.succeeded(out, ActionRefreshRepositories, cmds.Refresh, "")
	case res.ExitCode > 0 && platform.IsIgnorableRefreshFailure(e.host.Family, res.ExitCode):
		msg := fmt.Sprintf("exit status %d means updates are available", res.ExitCode)
		out.add(Record{Action: ActionRefreshRepositories, Result: FailedIgnorable, Command: cmds.Refresh, Message: msg})
		e.log.WithFields(map[string]any{"exit_code": res.ExitCode}).Debug("refresh exit status ignored")
	default:
		e.fatal(out, ActionRefreshRepositories, cmds.Refresh, deperrors.RepositoryRefreshFailed, err,
			"failed to update package repositories")
		return false
	}
	e.printer.Success("package repositories updated successfully")
	return true
}

func (e *Executor) enableService(ctx context.Context, out *Outcome) {
	cmd := e.enableCommand()
	svc := e.cfg.Runtime.Service
	e.printer.Step("enabling and starting the %s service", svc)
	if _, err := e.execute(ctx, ActionEnableService, cmd); err != nil {
		e.reported(out, ActionEnableService, cmd, deperrors.ServiceStartFailed, err, "failed to start the "+svc+" service")
		return
	}
	e.succeeded(out, ActionEnableService, cmd, "")
	e.printer.Success("%s service started and enabled", svc)
}

func (e *Executor) resolveIdentity(ctx context.Context, out *Outcome) (string, bool) {
	user, err := e.prober.CurrentUser(ctx)
	if err != nil {
		e.fatal(out, ActionResolveIdentity, "whoami", deperrors.IdentityResolutionFailed, err, "failed to get current user")
		return "", false
	}
	e.succeeded(out, ActionResolveIdentity, "whoami", user)
	return user, true
}

func (e *Executor) grantGroup(ctx context.Context, out *Outcome, user string) {
	cmd := e.grantCommand(user)
	group := e.cfg.Runtime.Group
	e.printer.Step("adding %s to the %s group", user, group)
	if _, err := e.execute(ctx, ActionGrantGroup, cmd); err != nil {
		e.reported(out, ActionGrantGroup, cmd, deperrors.GroupGrantFailed, err, "failed to add user to the "+group+" group")
		return
	}
	e.succeeded(out, ActionGrantGroup, cmd, user)

	notice := fmt.Sprintf("log out and back in (or run 'newgrp %s') for %s to use %s without sudo",
		group, user, e.cfg.Runtime.Binary)
	out.ManualActions = append(out.ManualActions, ManualAction{User: user, Message: notice})
	e.printer.Success("%s added to the %s group", user, group)
	e.printer.Notice("%s", notice)
}

func (e *Executor) restartService(ctx context.Context, out *Outcome) {
	cmd := e.restartCommand()
	svc := e.cfg.Runtime.Service
	e.printer.Step("restarting the %s service", svc)
	if _, err := e.execute(ctx, ActionRestartService, cmd); err != nil {
		e.reported(out, ActionRestartService, cmd, deperrors.ServiceRestartFailed, err, "failed to restart the "+svc+" service")
		return
	}
	e.succeeded(out, ActionRestartService, cmd, "")
	e.printer.Success("%s service restarted", svc)
}
