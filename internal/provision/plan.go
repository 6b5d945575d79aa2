package provision

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/deployerra/internal/platform"
	"github.com/alexisbeaulieu97/deployerra/internal/probe"
	"github.com/alexisbeaulieu97/deployerra/internal/report"
	deperrors "github.com/alexisbeaulieu97/deployerra/pkg/errors"
)

// PlannedAction is a corrective action a run would attempt.
type PlannedAction struct {
	Action  Action
	Command string
	Reason  string
}

// Plan is the dry-run view of a provisioning run. Building it only probes.
type Plan struct {
	Host     platform.Identity
	User     string
	Findings probe.Findings
	Actions  []PlannedAction
}

// Empty reports whether the host is already fully provisioned.
func (p Plan) Empty() bool {
	return len(p.Actions) == 0
}

// Summary converts the plan for rendering.
func (p Plan) Summary() report.Summary {
	s := report.Summary{Title: fmt.Sprintf("Planned actions for %s", p.Host)}
	if p.Empty() {
		s.Entries = append(s.Entries, report.Entry{Label: "host already provisioned", Status: report.StatusSkipped})
		return s
	}
	for _, a := range p.Actions {
		s.Entries = append(s.Entries, report.Entry{Label: string(a.Action), Status: report.StatusPlanned, Detail: a.Command})
	}
	return s
}

// Plan probes the host and lists what Run would do. Steps whose need only
// becomes known after an earlier mutation are listed as Run would attempt them.
func (e *Executor) Plan(ctx context.Context) (Plan, error) {
	plan := Plan{Host: e.host}

	user, err := e.prober.CurrentUser(ctx)
	if err != nil {
		return plan, deperrors.NewFatalError(deperrors.IdentityResolutionFailed, err)
	}
	plan.User = user
	plan.Findings = e.prober.Snapshot(ctx, user)

	add := func(action Action, command, reason string) {
		plan.Actions = append(plan.Actions, PlannedAction{Action: action, Command: command, Reason: reason})
	}

	bin := e.cfg.Runtime.Binary
	if !plan.Findings.RuntimeInstalled {
		cmds, ok := e.commands.Lookup(e.host.Family)
		if !ok {
			return plan, deperrors.NewFatalError(deperrors.UnsupportedDistroCommand, fmt.Errorf("no commands for %s", e.host))
		}
		install, err := platform.ResolveInstall(cmds, e.host, e.readRelease)
		if err != nil {
			return plan, err
		}
		add(ActionRefreshRepositories, cmds.Refresh, bin+" not installed")
		add(ActionInstallRuntime, install, bin+" not installed")
		add(ActionEnableService, e.enableCommand(), "fresh install")
		add(ActionGrantGroup, e.grantCommand(user), "fresh install")
		add(ActionRestartService, e.restartCommand(), "fresh install")
	} else {
		if !plan.Findings.ServiceActive {
			add(ActionEnableService, e.enableCommand(), e.cfg.Runtime.Service+" service not active")
		}
		if !plan.Findings.UserAuthorized {
			add(ActionGrantGroup, e.grantCommand(user), user+" not in the "+e.cfg.Runtime.Group+" group")
		}
	}

	if !plan.Findings.ComposeInstalled {
		arch, err := e.prober.Architecture(ctx)
		if err != nil {
			return plan, deperrors.NewFatalError(deperrors.ArchitectureDetectionFailed, err)
		}
		url := e.cfg.Compose.DownloadURL(arch)
		add(ActionInstallCompose, composePipeline(e.cfg.Compose, url), bin+" compose not found")
	}
	return plan, nil
}
