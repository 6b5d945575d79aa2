package provision

import (
	"errors"
	"fmt"

	"github.com/alexisbeaulieu97/deployerra/internal/platform"
	"github.com/alexisbeaulieu97/deployerra/internal/report"
)

// ActionResult is the outcome of one corrective action.
type ActionResult int

const (
	Succeeded ActionResult = iota
	FailedFatal
	FailedIgnorable
)

func (r ActionResult) String() string {
	switch r {
	case Succeeded:
		return "succeeded"
	case FailedFatal:
		return "failed-fatal"
	case FailedIgnorable:
		return "failed-ignorable"
	default:
		return "unknown"
	}
}

// Action names a step of the provisioning state machine.
type Action string

const (
	ActionRefreshRepositories Action = "refresh-repositories"
	ActionResolveInstall      Action = "resolve-install-command"
	ActionInstallRuntime      Action = "install-runtime"
	ActionEnableService       Action = "enable-service"
	ActionResolveIdentity     Action = "resolve-identity"
	ActionGrantGroup          Action = "grant-group"
	ActionRestartService      Action = "restart-service"
	ActionDetectArchitecture  Action = "detect-architecture"
	ActionInstallCompose      Action = "install-compose-plugin"
	ActionVerifyCompose       Action = "verify-compose-plugin"
)

// Mutating reports whether the action changes host state.
func (a Action) Mutating() bool {
	switch a {
	case ActionRefreshRepositories, ActionInstallRuntime, ActionEnableService,
		ActionGrantGroup, ActionRestartService, ActionInstallCompose:
		return true
	default:
		return false
	}
}

// Record is what happened to one action during a run.
type Record struct {
	Action  Action
	Result  ActionResult
	Command string
	Message string
	Err     error
}

// ManualAction is a post-condition the run cannot verify by itself.
type ManualAction struct {
	User    string
	Message string
}

// Outcome aggregates every record of a provisioning run.
type Outcome struct {
	Host          platform.Identity
	Records       []Record
	ManualActions []ManualAction
}

func (o *Outcome) add(rec Record) {
	o.Records = append(o.Records, rec)
}

// Actions lists the attempted actions in order.
func (o *Outcome) Actions() []Action {
	actions := make([]Action, len(o.Records))
	for i, rec := range o.Records {
		actions[i] = rec.Action
	}
	return actions
}

// Mutations returns the records of actions that touched host state.
func (o *Outcome) Mutations() []Record {
	var out []Record
	for _, rec := range o.Records {
		if rec.Action.Mutating() {
			out = append(out, rec)
		}
	}
	return out
}

// Fatal returns the first fatal error, if any.
func (o *Outcome) Fatal() error {
	for _, rec := range o.Records {
		if rec.Result == FailedFatal {
			return rec.Err
		}
	}
	return nil
}

// Reported returns the errors of non-fatal failures.
func (o *Outcome) Reported() []error {
	var errs []error
	for _, rec := range o.Records {
		if rec.Result == FailedIgnorable && rec.Err != nil {
			errs = append(errs, rec.Err)
		}
	}
	return errs
}

// Err is nil only when every attempted action succeeded or was ignorable.
func (o *Outcome) Err() error {
	if err := o.Fatal(); err != nil {
		return err
	}
	if reported := o.Reported(); len(reported) > 0 {
		return errors.Join(reported...)
	}
	return nil
}

// Summary converts the outcome for rendering.
func (o *Outcome) Summary() report.Summary {
	s := report.Summary{Title: "Provisioning summary"}
	for _, rec := range o.Records {
		entry := report.Entry{Label: string(rec.Action), Detail: rec.Message}
		switch {
		case rec.Result == FailedFatal:
			entry.Status = report.StatusFatal
		case rec.Err != nil:
			entry.Status = report.StatusFailed
		default:
			entry.Status = report.StatusDone
		}
		s.Entries = append(s.Entries, entry)
	}
	if len(o.Records) == 0 {
		s.Entries = append(s.Entries, report.Entry{Label: "host already provisioned", Status: report.StatusSkipped})
	}
	for _, err := range o.Reported() {
		s.Failures = append(s.Failures, err.Error())
	}
	if err := o.Fatal(); err != nil {
		s.Failures = append(s.Failures, fmt.Sprintf("%v (fatal)", err))
	}
	for _, m := range o.ManualActions {
		s.ManualActions = append(s.ManualActions, m.Message)
	}
	return s
}
