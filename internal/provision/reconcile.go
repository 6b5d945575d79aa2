package provision

import "context"

// reconcileRuntime is sub-flow B: the runtime is present, so only the
// service and group membership are checked and repaired.
func (e *Executor) reconcileRuntime(ctx context.Context, out *Outcome) {
	svc := e.cfg.Runtime.Service
	e.printer.Step("checking %s service status", svc)
	if e.prober.ServiceActive(ctx) {
		e.printer.Info("%s service is running", svc)
	} else {
		e.printer.Info("%s service is not running", svc)
		// Not re-probed: a unit that fails to come up is reported, not retried.
		e.enableService(ctx, out)
	}

	user, ok := e.resolveIdentity(ctx, out)
	if !ok {
		return
	}

	group := e.cfg.Runtime.Group
	e.printer.Step("checking %s group membership for %s", group, user)
	if e.prober.UserAuthorized(ctx, user) {
		e.printer.Info("%s is already in the %s group", user, group)
		return
	}
	e.printer.Info("%s is not in the %s group", user, group)
	e.grantGroup(ctx, out, user)
}
