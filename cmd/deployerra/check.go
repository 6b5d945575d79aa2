package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/deployerra/internal/report"
)

func newCheckCmd(root *rootFlags, app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report which setup steps this server still needs",
		Long: `Check classifies the host and runs the capability probes without changing
anything or asking for sudo. Returns exit code 0 if the server is fully set
up, exit code 1 if setup would still do something.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, root, app)
		},
	}

	return cmd
}

func runCheck(cmd *cobra.Command, root *rootFlags, app *AppContext) error {
	ctx := cmd.Context()
	s, err := newSession(cmd, root, app)
	if err != nil {
		return err
	}

	host, err := s.classify()
	if err != nil {
		return err
	}

	prober := s.prober()
	user, err := prober.CurrentUser(ctx)
	if err != nil {
		s.log.Error(err, "resolve current user")
	}
	findings := prober.Snapshot(ctx, user)

	rt := s.cfg.Runtime
	s.printer.Summary(report.Summary{
		Title: "Capabilities of " + host.String(),
		Entries: []report.Entry{
			capability(rt.Binary+" installed", findings.RuntimeInstalled),
			capability(rt.Service+" service active", findings.ServiceActive),
			capability(userLabel(user)+" in the "+rt.Group+" group", findings.UserAuthorized),
			capability(rt.Binary+" compose installed", findings.ComposeInstalled),
		},
	})

	if !findings.Complete() {
		return errNotProvisioned
	}
	return nil
}

func capability(label string, ok bool) report.Entry {
	if ok {
		return report.Entry{Label: label, Status: report.StatusDone}
	}
	return report.Entry{Label: label, Status: report.StatusPlanned, Detail: "setup would fix this"}
}

func userLabel(user string) string {
	if user == "" {
		return "current user"
	}
	return user
}
