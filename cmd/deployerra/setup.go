package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/deployerra/internal/privilege"
)

type setupOptions struct {
	Password    string
	AskPassword bool
	DryRun      bool
}

func newSetupCmd(root *rootFlags, app *AppContext) *cobra.Command {
	opts := setupOptions{}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Set up the server for deploying applications",
		Long: `Setup installs the container runtime, starts its service, grants the current
user access to it and installs the compose plugin. Steps that are already
satisfied are skipped, so setup can be re-run safely.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd, root, app, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "Password for sudo access (only required if not already available)")
	cmd.Flags().BoolVar(&opts.AskPassword, "ask-password", false, "Prompt for the sudo password if one is required")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show the planned corrective actions without running them")
	cmd.MarkFlagsMutuallyExclusive("password", "ask-password")

	return cmd
}

func runSetup(cmd *cobra.Command, root *rootFlags, app *AppContext, opts setupOptions) error {
	ctx := cmd.Context()
	s, err := newSession(cmd, root, app)
	if err != nil {
		return err
	}

	verifier := privilege.NewVerifier(s.runner, s.log)
	if opts.DryRun {
		s.printer.Info("sudo access: %s", verifier.Check(ctx))
	} else if err := ensurePrivilege(cmd, s, verifier, opts); err != nil {
		return err
	}

	host, err := s.classify()
	if err != nil {
		return err
	}

	exec, err := s.executor(host)
	if err != nil {
		return err
	}

	if opts.DryRun {
		plan, err := exec.Plan(ctx)
		if err != nil {
			return err
		}
		s.printer.Summary(plan.Summary())
		return nil
	}

	outcome := exec.Run(ctx)
	s.printer.Summary(outcome.Summary())
	if err := outcome.Err(); err != nil {
		return err
	}
	s.printer.Success("server setup complete")
	return nil
}

func ensurePrivilege(cmd *cobra.Command, s *session, verifier *privilege.Verifier, opts setupOptions) error {
	ctx := cmd.Context()
	password := opts.Password
	if opts.AskPassword && verifier.Check(ctx) == privilege.RequiresPassword {
		secret, err := s.app.ReadPassword("[sudo] password: ", cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		password = secret
	}
	if password != "" {
		s.printer.Info("using provided password for sudo access")
	}

	if err := verifier.Ensure(ctx, password); err != nil {
		return err
	}
	s.printer.Success("sudo access confirmed")
	return nil
}
