package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose        bool
	quiet          bool
	logFormat      string
	configPath     string
	commandTimeout time.Duration
}

func newRootCmd(app *AppContext) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "deployerra",
		Short:         "Deployerra prepares servers for deploying applications",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !flags.quiet && cmd.Name() != "version" {
				showBanner(cmd.OutOrStdout())
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "No command was provided! Please read the following instructions:")
			fmt.Fprintln(cmd.OutOrStdout())
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "Do not print the banner")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "auto", "Log format: auto, console or json")
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML profile overriding the built-in defaults")
	cmd.PersistentFlags().DurationVar(&flags.commandTimeout, "command-timeout", 0, "Deadline for each host command (0 waits indefinitely)")

	cmd.AddCommand(newSetupCmd(flags, app))
	cmd.AddCommand(newCheckCmd(flags, app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func showBanner(w io.Writer) {
	r := lipgloss.NewRenderer(w)
	name := r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).
		Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39")).Padding(0, 3)
	tagline := r.NewStyle().Italic(true).Foreground(lipgloss.Color("245")).PaddingLeft(1)

	fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left,
		name.Render("deployerra"),
		tagline.Render("Deploy smarter. Deploy better."),
	))
	fmt.Fprintln(w)
}
