// Package cmd wires the oneway commands. Each command drives one page flow
// and turns the route it returns into the next action, a hint or an error.
package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oneway/internal/tui"
)

// Options holds the process-level collaborators of the command tree.
type Options struct {
	Out    io.Writer
	ErrOut io.Writer

	// Getenv reads environment overrides. Defaults to os.Getenv.
	Getenv func(string) string

	// Prompter collects form input when Interactive reports a terminal.
	Prompter    tui.Prompter
	Interactive func() bool
}

func (o Options) withDefaults() Options {
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.ErrOut == nil {
		o.ErrOut = os.Stderr
	}
	if o.Getenv == nil {
		o.Getenv = os.Getenv
	}
	if o.Prompter == nil {
		o.Prompter = tui.HuhPrompter{Accessible: os.Getenv("ACCESSIBLE") != ""}
	}
	if o.Interactive == nil {
		o.Interactive = tui.ShouldPrompt
	}
	return o
}

// NewRootCommand builds the oneway command tree.
func NewRootCommand(opts Options) *cobra.Command {
	opts = opts.withDefaults()

	root := &cobra.Command{
		Use:   "oneway",
		Short: "Terminal client for the OneWay team backend",
		Long: `oneway signs you in to a OneWay backend, keeps the session token in a
credential store and manages the members of your team.

Examples:
  oneway signup
  oneway login --email ada@example.com
  oneway welcome
  oneway members add --first-name Alan --last-name Turing --email alan@example.com
  oneway invitation accept <token>
  oneway doctor
  oneway logout`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.ErrOut)

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.oneway/config.yaml)")
	flags.String("format", "", "output format: text, json or yaml")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: text or json")
	flags.Bool("no-color", false, "disable colored output")

	root.AddCommand(
		newLoginCmd(opts),
		newSignupCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newWelcomeCmd(opts),
		newInvitationCmd(opts),
		newMembersCmd(opts),
		newDoctorCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

// ExecuteContext runs the command tree with ctx, which carries the caller's
// cancellation.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand(Options{}).ExecuteContext(ctx)
}
