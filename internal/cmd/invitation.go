package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oneway/internal/flow"
)

func newInvitationCmd(opts Options) *cobra.Command {
	invitationCmd := &cobra.Command{
		Use:   "invitation",
		Short: "Accept a team invitation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	acceptCmd := &cobra.Command{
		Use:   "accept <token>",
		Short: "Set your password and sign in",
		Long: `Validate the invitation token from your invitation link, set a password and
sign in. An invalid or expired invitation points you to signup instead.

Without a terminal, --confirm-password defaults to --password.

Examples:
  oneway invitation accept inv-4b1c
  oneway invitation accept inv-4b1c --password secret`,
		Args: cobra.ExactArgs(1),
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, cc *CommandContext) error {
			return runInvitationAccept(cmd, cc, args[0])
		}),
	}
	acceptCmd.Flags().String("password", "", "new password")
	acceptCmd.Flags().String("confirm-password", "", "password confirmation")

	invitationCmd.AddCommand(acceptCmd)
	return invitationCmd
}

func runInvitationAccept(cmd *cobra.Command, cc *CommandContext, token string) error {
	ctx := cmd.Context()
	inv := flow.NewInvitation(cc.Deps())

	out := spin(cc, "Checking invitation", func() flow.Outcome { return inv.Load(ctx, token) })
	switch out.State.Kind {
	case flow.KindReady:
	case flow.KindRedirect:
		return invitationError(out)
	default:
		return failureError(out)
	}
	cc.Notify("", out.Message)

	password, _ := cmd.Flags().GetString("password")
	confirm := confirmation(cmd, cc, password)
	if cc.prompting() && (password == "" || confirm == "") {
		if err := cc.Prompter.SetPassword(&password, &confirm); err != nil {
			return err
		}
	}

	out = spin(cc, "Setting password", func() flow.Outcome { return inv.Submit(ctx, password, confirm) })
	if out.Route() == "" {
		return failureError(out)
	}
	cc.Notify("success", "Password set.")
	return navigate(cmd, cc, out.Route())
}
