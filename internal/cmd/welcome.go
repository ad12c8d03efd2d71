package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oneway/internal/errors"
	"github.com/felixgeelhaar/oneway/internal/flow"
	"github.com/felixgeelhaar/oneway/internal/model"
)

func newWelcomeCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "welcome",
		Short: "Show the dashboard of the signed-in user",
		Long: `Check the stored session with the backend and show the greeting and the
members you manage. A rejected session is cleared and you are asked to sign in
again.`,
		Args: cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, cc *CommandContext) error {
			return navigate(cmd, cc, flow.RouteWelcome)
		}),
	}
}

func newMembersCmd(opts Options) *cobra.Command {
	membersCmd := &cobra.Command{
		Use:   "members",
		Short: "List or add team members",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the members you manage",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, cc *CommandContext) error {
			w, _, err := loadWelcome(cmd, cc)
			if err != nil {
				return err
			}
			if w.Members() == nil {
				cc.Notify("warning", "Members could not be loaded")
			}
			return cc.Render(membersView(nonNil(w.Members())))
		}),
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a member to your team",
		Long: `Add a member to your team. The member receives an invitation and shows as
Pending until they set a password.

Examples:
  oneway members add
  oneway members add --first-name Alan --last-name Turing --email alan@example.com --role admin`,
		Args: cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, cc *CommandContext) error {
			return runMembersAdd(cmd, cc)
		}),
	}
	addCmd.Flags().String("first-name", "", "first name")
	addCmd.Flags().String("last-name", "", "last name")
	addCmd.Flags().String("email", "", "email address")
	addCmd.Flags().String("role", model.RoleMember, "role: admin or member")

	membersCmd.AddCommand(listCmd, addCmd)
	return membersCmd
}

func runMembersAdd(cmd *cobra.Command, cc *CommandContext) error {
	ctx := cmd.Context()

	w, _, err := loadWelcome(cmd, cc)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	in := model.MemberInput{}
	in.FirstName, _ = flags.GetString("first-name")
	in.LastName, _ = flags.GetString("last-name")
	in.Email, _ = flags.GetString("email")
	in.Role, _ = flags.GetString("role")

	if cc.prompting() && (in.FirstName == "" || in.LastName == "" || in.Email == "") {
		if err := cc.Prompter.AddMember(&in); err != nil {
			return err
		}
	}

	out := spin(cc, "Adding member", func() flow.Outcome { return w.AddMember(ctx, in) })
	switch out.State.Kind {
	case flow.KindSuccess:
		cc.Notify("success", out.Message)
		return cc.Render(membersView(nonNil(out.Members)))
	case flow.KindIdle:
		return errors.NewFieldRequiredError("first name, last name and email").
			WithSuggestion("Pass --first-name, --last-name and --email")
	case flow.KindRedirect:
		return sessionError(out)
	default:
		return failureError(out)
	}
}

// loadWelcome runs the dashboard load and converts anything but Ready into an
// error.
func loadWelcome(cmd *cobra.Command, cc *CommandContext) (*flow.Welcome, flow.Outcome, error) {
	ctx := cmd.Context()

	w := flow.NewWelcome(cc.Deps())
	out := spin(cc, "Loading", func() flow.Outcome { return w.Load(ctx) })
	switch out.State.Kind {
	case flow.KindReady:
		return w, out, nil
	case flow.KindRedirect:
		return nil, out, sessionError(out)
	default:
		return nil, out, failureError(out)
	}
}

// navigate follows a route returned by a flow.
func navigate(cmd *cobra.Command, cc *CommandContext, route flow.Route) error {
	switch route {
	case flow.RouteWelcome:
		_, out, err := loadWelcome(cmd, cc)
		if err != nil {
			return err
		}
		return cc.Render(dashboardView{
			Message: out.Message,
			UserID:  out.UserID,
			Members: out.Members,
		})
	case flow.RouteSignup:
		return invitationError(flow.Outcome{})
	default:
		return errors.NewNotAuthenticatedError()
	}
}

func nonNil(members []model.Member) []model.Member {
	if members == nil {
		return []model.Member{}
	}
	return members
}
