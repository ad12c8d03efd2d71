package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oneway/internal/errors"
	"github.com/felixgeelhaar/oneway/internal/flow"
	"github.com/felixgeelhaar/oneway/internal/tui"
)

func newLoginCmd(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in with your email and password. The session token is saved to the
configured credential store and the dashboard is shown.

If a session is already stored, login goes straight to the dashboard.

Examples:
  oneway login
  oneway login --email ada@example.com --password secret`,
		Args: cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, cc *CommandContext) error {
			return runLogin(cmd, cc)
		}),
	}
	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("password", "", "password")
	return cmd
}

func runLogin(cmd *cobra.Command, cc *CommandContext) error {
	ctx := cmd.Context()
	login := flow.NewLogin(cc.Deps())

	if out := login.Load(ctx); out.Route() != "" {
		cc.Notify("", "Already signed in.")
		return navigate(cmd, cc, out.Route())
	}

	creds := tui.Credentials{}
	creds.Email, _ = cmd.Flags().GetString("email")
	creds.Password, _ = cmd.Flags().GetString("password")
	if cc.prompting() && (creds.Email == "" || creds.Password == "") {
		if err := cc.Prompter.Login(&creds); err != nil {
			return err
		}
	}

	out := spin(cc, "Signing in", func() flow.Outcome {
		return login.Submit(ctx, creds.Email, creds.Password)
	})
	if out.Route() == "" {
		return failureError(out)
	}
	cc.Notify("success", "Signed in as "+creds.Email)
	return navigate(cmd, cc, out.Route())
}

func newSignupCmd(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long: `Create an account and sign in with it.

Without a terminal, --confirm-password defaults to --password.

Examples:
  oneway signup
  oneway signup --first-name Ada --last-name Lovelace --email ada@example.com --password secret`,
		Args: cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, cc *CommandContext) error {
			return runSignup(cmd, cc)
		}),
	}
	cmd.Flags().String("first-name", "", "first name")
	cmd.Flags().String("last-name", "", "last name")
	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("password", "", "password")
	cmd.Flags().String("confirm-password", "", "password confirmation")
	return cmd
}

func runSignup(cmd *cobra.Command, cc *CommandContext) error {
	ctx := cmd.Context()
	signup := flow.NewSignup(cc.Deps())

	if out := signup.Load(ctx); out.Route() != "" {
		cc.Notify("", "Already signed in.")
		return navigate(cmd, cc, out.Route())
	}

	flags := cmd.Flags()
	form := flow.SignupForm{}
	form.FirstName, _ = flags.GetString("first-name")
	form.LastName, _ = flags.GetString("last-name")
	form.Email, _ = flags.GetString("email")
	form.Password, _ = flags.GetString("password")
	form.ConfirmPassword = confirmation(cmd, cc, form.Password)

	if cc.prompting() && (form.FirstName == "" || form.LastName == "" || form.Email == "" || form.Password == "" || form.ConfirmPassword == "") {
		if err := cc.Prompter.Signup(&form); err != nil {
			return err
		}
	}

	out := spin(cc, "Creating account", func() flow.Outcome {
		return signup.Submit(ctx, form)
	})
	if out.Route() == "" {
		return failureError(out)
	}
	cc.Notify("success", "Account created for "+form.Email)
	return navigate(cmd, cc, out.Route())
}

// confirmation reads --confirm-password. Scripts that omit it confirm the
// password they passed; a terminal user is asked to type it again.
func confirmation(cmd *cobra.Command, cc *CommandContext, password string) string {
	if cmd.Flags().Changed("confirm-password") {
		v, _ := cmd.Flags().GetString("confirm-password")
		return v
	}
	if cc.prompting() {
		return ""
	}
	return password
}

func newLogoutCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Long:  `Remove the session token from the credential store. The backend is not contacted.`,
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, cc *CommandContext) error {
			ctx := cmd.Context()
			wasSignedIn := cc.Session.Authenticated(ctx)
			flow.NewWelcome(cc.Deps()).Logout(ctx)

			if cc.Session.Authenticated(ctx) {
				return errors.New(errors.ErrCodeStoreWrite, "failed to clear the session token")
			}
			if !wasSignedIn {
				return cc.Render(resultView{Status: "warning", Message: "Not signed in."})
			}
			return cc.Render(resultView{Status: "success", Message: "Signed out."})
		}),
	}
}
