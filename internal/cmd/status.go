package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oneway/internal/credential"
)

func newStatusCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session without contacting the backend",
		Long: `Show whether a session token is stored, where, and which endpoints are
configured. JWT claims are decoded for display only; the token is not verified
and never printed.`,
		Args: cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, cc *CommandContext) error {
			token, ok, err := cc.Session.Token(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Render(buildStatus(cc, token, ok))
		}),
	}
}

func buildStatus(cc *CommandContext, token string, ok bool) statusView {
	view := statusView{
		Authenticated: ok,
		Store:         describeStore(cc),
		GraphQL:       cc.Config.Endpoints.GraphQL,
		API:           cc.Config.Endpoints.API,
	}
	if ok {
		info := credential.Inspect(token)
		view.Token = &info
	}
	return view
}

func describeStore(cc *CommandContext) string {
	switch s := cc.Store.(type) {
	case *credential.FileStore:
		return cc.Config.Store.Backend + " (" + s.Path() + ")"
	case *credential.RedisStore:
		return cc.Config.Store.Backend + " (" + cc.Config.Store.Redis.Addr + ", key " + s.KeyName() + ")"
	default:
		return cc.Config.Store.Backend
	}
}
