package flow

import (
	"context"

	"github.com/felixgeelhaar/oneway/internal/log"
	"github.com/felixgeelhaar/oneway/internal/model"
	"github.com/felixgeelhaar/oneway/internal/session"
)

// Gateway is the GraphQL surface the flows use.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*model.AuthPayload, error)
	Signup(ctx context.Context, in model.SignupInput) (*model.AuthPayload, error)
	UpdatePassword(ctx context.Context, id model.ID, password string) (*model.AuthPayload, error)
	CreateMember(ctx context.Context, in model.MemberInput, managerID model.ID) (*model.CreateMemberPayload, error)
	GetMembers(ctx context.Context, managerID model.ID) ([]model.Member, error)
	RefetchMembers(ctx context.Context, managerID model.ID) ([]model.Member, error)
}

// Probes are the REST calls the flows use.
type Probes interface {
	Welcome(ctx context.Context, sess *session.Session) (*model.ProbeResult, error)
	Invitation(ctx context.Context, invitationToken string) (*model.ProbeResult, error)
}

// Deps are shared by every flow.
type Deps struct {
	Session *session.Session
	Gateway Gateway
	Probes  Probes
	Logger  *log.Logger

	// Observer, when set, sees the transient Checking and Submitting states.
	Observer func(State)
}

func (d Deps) logger() *log.Logger {
	if d.Logger == nil {
		return log.DefaultLogger()
	}
	return d.Logger
}

func (d Deps) notify(s State) {
	if d.Observer != nil {
		d.Observer(s)
	}
}

// checkSession is the load step shared by login and signup: an existing
// token sends the user to the dashboard.
func (d Deps) checkSession(ctx context.Context) Outcome {
	d.notify(Checking())
	if d.Session.Authenticated(ctx) {
		return outcome(Redirect(RouteWelcome))
	}
	return outcome(Idle())
}

// startSession stores a freshly issued token and routes to the dashboard.
func (d Deps) startSession(ctx context.Context, token string) Outcome {
	if err := d.Session.Begin(ctx, token); err != nil {
		d.logger().WithError(err).ErrorContext(ctx, "failed to store session token")
		return Outcome{State: Failed(MsgGenericError), Err: err}
	}
	return outcome(Redirect(RouteWelcome))
}
