package flow

import (
	"context"
)

// Login is the sign-in page.
type Login struct {
	deps Deps
}

func NewLogin(deps Deps) *Login {
	return &Login{deps: deps}
}

// Load redirects signed-in users to the dashboard.
func (l *Login) Load(ctx context.Context) Outcome {
	return l.deps.checkSession(ctx)
}

// Submit signs in. Any failure clears the form and raises a blocking alert.
func (l *Login) Submit(ctx context.Context, email, password string) Outcome {
	l.deps.notify(Submitting())

	payload, err := l.deps.Gateway.Login(ctx, email, password)
	if err != nil {
		l.deps.logger().WithError(err).InfoContext(ctx, "login failed")
		return Outcome{
			State:     Failed(MsgInvalidCredentials),
			Alert:     MsgInvalidCredentials,
			ClearForm: true,
			Err:       err,
		}
	}

	out := l.deps.startSession(ctx, payload.Token)
	if payload.User != nil {
		out.UserID = payload.User.ID
	}
	return out
}
