package flow

import (
	"context"

	"github.com/felixgeelhaar/oneway/internal/errors"
	"github.com/felixgeelhaar/oneway/internal/model"
)

// Invitation is the page an invited member lands on to set a password.
type Invitation struct {
	deps    Deps
	loaded  bool
	userID  model.ID
	message string
}

func NewInvitation(deps Deps) *Invitation {
	return &Invitation{deps: deps}
}

// Load validates the invitation token. Any non-success status sends the user
// to signup without showing the form.
func (i *Invitation) Load(ctx context.Context, token string) Outcome {
	if token == "" {
		return outcome(Failed(MsgNoToken))
	}

	i.deps.notify(Checking())

	result, err := i.deps.Probes.Invitation(ctx, token)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeRESTStatus) {
			return Outcome{State: Redirect(RouteSignup), Err: err}
		}
		i.deps.logger().WithError(err).WarnContext(ctx, "invitation check failed")
		return Outcome{State: Failed(MsgGenericError), Err: err}
	}

	i.loaded = true
	i.userID = result.CurrentUserID
	i.message = result.Message
	return Outcome{State: Ready(), Message: result.Message, UserID: result.CurrentUserID}
}

// Submit sets the member's password and signs them in with the token the
// backend returns.
func (i *Invitation) Submit(ctx context.Context, password, confirm string) Outcome {
	if !i.loaded {
		return outcome(Failed(MsgNoToken))
	}
	if password != confirm {
		return outcome(Failed(MsgPasswordMismatch))
	}
	if password == "" {
		return outcome(Failed(MsgPasswordRequired))
	}

	i.deps.notify(Submitting())

	payload, err := i.deps.Gateway.UpdatePassword(ctx, i.userID, password)
	if err != nil {
		i.deps.logger().WithError(err).WarnContext(ctx, "update password failed")
		return Outcome{State: Failed(MsgGenericError), Err: err}
	}
	if payload.Token == "" {
		return outcome(Failed(MsgPasswordNotSet))
	}

	out := i.deps.startSession(ctx, payload.Token)
	out.UserID = i.userID
	return out
}
