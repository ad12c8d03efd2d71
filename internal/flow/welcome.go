package flow

import (
	"context"

	"github.com/felixgeelhaar/oneway/internal/errors"
	"github.com/felixgeelhaar/oneway/internal/gateway"
	"github.com/felixgeelhaar/oneway/internal/model"
	"github.com/felixgeelhaar/oneway/internal/session"
)

// Welcome is the dashboard: greeting, member list and the add-member form.
type Welcome struct {
	deps    Deps
	userID  model.ID
	message string
	members []model.Member
}

func NewWelcome(deps Deps) *Welcome {
	return &Welcome{deps: deps}
}

// Load probes /welcome and fetches the members of the signed-in user. A
// rejected probe clears the stored token and sends the user to login.
func (w *Welcome) Load(ctx context.Context) Outcome {
	w.deps.notify(Checking())

	if !w.deps.Session.Authenticated(ctx) {
		return outcome(Redirect(RouteLogin))
	}

	result, err := w.deps.Probes.Welcome(ctx, w.deps.Session)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeRESTStatus) {
			w.endSession(ctx)
			return Outcome{State: Redirect(RouteLogin), Err: err}
		}
		w.deps.logger().WithError(err).WarnContext(ctx, "welcome probe failed")
		return Outcome{State: Failed(MsgGenericError), Err: err}
	}

	w.userID = result.CurrentUserID
	w.message = result.Message
	w.members = w.fetchMembers(ctx, false)

	return Outcome{
		State:   Ready(),
		Message: w.message,
		UserID:  w.userID,
		Members: w.members,
	}
}

// AddMember creates a member managed by the signed-in user. Incomplete forms
// are ignored. A rejected mutation ends the session.
func (w *Welcome) AddMember(ctx context.Context, form model.MemberInput) Outcome {
	if form.Role == "" {
		form.Role = model.RoleMember
	}
	if form.FirstName == "" || form.LastName == "" || form.Email == "" {
		return outcome(Idle())
	}
	if !model.ValidRole(form.Role) {
		return Outcome{
			State: Failed(MsgInvalidRole),
			Err:   errors.New(errors.ErrCodeInvalidRole, MsgInvalidRole),
		}
	}

	token, ok, err := w.deps.Session.Token(ctx)
	if err != nil || !ok {
		return Outcome{State: Failed(MsgNotAuthenticated), Err: err}
	}

	w.deps.notify(Submitting())

	authCtx := gateway.WithAuthorization(ctx, session.BearerValue(token, ok))
	if _, err := w.deps.Gateway.CreateMember(authCtx, form, w.userID); err != nil {
		w.deps.logger().WithError(err).WarnContext(ctx, "create member failed")
		w.endSession(ctx)
		return Outcome{
			State: Redirect(RouteLogin),
			Alert: MsgSignInAgain,
			Err:   err,
		}
	}

	w.message = MsgMemberAdded
	w.members = w.fetchMembers(ctx, true)

	return Outcome{
		State:   Success(),
		Message: w.message,
		UserID:  w.userID,
		Members: w.members,
	}
}

// Logout forgets the token and returns to login.
func (w *Welcome) Logout(ctx context.Context) Outcome {
	w.endSession(ctx)
	w.userID, w.message, w.members = "", "", nil
	return outcome(Redirect(RouteLogin))
}

// Members returns the last fetched member list.
func (w *Welcome) Members() []model.Member {
	return w.members
}

// UserID returns the id reported by the last successful Load.
func (w *Welcome) UserID() model.ID {
	return w.userID
}

// fetchMembers loads the member list. Failures leave the list empty without
// failing the page.
func (w *Welcome) fetchMembers(ctx context.Context, refetch bool) []model.Member {
	if w.userID == "" {
		return nil
	}

	fetch := w.deps.Gateway.GetMembers
	if refetch {
		fetch = w.deps.Gateway.RefetchMembers
	}

	members, err := fetch(ctx, w.userID)
	if err != nil {
		w.deps.logger().WithError(err).WarnContext(ctx, "failed to load members")
		return nil
	}
	return members
}

func (w *Welcome) endSession(ctx context.Context) {
	if err := w.deps.Session.End(ctx); err != nil {
		w.deps.logger().WithError(err).ErrorContext(ctx, "failed to clear session token")
	}
}
