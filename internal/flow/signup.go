package flow

import (
	"context"

	"github.com/felixgeelhaar/oneway/internal/model"
)

// SignupForm is the registration form.
type SignupForm struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Signup is the registration page.
type Signup struct {
	deps Deps
}

func NewSignup(deps Deps) *Signup {
	return &Signup{deps: deps}
}

// Load redirects signed-in users to the dashboard.
func (s *Signup) Load(ctx context.Context) Outcome {
	return s.deps.checkSession(ctx)
}

// Submit registers a new account. Mismatched passwords are rejected before
// any request is made; a rejected mutation clears the form and raises an
// alert.
func (s *Signup) Submit(ctx context.Context, form SignupForm) Outcome {
	if form.Password != form.ConfirmPassword {
		return outcome(Failed(MsgPasswordMismatch))
	}

	s.deps.notify(Submitting())

	payload, err := s.deps.Gateway.Signup(ctx, model.SignupInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
	})
	if err != nil {
		s.deps.logger().WithError(err).ErrorContext(ctx, "error creating user")
		return Outcome{
			State:     Failed(MsgSignupFailed),
			Alert:     MsgSignupFailed,
			ClearForm: true,
			Err:       err,
		}
	}

	out := s.deps.startSession(ctx, payload.Token)
	if payload.User != nil {
		out.UserID = payload.User.ID
	}
	return out
}
