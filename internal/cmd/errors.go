package cmd

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/oneway/internal/errors"
	"github.com/felixgeelhaar/oneway/internal/flow"
	"github.com/felixgeelhaar/oneway/internal/gateway"
)

// failureError turns a failed page state into the error the command returns.
// The user-facing reason leads the message; a coded cause keeps its code so
// the exit status reflects what actually went wrong.
func failureError(o flow.Outcome) error {
	reason := o.State.Reason

	switch reason {
	case flow.MsgInvalidCredentials:
		return errors.Wrap(errors.ErrCodeInvalidCredentials, reason, o.Err).
			WithSuggestion("Check your email and password, or create an account with 'oneway signup'")
	case flow.MsgPasswordMismatch:
		return errors.NewPasswordMismatchError()
	case flow.MsgPasswordRequired:
		return errors.NewFieldRequiredError("Password")
	case flow.MsgNoToken:
		return errors.New(errors.ErrCodeInvitationInvalid, reason).
			WithSuggestion("Pass the token from your invitation link: oneway invitation accept <token>")
	case flow.MsgNotAuthenticated:
		if o.Err != nil {
			return o.Err
		}
		return errors.NewNotAuthenticatedError()
	}

	if oe, ok := errors.As(o.Err); ok {
		if oe.Message == reason {
			return oe
		}
		detail := oe.Message
		if msgs := gateway.Messages(oe); len(msgs) > 0 {
			detail = strings.Join(msgs, "; ")
		}
		return errors.Wrap(oe.Code, fmt.Sprintf("%s: %s", reason, detail), oe.Cause).
			WithSuggestions(oe.Suggestions...)
	}
	if o.Err != nil {
		return fmt.Errorf("%s: %w", reason, o.Err)
	}
	return stderrors.New(reason)
}

// sessionError explains a redirect to /login.
func sessionError(o flow.Outcome) error {
	if o.Alert != "" {
		return errors.Wrap(errors.ErrCodeSessionExpired, o.Alert, o.Err).
			WithSuggestion("Run 'oneway login' to sign in again")
	}
	if o.Err != nil {
		return errors.NewSessionExpiredError(o.Err)
	}
	return errors.NewNotAuthenticatedError()
}

// invitationError explains a redirect to /signup from the invitation page.
func invitationError(o flow.Outcome) error {
	return errors.Wrap(errors.ErrCodeInvitationInvalid, "invitation is invalid or has expired", o.Err).
		WithSuggestion("Ask your team admin for a new invitation").
		WithSuggestion("Create your own account with 'oneway signup'")
}
