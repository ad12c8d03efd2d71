// Package flow implements the page flows of the client: login, signup,
// invitation acceptance and the welcome dashboard. Each operation returns an
// Outcome whose State is one of a closed set of kinds, and whose Route tells
// the caller where to go next.
package flow

import (
	"github.com/felixgeelhaar/oneway/internal/model"
)

// Kind tags a page state.
type Kind int

const (
	KindIdle Kind = iota
	KindChecking
	KindSubmitting
	KindReady
	KindSuccess
	KindRedirect
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindChecking:
		return "checking"
	case KindSubmitting:
		return "submitting"
	case KindReady:
		return "ready"
	case KindSuccess:
		return "success"
	case KindRedirect:
		return "redirect"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Route is a navigation target.
type Route string

const (
	RouteLogin   Route = "/login"
	RouteSignup  Route = "/signup"
	RouteWelcome Route = "/welcome"
)

// State is a page state. Route is set only for KindRedirect and Reason only
// for KindFailed.
type State struct {
	Kind   Kind
	Route  Route
	Reason string
}

func Idle() State       { return State{Kind: KindIdle} }
func Checking() State   { return State{Kind: KindChecking} }
func Submitting() State { return State{Kind: KindSubmitting} }
func Ready() State      { return State{Kind: KindReady} }
func Success() State    { return State{Kind: KindSuccess} }

// Redirect navigates to route.
func Redirect(route Route) State { return State{Kind: KindRedirect, Route: route} }

// Failed stays on the page with reason shown to the user.
func Failed(reason string) State { return State{Kind: KindFailed, Reason: reason} }

func (s State) String() string {
	switch s.Kind {
	case KindRedirect:
		return "redirect(" + string(s.Route) + ")"
	case KindFailed:
		return "failed(" + s.Reason + ")"
	default:
		return s.Kind.String()
	}
}

// User-facing messages.
const (
	MsgInvalidCredentials = "Invalid Credentials."
	MsgPasswordMismatch   = "Passwords do not match"
	MsgPasswordRequired   = "Password is required"
	MsgNoToken            = "No token found"
	MsgGenericError       = "An error occurred"
	MsgPasswordNotSet     = "Password not set, something went wrong"
	MsgNotAuthenticated   = "Not Authenticated"
	MsgMemberAdded        = "Member added successfully"
	MsgSignInAgain        = "Some Problem Occur. Try Signing in Again."
	MsgSignupFailed       = "Error creating user"
	MsgInvalidRole        = "Role must be admin or member"
)

// Outcome is the result of a flow operation.
type Outcome struct {
	State State

	// Alert is a blocking message the user must acknowledge.
	Alert string

	// ClearForm asks the caller to empty the form fields.
	ClearForm bool

	Message string
	UserID  model.ID
	Members []model.Member

	// Err is the underlying cause of a failure, for logging.
	Err error
}

// Route returns the redirect target, or "" when the outcome stays on the page.
func (o Outcome) Route() Route {
	if o.State.Kind != KindRedirect {
		return ""
	}
	return o.State.Route
}

func outcome(s State) Outcome { return Outcome{State: s} }
