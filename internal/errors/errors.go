package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Transport errors (NET-001 to NET-099)
	ErrCodeNetworkUnavailable ErrorCode = "NET-001"
	ErrCodeNetworkTimeout     ErrorCode = "NET-002"
	ErrCodeNetworkCanceled    ErrorCode = "NET-003"

	// GraphQL operation errors (GQL-001 to GQL-099)
	ErrCodeGraphQLOperation ErrorCode = "GQL-001"
	ErrCodeGraphQLDecode    ErrorCode = "GQL-002"
	ErrCodeGraphQLEmpty     ErrorCode = "GQL-003"

	// REST probe errors (REST-001 to REST-099)
	ErrCodeRESTStatus ErrorCode = "REST-001"
	ErrCodeRESTDecode ErrorCode = "REST-002"

	// Client-side validation errors (VALIDATION-001 to VALIDATION-099)
	ErrCodePasswordMismatch ErrorCode = "VALIDATION-001"
	ErrCodeFieldRequired    ErrorCode = "VALIDATION-002"
	ErrCodeInvalidRole      ErrorCode = "VALIDATION-003"

	// Credential store errors (STORE-001 to STORE-099)
	ErrCodeStoreRead        ErrorCode = "STORE-001"
	ErrCodeStoreWrite       ErrorCode = "STORE-002"
	ErrCodeStoreEmptyToken  ErrorCode = "STORE-003"
	ErrCodeStoreDecrypt     ErrorCode = "STORE-004"
	ErrCodeNotAuthenticated ErrorCode = "STORE-005"

	// Authentication outcomes (AUTH-001 to AUTH-099)
	ErrCodeInvalidCredentials ErrorCode = "AUTH-001"
	ErrCodeSessionExpired     ErrorCode = "AUTH-002"
	ErrCodeInvitationInvalid  ErrorCode = "AUTH-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigRead    ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid ErrorCode = "CONFIG-002"
)

// OnewayError represents an error with code, suggestions, and documentation
type OnewayError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *OnewayError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *OnewayError) Unwrap() error {
	return e.Cause
}

// Category returns the code prefix, e.g. "NET" for "NET-001".
func (e *OnewayError) Category() string {
	code := string(e.Code)
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}
	return code
}

// New creates a new OnewayError
func New(code ErrorCode, message string) *OnewayError {
	return &OnewayError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new OnewayError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *OnewayError {
	return &OnewayError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *OnewayError) WithSuggestion(suggestion string) *OnewayError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *OnewayError) WithSuggestions(suggestions ...string) *OnewayError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *OnewayError) WithDocs(url string) *OnewayError {
	e.DocsURL = url
	return e
}

// As finds the first OnewayError in err's chain.
func As(err error) (*OnewayError, bool) {
	var oe *OnewayError
	if stderrors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// CodeOf returns the code of the first OnewayError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if oe, ok := As(err); ok {
		return oe.Code
	}
	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if oe, ok := err.(*OnewayError); ok && oe.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// Common error constructors for frequently used errors

// NewNetworkError creates a transport failure error
func NewNetworkError(endpoint string, cause error) *OnewayError {
	return Wrap(ErrCodeNetworkUnavailable, fmt.Sprintf("request to %s failed", endpoint), cause).
		WithSuggestion("Check that the backend is running and reachable").
		WithSuggestion("Verify endpoints with 'oneway config view'")
}

// NewStatusError creates a REST non-success status error
func NewStatusError(endpoint string, status int) *OnewayError {
	return New(ErrCodeRESTStatus, fmt.Sprintf("%s returned status %d", endpoint, status))
}

// NewGraphQLError creates a GraphQL operation error
func NewGraphQLError(operation string, cause error) *OnewayError {
	return Wrap(ErrCodeGraphQLOperation, fmt.Sprintf("graphql operation %s failed", operation), cause)
}

// NewPasswordMismatchError creates the password confirmation error
func NewPasswordMismatchError() *OnewayError {
	return New(ErrCodePasswordMismatch, "Passwords do not match")
}

// NewFieldRequiredError creates a missing field error
func NewFieldRequiredError(field string) *OnewayError {
	return New(ErrCodeFieldRequired, fmt.Sprintf("%s is required", field))
}

// NewNotAuthenticatedError creates the no-token error
func NewNotAuthenticatedError() *OnewayError {
	return New(ErrCodeNotAuthenticated, "Not Authenticated").
		WithSuggestion("Run 'oneway login' to authenticate")
}

// NewSessionExpiredError creates the error reported when the backend rejects
// the stored token
func NewSessionExpiredError(cause error) *OnewayError {
	return Wrap(ErrCodeSessionExpired, "session expired", cause).
		WithSuggestion("Run 'oneway login' to sign in again")
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *OnewayError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Run 'oneway config view' to inspect the effective configuration").
		WithSuggestion("Run 'oneway config path' to locate the configuration file")
}
