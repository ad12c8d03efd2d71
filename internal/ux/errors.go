package ux

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/oneway/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a suggestion to uncoded errors. Coded errors already
// carry their own suggestions and are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "permission denied") {
		if strings.Contains(errMsg, ".oneway") {
			return NewErrorWithSuggestion(err,
				"Check that ~/.oneway is owned by you and has mode 0700")
		}
		return NewErrorWithSuggestion(err,
			"Check file permissions and ensure you have access to the required files/directories")
	}

	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no route to host") {
		return NewErrorWithSuggestion(err,
			"Check that the backend is running, or point ONEWAY_GRAPHQL_URL and ONEWAY_API_URL at it")
	}

	if strings.Contains(errMsg, "no such host") {
		return NewErrorWithSuggestion(err,
			"Check the endpoint host names with 'oneway config view'")
	}

	if strings.Contains(errMsg, "could not open a new TTY") || strings.Contains(errMsg, "not a terminal") {
		return NewErrorWithSuggestion(err,
			"Pass the values as flags when running without a terminal")
	}

	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}
