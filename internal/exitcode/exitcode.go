package exitcode

import (
	"os"
	"strings"

	"github.com/felixgeelhaar/oneway/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage or rejected input
	UsageError = 2

	// ConfigError indicates an unreadable or invalid configuration
	ConfigError = 3

	// StoreError indicates the credential store could not be read or written
	StoreError = 4

	// AuthError indicates the backend rejected the credentials or session
	AuthError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// Interrupted indicates the user cancelled with SIGINT or SIGTERM
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps coded errors by category, then falls back to
// recognising cobra's usage messages.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if oe, ok := errors.As(err); ok {
		switch oe.Code {
		case errors.ErrCodeNotAuthenticated, errors.ErrCodeStoreDecrypt, errors.ErrCodeRESTStatus:
			return AuthError
		}

		switch oe.Category() {
		case "NET":
			return NetworkError
		case "AUTH":
			return AuthError
		case "VALIDATION":
			return UsageError
		case "CONFIG":
			return ConfigError
		case "STORE":
			return StoreError
		}
		return GeneralError
	}

	errMsg := strings.ToLower(err.Error())

	// Usage errors
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown shorthand flag") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "accepts ") {
		return UsageError
	}

	// Default to general error
	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments or input)"
	case ConfigError:
		return "Configuration error"
	case StoreError:
		return "Credential store error"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
