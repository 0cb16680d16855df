package errors

import (
	"errors"
	"fmt"
)

// Process exit statuses used by the CLI.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitConnection = 2
	ExitConfig     = 3
)

// ExitError carries an explicit process exit code up to main without printing anything.
type ExitError struct {
	Code int
}

// NewExitError creates an ExitError for the given code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// GetExitCode extracts the code from an ExitError anywhere in the chain.
func GetExitCode(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// ExitCodeFor maps an error to a process exit status. Connection failures
// get their own status so wrapper scripts can tell "daemon down" apart from
// a failed command.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	if code, ok := GetExitCode(err); ok {
		return code
	}
	switch {
	case IsCode(err, ErrConnection):
		return ExitConnection
	case IsCode(err, ErrConfig):
		return ExitConfig
	default:
		return ExitFailure
	}
}
