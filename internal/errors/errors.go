package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	// ErrConnection means the runtime endpoint is missing or inaccessible. Fatal at startup.
	ErrConnection = "CONNECTION"
	// ErrFetch means a listing or stats call failed. The next scheduled read retries.
	ErrFetch = "FETCH"
	// ErrMutate means a lifecycle command (start/stop/restart/remove) failed.
	ErrMutate = "MUTATE"
	// ErrTimeout means a backend call exceeded its deadline.
	ErrTimeout = "TIMEOUT"
	ErrConfig  = "CONFIG"
	ErrExec    = "EXEC"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrExec code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrExec,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// WrapBackend wraps a failed runtime call. Deadline expiry is reported as
// ErrTimeout regardless of the requested code, so callers can tell a slow
// daemon apart from a rejected request.
func WrapBackend(err error, code, message, suggestion string) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Code:       ErrTimeout,
			Message:    message + " (timed out)",
			Suggestion: "The Docker daemon is slow to respond. Check its health with 'docker info' or raise timeouts.call.",
			Cause:      err,
		}
	}
	return WrapWithCode(err, code, message, suggestion)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Short returns the one-line form used in status bars, without the symbol or suggestion.
func (e *Error) Short() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, firstLine(e.Cause.Error()))
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var dmErr *Error
	if errors.As(err, &dmErr) {
		return dmErr.Code == code
	}
	return false
}

// Summary returns a single-line description of any error, preferring the
// structured short form when available.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var dmErr *Error
	if errors.As(err, &dmErr) {
		return dmErr.Short()
	}
	return firstLine(err.Error())
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "✗ ")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
