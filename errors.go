package kiket

import (
	"fmt"
	"strings"
)

// Error is the SDK's execution error: a handler failure wrapped with its
// original message, surfaced to the platform as a 400 with an error envelope.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// wrapHandlerError converts a handler failure into an *Error carrying the
// original message. Existing *Error values pass through unchanged.
func wrapHandlerError(err error) *Error {
	if sdkErr, ok := err.(*Error); ok {
		return sdkErr
	}
	return &Error{Message: err.Error(), Cause: err}
}

// ScopeError is returned by the in-handler scope checker when the caller's
// grant does not cover the scopes a handler demands mid-execution.
type ScopeError struct {
	Required  []string
	Available []string
	Missing   []string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("insufficient scopes: required [%s], available [%s], missing [%s]",
		strings.Join(e.Required, ", "),
		strings.Join(e.Available, ", "),
		strings.Join(e.Missing, ", "),
	)
}
