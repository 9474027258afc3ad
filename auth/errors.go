package auth

// Error is returned when credential verification of an inbound webhook
// delivery fails. The message is safe to surface to the caller; the wrapped
// cause, when present, is for logs only.
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

// NewError builds an authentication failure with a caller-safe message.
func NewError(message string) *Error {
	return &Error{Message: message}
}
