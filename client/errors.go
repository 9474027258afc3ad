package client

// OutboundError is returned when a call back into the Kiket API fails, either
// at the transport level (StatusCode zero) or with an HTTP error status.
type OutboundError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *OutboundError) Error() string {
	return e.Message
}

func (e *OutboundError) Unwrap() error {
	return e.Cause
}

// SecretStoreError is returned when secret store operations fail.
type SecretStoreError struct {
	Message string
	Cause   error
}

func (e *SecretStoreError) Error() string {
	return e.Message
}

func (e *SecretStoreError) Unwrap() error {
	return e.Cause
}

// AuditError is returned when audit verification operations fail.
type AuditError struct {
	Message string
	Cause   error
}

func (e *AuditError) Error() string {
	return e.Message
}

func (e *AuditError) Unwrap() error {
	return e.Cause
}
