package auth

import "time"

// Context is the authenticated identity attached to a single webhook delivery.
// It is built once after verification succeeds, never mutated, and discarded
// when the request completes.
type Context struct {
	// RuntimeToken is the raw token exactly as presented in the payload,
	// empty under shared-secret verification.
	RuntimeToken string

	// TokenType identifies the verification strategy ("runtime" or "shared_secret").
	TokenType string

	// ExpiresAt is the token expiry rendered as UTC RFC3339, empty when the
	// credential carries no expiry.
	ExpiresAt string

	// Scopes are the capabilities granted to the caller. "*" grants everything.
	Scopes []string

	OrgID       string
	ExtensionID string
	ProjectID   string
}

// NewContextFromClaims derives a Context from verified runtime-token claims.
// rawToken must be the token string exactly as presented in the payload.
func NewContextFromClaims(claims *RuntimeClaims, rawToken string) *Context {
	expiresAt := ""
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}

	scopes := claims.Scopes
	if scopes == nil {
		scopes = []string{}
	}

	return &Context{
		RuntimeToken: rawToken,
		TokenType:    RuntimeTokenType,
		ExpiresAt:    expiresAt,
		Scopes:       scopes,
		OrgID:        claims.OrgID,
		ExtensionID:  claims.ExtensionID,
		ProjectID:    claims.ProjectID,
	}
}

// SharedSecretContext is the identity used when a delivery was verified with
// the shared webhook secret. The secret proves the platform is the caller, so
// the grant is unrestricted.
func SharedSecretContext() *Context {
	return &Context{
		TokenType: "shared_secret",
		Scopes:    []string{Wildcard},
	}
}
