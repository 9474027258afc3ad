package kiket

import (
	"context"
	"net/http"

	"github.com/kiket-dev/kiket-go-sdk/auth"
)

// Delivery is one raw inbound webhook delivery under verification.
type Delivery struct {
	// Body is the raw request body the signature was computed over.
	Body []byte

	// Headers are the inbound request headers.
	Headers http.Header

	// Payload is the parsed JSON body.
	Payload map[string]any

	// BaseURL is the resolved outbound API endpoint (payload override or
	// SDK default), used for key-set fetches under token verification.
	BaseURL string
}

// Verifier authenticates an inbound delivery and produces the caller's
// identity, or fails closed. Implementations are chosen at configuration
// time; the dispatch engine is agnostic to the strategy.
type Verifier interface {
	Verify(ctx context.Context, d *Delivery) (*auth.Context, error)
}

// SharedSecretVerifier checks the HMAC signature and timestamp headers
// against a pre-shared webhook secret. A verified delivery is granted the
// wildcard scope: the secret proves the platform itself is calling.
type SharedSecretVerifier struct {
	Secret string
}

// Verify implements Verifier.
func (v *SharedSecretVerifier) Verify(_ context.Context, d *Delivery) (*auth.Context, error) {
	if err := auth.VerifySignature(v.Secret, d.Body, d.Headers); err != nil {
		return nil, err
	}
	return auth.SharedSecretContext(), nil
}

// RuntimeTokenVerifier verifies the runtime token embedded in the payload
// against the platform's published key set.
type RuntimeTokenVerifier struct {
	verifier *auth.RuntimeVerifier
}

// NewRuntimeTokenVerifier builds a token verifier with a fresh key-set cache.
func NewRuntimeTokenVerifier() *RuntimeTokenVerifier {
	return &RuntimeTokenVerifier{verifier: auth.NewRuntimeVerifier()}
}

// NewRuntimeTokenVerifierWith wraps an existing auth.RuntimeVerifier, letting
// tests inject clocks and HTTP clients through its key-set cache.
func NewRuntimeTokenVerifierWith(verifier *auth.RuntimeVerifier) *RuntimeTokenVerifier {
	return &RuntimeTokenVerifier{verifier: verifier}
}

// Verify implements Verifier.
func (v *RuntimeTokenVerifier) Verify(ctx context.Context, d *Delivery) (*auth.Context, error) {
	claims, err := v.verifier.VerifyRuntimeToken(ctx, d.Payload, d.BaseURL)
	if err != nil {
		return nil, err
	}
	rawToken, err := auth.RuntimeTokenFromPayload(d.Payload)
	if err != nil {
		return nil, err
	}
	return auth.NewContextFromClaims(claims, rawToken), nil
}

// ClearKeyCache drops the verifier's cached key sets.
func (v *RuntimeTokenVerifier) ClearKeyCache() {
	v.verifier.ClearKeyCache()
}
