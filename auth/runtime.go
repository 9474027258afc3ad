package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kiket-dev/kiket-go-sdk/internal/log"
)

const (
	// ExpectedIssuer is the issuer every runtime token must carry.
	ExpectedIssuer = "https://kiket.dev"

	// RuntimeTokenType marks contexts authenticated via a runtime token.
	RuntimeTokenType = "runtime"
)

// RuntimeClaims are the verified claims of a runtime token.
type RuntimeClaims struct {
	OrgID          string   `json:"org_id,omitempty"`
	ExtensionID    string   `json:"extension_id,omitempty"`
	ProjectID      string   `json:"project_id,omitempty"`
	InstallationID string   `json:"installation_id,omitempty"`
	Scopes         []string `json:"scopes,omitempty"`
	Source         string   `json:"source,omitempty"`
	jwt.RegisteredClaims
}

// RuntimeVerifier verifies runtime tokens embedded in webhook payloads against
// the platform's published key set. Safe for concurrent use.
type RuntimeVerifier struct {
	keys   *KeySetCache
	parser *jwt.Parser
	logger *slog.Logger
}

// NewRuntimeVerifier builds a verifier with its own key-set cache.
func NewRuntimeVerifier() *RuntimeVerifier {
	return NewRuntimeVerifierWithCache(NewKeySetCache())
}

// NewRuntimeVerifierWithCache builds a verifier around an existing cache,
// letting tests inject clocks and HTTP clients.
func NewRuntimeVerifierWithCache(cache *KeySetCache) *RuntimeVerifier {
	return &RuntimeVerifier{
		keys: cache,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"ES256"}),
			jwt.WithIssuer(ExpectedIssuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
		logger: log.WithComponent("auth"),
	}
}

// ClearKeyCache drops all cached key sets. Needed after key rotation; there is
// no automatic invalidation on verification failure.
func (v *RuntimeVerifier) ClearKeyCache() {
	v.keys.Clear()
}

// RuntimeTokenFromPayload extracts the raw runtime token from a parsed webhook
// payload (payload.authentication.runtime_token).
func RuntimeTokenFromPayload(payload map[string]any) (string, error) {
	authentication, _ := payload["authentication"].(map[string]any)
	token, _ := authentication["runtime_token"].(string)
	if token == "" {
		return "", NewError("missing runtime_token in payload authentication")
	}
	return token, nil
}

// VerifyRuntimeToken extracts and verifies the runtime token carried by
// payload, resolving signing keys from the key set published at baseURL.
func (v *RuntimeVerifier) VerifyRuntimeToken(ctx context.Context, payload map[string]any, baseURL string) (*RuntimeClaims, error) {
	token, err := RuntimeTokenFromPayload(payload)
	if err != nil {
		return nil, err
	}

	claims := &RuntimeClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.keys.Key(ctx, baseURL, kid)
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if !parsed.Valid {
		return nil, NewError("invalid runtime token")
	}
	if claims.IssuedAt == nil {
		return nil, NewError("runtime token missing iat claim")
	}

	v.logger.Debug("runtime token verified",
		"org_id", claims.OrgID,
		"extension_id", claims.ExtensionID,
		"source", claims.Source,
	)
	return claims, nil
}

// classifyTokenError keeps expiry and issuer mismatches distinguishable while
// collapsing everything else to a generic message carrying the cause.
func classifyTokenError(err error) error {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &Error{Message: "runtime token expired", Cause: err}
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return &Error{Message: "runtime token issuer mismatch", Cause: err}
	default:
		return &Error{Message: "invalid runtime token: " + err.Error(), Cause: err}
	}
}
