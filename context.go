package kiket

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/kiket-dev/kiket-go-sdk/auth"
	"github.com/kiket-dev/kiket-go-sdk/client"
	"github.com/kiket-dev/kiket-go-sdk/config"
)

// ScopeChecker lets handler code demand additional scopes mid-execution. It
// returns a *ScopeError listing required/available/missing scopes on deficit.
type ScopeChecker func(required ...string) error

// SecretLookup resolves a secret key, preferring the delivery's payload
// secrets over the process environment. Returns "" when the key is unknown.
type SecretLookup func(key string) string

// HandlerContext is the per-invocation bundle passed to handlers. It is built
// fresh for every dispatch and discarded when the handler returns.
type HandlerContext struct {
	// Event and EventVersion identify the resolved handler registration.
	Event        string
	EventVersion string

	// Headers are the inbound delivery headers.
	Headers http.Header

	// Client is an outbound API client bound to the verified identity.
	Client *client.Client

	// Endpoints exposes the common extension endpoints, version-bound.
	Endpoints *client.EndpointsService

	// Secrets manages the extension's secret store.
	Secrets *client.SecretsService

	// Settings are the merged manifest/option settings.
	Settings config.Settings

	ExtensionID      string
	ExtensionVersion string

	// Secret resolves a single secret by key (payload first, then env).
	Secret SecretLookup

	// PayloadSecrets is the per-caller secret bundle embedded in the payload.
	PayloadSecrets map[string]string

	// Auth is the verified identity of this delivery.
	Auth *auth.Context

	// Logger is pre-tagged with the event, version, and delivery ID.
	Logger *slog.Logger

	// RequireScopes asserts the caller's grant covers additional scopes.
	RequireScopes ScopeChecker
}

func buildScopeChecker(granted []string) ScopeChecker {
	return func(required ...string) error {
		missing := auth.MissingScopes(required, granted)
		if len(missing) == 0 {
			return nil
		}
		return &ScopeError{Required: required, Available: granted, Missing: missing}
	}
}

// buildSecretLookup prefers payload secrets (per-org, bundled by the
// platform's secret resolver) over environment variables (extension defaults).
func buildSecretLookup(payloadSecrets map[string]string) SecretLookup {
	return func(key string) string {
		if v, ok := payloadSecrets[key]; ok && v != "" {
			return v
		}
		return os.Getenv(key)
	}
}

// payloadSecretsFrom extracts the "secrets" bundle from a parsed payload.
func payloadSecretsFrom(payload map[string]any) map[string]string {
	raw, _ := payload["secrets"].(map[string]any)
	secrets := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			secrets[k] = s
		}
	}
	return secrets
}
