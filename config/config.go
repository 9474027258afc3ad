// Package config holds the SDK-level configuration handed to extensions.
package config

import "fmt"

// DefaultBaseURL is the production Kiket API endpoint.
const DefaultBaseURL = "https://kiket.dev"

// Settings are manifest-derived runtime settings exposed to handlers.
type Settings struct {
	raw map[string]any
}

// NewSettings wraps a settings map. A nil map yields empty settings.
func NewSettings(raw map[string]any) Settings {
	if raw == nil {
		raw = map[string]any{}
	}
	return Settings{raw: raw}
}

// Get returns the setting for key and whether it was present.
func (s Settings) Get(key string) (any, bool) {
	v, ok := s.raw[key]
	return v, ok
}

// GetDefault returns the setting for key, or def when absent.
func (s Settings) GetDefault(key string, def any) any {
	if v, ok := s.raw[key]; ok {
		return v
	}
	return def
}

// Require returns the setting for key or an error naming the missing key.
func (s Settings) Require(key string) (any, error) {
	v, ok := s.raw[key]
	if !ok {
		return nil, fmt.Errorf("missing required extension setting %q", key)
	}
	return v, nil
}

// Raw exposes the underlying map. Callers must not mutate it.
func (s Settings) Raw() map[string]any {
	return s.raw
}

// ExtensionConfig is the top-level SDK configuration.
type ExtensionConfig struct {
	// WebhookSecret is the shared secret for verifying inbound signatures
	// under shared-secret deployments. Optional but strongly recommended.
	WebhookSecret string

	// WorkspaceToken authenticates outbound calls back into Kiket.
	WorkspaceToken string

	// BaseURL is the Kiket API endpoint, overridable for staging.
	BaseURL string

	// Settings are manifest-derived values consumed by handlers.
	Settings Settings

	// ExtensionID is the extension identifier (e.g. "com.example.integration").
	ExtensionID string

	// ExtensionVersion is the extension runtime version, used for health
	// reporting and telemetry.
	ExtensionVersion string
}
