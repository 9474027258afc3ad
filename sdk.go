// Package kiket is the Kiket extension SDK: it receives webhook deliveries
// from the platform, authenticates them, routes them to registered handlers
// by event name and version, and hands handlers a scoped client for calling
// back into the Kiket API.
package kiket

import (
	"log/slog"
	"os"

	"github.com/kiket-dev/kiket-go-sdk/config"
	"github.com/kiket-dev/kiket-go-sdk/internal/log"
	"github.com/kiket-dev/kiket-go-sdk/manifest"
	"github.com/kiket-dev/kiket-go-sdk/telemetry"
)

// Options configure an SDK instance. The zero value is usable for local
// development: base URL and tokens fall back to environment variables, the
// manifest is discovered from the working directory, and telemetry is on.
type Options struct {
	// WorkspaceToken authenticates outbound calls. Falls back to
	// KIKET_WORKSPACE_TOKEN.
	WorkspaceToken string

	// BaseURL is the Kiket API endpoint. Falls back to KIKET_BASE_URL, then
	// the production default.
	BaseURL string

	// WebhookSecret enables shared-secret (HMAC) verification when no
	// explicit Verifier is supplied. Empty with no Verifier means runtime
	// token verification.
	WebhookSecret string

	// Settings overlay the manifest's configuration defaults.
	Settings map[string]any

	// ExtensionID and ExtensionVersion override the manifest values.
	ExtensionID      string
	ExtensionVersion string

	// ManifestPath points at an explicit manifest file. Empty probes the
	// default candidates; a missing explicit path is an error.
	ManifestPath string

	// DisableEnvSecrets turns off the KIKET_SECRET_* overlay onto manifest
	// secret settings.
	DisableEnvSecrets bool

	// TelemetryDisabled turns off invocation telemetry.
	TelemetryDisabled bool

	// TelemetryURL overrides the collection endpoint. Falls back to
	// KIKET_SDK_TELEMETRY_URL, then {BaseURL}/api/v1/ext.
	TelemetryURL string

	// FeedbackHook receives every telemetry record locally.
	FeedbackHook telemetry.FeedbackHook

	// Verifier overrides the credential verification strategy.
	Verifier Verifier

	// LogLevel configures the SDK logger (DEBUG, INFO, WARN, ERROR).
	LogLevel string
}

// SDK is the main entrypoint for building extensions. Register handlers, then
// serve the HTTP app with Run or mount Handler() yourself.
type SDK struct {
	Config   *config.ExtensionConfig
	Manifest *manifest.Manifest

	registry  *HandlerRegistry
	telemetry *telemetry.Reporter
	verifier  Verifier
	logger    *slog.Logger
}

// New builds an SDK from opts, loading the manifest and resolving
// configuration from options, manifest, and environment in that order.
func New(opts Options) (*SDK, error) {
	log.Setup(opts.LogLevel)

	mf, err := manifest.Load(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	baseURL := firstNonEmpty(opts.BaseURL, os.Getenv("KIKET_BASE_URL"), config.DefaultBaseURL)
	workspaceToken := firstNonEmpty(opts.WorkspaceToken, os.Getenv("KIKET_WORKSPACE_TOKEN"))

	settings := map[string]any{}
	extensionID := opts.ExtensionID
	extensionVersion := opts.ExtensionVersion
	webhookSecret := opts.WebhookSecret

	if mf != nil {
		settings = mf.SettingsDefaults()
		if !opts.DisableEnvSecrets {
			settings = manifest.ApplySecretEnvOverrides(settings, mf.SecretKeys())
		}
		extensionID = firstNonEmpty(extensionID, mf.ExtensionID())
		extensionVersion = firstNonEmpty(extensionVersion, mf.Version())
		webhookSecret = firstNonEmpty(webhookSecret, mf.DeliverySecret())
	}
	for k, v := range opts.Settings {
		settings[k] = v
	}

	cfg := &config.ExtensionConfig{
		WebhookSecret:    webhookSecret,
		WorkspaceToken:   workspaceToken,
		BaseURL:          baseURL,
		Settings:         config.NewSettings(settings),
		ExtensionID:      extensionID,
		ExtensionVersion: extensionVersion,
	}

	verifier := opts.Verifier
	if verifier == nil {
		if webhookSecret != "" {
			verifier = &SharedSecretVerifier{Secret: webhookSecret}
		} else {
			verifier = NewRuntimeTokenVerifier()
		}
	}

	telemetryURL := firstNonEmpty(opts.TelemetryURL, os.Getenv("KIKET_SDK_TELEMETRY_URL"), baseURL+"/api/v1/ext")

	return &SDK{
		Config:   cfg,
		Manifest: mf,
		registry: NewHandlerRegistry(),
		telemetry: telemetry.NewReporter(telemetry.Options{
			Enabled:          !opts.TelemetryDisabled,
			URL:              telemetryURL,
			Hook:             opts.FeedbackHook,
			ExtensionID:      extensionID,
			ExtensionVersion: extensionVersion,
		}),
		verifier: verifier,
		logger:   log.WithComponent("sdk"),
	}, nil
}

// Register binds handler to (event, version) with optional required scopes.
// Registering the same pair twice overwrites the earlier handler.
func (s *SDK) Register(event string, handler Handler, version string, requiredScopes ...string) error {
	return s.registry.Register(event, handler, version, requiredScopes)
}

// RegisterAll registers a collected list of Registration values, stopping at
// the first failure.
func (s *SDK) RegisterAll(registrations ...Registration) error {
	for _, reg := range registrations {
		if err := s.registry.Register(reg.Event, reg.Handler, reg.Version, reg.RequiredScopes); err != nil {
			return err
		}
	}
	return nil
}

// Registry exposes the handler registry for diagnostics.
func (s *SDK) Registry() *HandlerRegistry {
	return s.registry
}

// Telemetry exposes the invocation reporter.
func (s *SDK) Telemetry() *telemetry.Reporter {
	return s.telemetry
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
