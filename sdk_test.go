package kiket

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewResolvesManifestConfig(t *testing.T) {
	t.Setenv("KIKET_TEST_HOOK_SECRET", "manifest-secret")
	t.Setenv("KIKET_SECRET_API_KEY", "env-override")

	path := filepath.Join(t.TempDir(), "extension.yaml")
	content := `
id: com.example.guard
version: 2.1.0
delivery:
  callback:
    secret: env:KIKET_TEST_HOOK_SECRET
configuration:
  properties:
    threshold:
      type: integer
      default: 7
    api_key:
      type: string
      secret: true
      default: manifest-default
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	sdk, err := New(Options{ManifestPath: path, TelemetryDisabled: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if sdk.Config.ExtensionID != "com.example.guard" || sdk.Config.ExtensionVersion != "2.1.0" {
		t.Fatalf("extension identity = %s@%s", sdk.Config.ExtensionID, sdk.Config.ExtensionVersion)
	}
	if sdk.Config.WebhookSecret != "manifest-secret" {
		t.Fatalf("webhook secret = %q", sdk.Config.WebhookSecret)
	}
	if v, _ := sdk.Config.Settings.Get("threshold"); v != 7 {
		t.Fatalf("threshold = %v", v)
	}
	if v, _ := sdk.Config.Settings.Get("api_key"); v != "env-override" {
		t.Fatalf("api_key = %v, want KIKET_SECRET_ override", v)
	}
	// A manifest delivery secret selects shared-secret verification.
	if _, ok := sdk.verifier.(*SharedSecretVerifier); !ok {
		t.Fatalf("verifier = %T, want SharedSecretVerifier", sdk.verifier)
	}
}

func TestNewOptionSettingsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extension.yaml")
	content := `
id: com.example.guard
version: 1.0.0
configuration:
  properties:
    mode:
      type: string
      default: strict
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	sdk, err := New(Options{
		ManifestPath:      path,
		TelemetryDisabled: true,
		Settings:          map[string]any{"mode": "lenient"},
		ExtensionID:       "override-id",
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if v, _ := sdk.Config.Settings.Get("mode"); v != "lenient" {
		t.Fatalf("mode = %v, option overlay should win", v)
	}
	if sdk.Config.ExtensionID != "override-id" {
		t.Fatalf("extension ID = %q, option should win over manifest", sdk.Config.ExtensionID)
	}
}

func TestNewMissingExplicitManifest(t *testing.T) {
	if _, err := New(Options{ManifestPath: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatal("missing explicit manifest accepted")
	}
}

func TestNewDefaultsToRuntimeTokenVerifier(t *testing.T) {
	sdk, err := New(Options{TelemetryDisabled: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := sdk.verifier.(*RuntimeTokenVerifier); !ok {
		t.Fatalf("verifier = %T, want RuntimeTokenVerifier when no secret configured", sdk.verifier)
	}
}

func TestNewEnvFallbacks(t *testing.T) {
	t.Setenv("KIKET_BASE_URL", "https://staging.kiket.dev")
	t.Setenv("KIKET_WORKSPACE_TOKEN", "wk_env")

	sdk, err := New(Options{TelemetryDisabled: true, WebhookSecret: "s"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if sdk.Config.BaseURL != "https://staging.kiket.dev" {
		t.Fatalf("base URL = %q", sdk.Config.BaseURL)
	}
	if sdk.Config.WorkspaceToken != "wk_env" {
		t.Fatalf("workspace token = %q", sdk.Config.WorkspaceToken)
	}
}
