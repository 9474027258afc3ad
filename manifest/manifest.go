// Package manifest loads extension manifest metadata from YAML.
package manifest

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/kiket-dev/kiket-go-sdk/config"
)

// DefaultFilenames are the manifest candidates probed when no path is given.
var DefaultFilenames = []string{
	"extension.yaml",
	"extension.yml",
	"manifest.yaml",
	"manifest.yml",
}

// NotFoundError reports that an explicitly supplied manifest path is missing.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("manifest file not found at %s", e.Path)
}

// Manifest is a loaded extension manifest.
type Manifest struct {
	Path string
	Raw  map[string]any
}

// Load reads a manifest from path, or probes DefaultFilenames when path is
// empty. Returns (nil, nil) when no manifest exists and none was demanded.
func Load(path string) (*Manifest, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, &NotFoundError{Path: path}
		}
		return loadFile(path)
	}

	for _, name := range DefaultFilenames {
		if _, err := os.Stat(name); err == nil {
			return loadFile(name)
		}
	}
	return nil, nil
}

func loadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &Manifest{Path: path, Raw: raw}, nil
}

// ExtensionID returns the manifest's extension identifier, from the top level
// or the nested extension block.
func (m *Manifest) ExtensionID() string {
	if id, ok := m.Raw["id"].(string); ok && id != "" {
		return id
	}
	id, _ := m.extensionBlock()["id"].(string)
	return id
}

// Version returns the manifest's extension version.
func (m *Manifest) Version() string {
	if v, ok := m.Raw["version"].(string); ok && v != "" {
		return v
	}
	v, _ := m.extensionBlock()["version"].(string)
	return v
}

// DeliverySecret returns the webhook delivery secret, resolving env:
// references. The delivery block may be a plain string or a nested
// delivery.callback.secret value.
func (m *Manifest) DeliverySecret() string {
	delivery := m.Raw["delivery"]
	if delivery == nil {
		delivery = m.extensionBlock()["delivery"]
	}

	switch d := delivery.(type) {
	case string:
		return config.ResolveEnvReference(d)
	case map[string]any:
		callback, _ := d["callback"].(map[string]any)
		secret, _ := callback["secret"].(string)
		return config.ResolveEnvReference(secret)
	}
	return ""
}

// ConfigurationProperties returns the manifest's configuration property map.
func (m *Manifest) ConfigurationProperties() map[string]map[string]any {
	cfg, _ := m.Raw["configuration"].(map[string]any)
	if cfg == nil {
		cfg, _ = m.extensionBlock()["configuration"].(map[string]any)
	}
	properties, _ := cfg["properties"].(map[string]any)

	out := make(map[string]map[string]any, len(properties))
	for key, meta := range properties {
		if metaMap, ok := meta.(map[string]any); ok {
			out[key] = metaMap
		}
	}
	return out
}

// SettingsDefaults collects the default value of every configuration
// property, resolving env: references.
func (m *Manifest) SettingsDefaults() map[string]any {
	defaults := map[string]any{}
	for key, meta := range m.ConfigurationProperties() {
		value := meta["default"]
		if s, ok := value.(string); ok {
			resolved, found := config.LookupEnvReference(s)
			if !found {
				continue
			}
			value = resolved
		}
		if value != nil {
			defaults[key] = value
		}
	}
	return defaults
}

// SecretKeys lists configuration properties flagged as secrets.
func (m *Manifest) SecretKeys() []string {
	var keys []string
	for key, meta := range m.ConfigurationProperties() {
		if secret, ok := meta["secret"].(bool); ok && secret {
			keys = append(keys, key)
		}
	}
	return keys
}

// Checksum returns the BLAKE3 digest of the manifest file, used as an
// integrity marker on the health endpoint.
func (m *Manifest) Checksum() (string, error) {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read manifest for checksum: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ApplySecretEnvOverrides overlays settings with environment-provided secret
// values, returning a new map. For each secret key the canonical
// KIKET_SECRET_* variable wins when set.
func ApplySecretEnvOverrides(settings map[string]any, secretKeys []string) map[string]any {
	merged := make(map[string]any, len(settings))
	for k, v := range settings {
		merged[k] = v
	}
	for _, key := range secretKeys {
		if value, ok := os.LookupEnv(config.EnvSecretName(key)); ok {
			merged[key] = value
		}
	}
	return merged
}

func (m *Manifest) extensionBlock() map[string]any {
	block, _ := m.Raw["extension"].(map[string]any)
	return block
}
