package config

import (
	"os"
	"regexp"
	"strings"
)

// EnvSecretPrefix prefixes canonical secret environment variable names.
const EnvSecretPrefix = "KIKET_SECRET_"

var envNamePattern = regexp.MustCompile(`[^A-Z0-9]+`)

// EnvSecretName converts a manifest/config secret key into its canonical
// environment variable name, e.g. "slack-token" -> "KIKET_SECRET_SLACK_TOKEN".
func EnvSecretName(key string) string {
	normalized := envNamePattern.ReplaceAllString(strings.ToUpper(key), "_")
	normalized = strings.Trim(normalized, "_")
	return EnvSecretPrefix + normalized
}

// ResolveEnvReference resolves "env:VARIABLE" references to the environment
// value. Non-reference values pass through unchanged. Unset variables and
// empty variable names resolve to the empty string.
func ResolveEnvReference(value string) string {
	resolved, _ := LookupEnvReference(value)
	return resolved
}

// LookupEnvReference resolves "env:VARIABLE" references. The boolean is false
// only when value is a reference to an unset or unnamed variable.
func LookupEnvReference(value string) (string, bool) {
	const prefix = "env:"
	if !strings.HasPrefix(strings.ToLower(value), prefix) {
		return value, true
	}
	name := strings.TrimSpace(value[len(prefix):])
	if name == "" {
		return "", false
	}
	return os.LookupEnv(name)
}
