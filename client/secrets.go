package client

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/kiket-dev/kiket-go-sdk/config"
)

// SecretMetadata describes a stored extension secret without its value.
type SecretMetadata struct {
	Key       string     `json:"key"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// SecretValue is a secret with its decrypted value.
type SecretValue struct {
	SecretMetadata
	Value string `json:"value"`
}

// SecretsService manages extension secrets via the Kiket API. On Get, a
// canonical KIKET_SECRET_* environment variable wins over the remote store so
// local development never needs platform round-trips.
type SecretsService struct {
	client      *Client
	extensionID string
}

// Secrets returns a secrets service bound to extensionID.
func (c *Client) Secrets(extensionID string) *SecretsService {
	return &SecretsService{client: c, extensionID: extensionID}
}

// WithExtension rebinds the service to another extension.
func (s *SecretsService) WithExtension(extensionID string) *SecretsService {
	return &SecretsService{client: s.client, extensionID: extensionID}
}

type secretItem struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// List returns metadata for every secret stored for the extension.
func (s *SecretsService) List(ctx context.Context) ([]SecretMetadata, error) {
	ext, err := s.resolveExtensionID()
	if err != nil {
		return nil, err
	}

	var items []secretItem
	if err := s.client.Get(ctx, "/api/v1/extensions/"+url.PathEscape(ext)+"/secrets", nil, &items); err != nil {
		return nil, &SecretStoreError{
			Message: fmt.Sprintf("failed to list secrets for extension %q", ext),
			Cause:   err,
		}
	}

	out := make([]SecretMetadata, 0, len(items))
	for _, item := range items {
		out = append(out, SecretMetadata{
			Key:       item.Key,
			CreatedAt: parseTimestamp(item.CreatedAt),
			UpdatedAt: parseTimestamp(item.UpdatedAt),
		})
	}
	return out, nil
}

// Get returns a secret value, preferring the KIKET_SECRET_* environment
// variable over the remote store.
func (s *SecretsService) Get(ctx context.Context, key string) (*SecretValue, error) {
	if env, ok := os.LookupEnv(config.EnvSecretName(key)); ok {
		return &SecretValue{SecretMetadata: SecretMetadata{Key: key}, Value: env}, nil
	}

	ext, err := s.resolveExtensionID()
	if err != nil {
		return nil, err
	}

	var item secretItem
	path := "/api/v1/extensions/" + url.PathEscape(ext) + "/secrets/" + url.PathEscape(key)
	if err := s.client.Get(ctx, path, nil, &item); err != nil {
		return nil, &SecretStoreError{
			Message: fmt.Sprintf("failed to load secret %q for extension %q", key, ext),
			Cause:   err,
		}
	}
	if item.Key == "" {
		item.Key = key
	}

	return &SecretValue{
		SecretMetadata: SecretMetadata{
			Key:       item.Key,
			CreatedAt: parseTimestamp(item.CreatedAt),
			UpdatedAt: parseTimestamp(item.UpdatedAt),
		},
		Value: item.Value,
	}, nil
}

// Set stores a secret. Blank values are rejected.
func (s *SecretsService) Set(ctx context.Context, key, value string) error {
	if value == "" {
		return &SecretStoreError{Message: "secret value cannot be blank"}
	}

	ext, err := s.resolveExtensionID()
	if err != nil {
		return err
	}

	body := map[string]any{"secret": map[string]string{"key": key, "value": value}}
	path := "/api/v1/extensions/" + url.PathEscape(ext) + "/secrets"
	if err := s.client.Post(ctx, path, &RequestOptions{Body: body}, nil); err != nil {
		return &SecretStoreError{
			Message: fmt.Sprintf("failed to persist secret %q for extension %q", key, ext),
			Cause:   err,
		}
	}
	return nil
}

// Delete removes a secret.
func (s *SecretsService) Delete(ctx context.Context, key string) error {
	ext, err := s.resolveExtensionID()
	if err != nil {
		return err
	}

	path := "/api/v1/extensions/" + url.PathEscape(ext) + "/secrets/" + url.PathEscape(key)
	if err := s.client.Delete(ctx, path, nil, nil); err != nil {
		return &SecretStoreError{
			Message: fmt.Sprintf("failed to delete secret %q for extension %q", key, ext),
			Cause:   err,
		}
	}
	return nil
}

func (s *SecretsService) resolveExtensionID() (string, error) {
	if s.extensionID == "" {
		return "", &SecretStoreError{Message: "extension ID is required when managing secrets"}
	}
	return s.extensionID, nil
}

// parseTimestamp parses ISO-8601 timestamps, accepting a trailing Z as UTC.
// Unparsable or empty values yield nil.
func parseTimestamp(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}
