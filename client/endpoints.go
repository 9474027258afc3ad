package client

import (
	"context"
	"net/http"

	"github.com/kiket-dev/kiket-go-sdk/auth"
)

// EndpointsService exposes the common extension endpoints (logs, metrics,
// notifications). When bound to an event version, calls carry the
// X-Kiket-Event-Version header so the platform can attribute them.
type EndpointsService struct {
	client       *Client
	extensionID  string
	eventVersion string
}

// Endpoints returns an endpoints service. eventVersion may be empty.
func (c *Client) Endpoints(extensionID, eventVersion string) *EndpointsService {
	return &EndpointsService{client: c, extensionID: extensionID, eventVersion: eventVersion}
}

// Secrets returns a secret store bound to the service's extension.
func (s *EndpointsService) Secrets() *SecretsService {
	return s.client.Secrets(s.extensionID)
}

// LogEvent records a structured log line on the platform.
func (s *EndpointsService) LogEvent(ctx context.Context, message string, metadata map[string]any) error {
	body := map[string]any{"message": message, "metadata": metadata}
	opts := &RequestOptions{Body: body, Headers: s.versionHeaders()}
	return s.client.Post(ctx, "/api/v1/extensions/logs", opts, nil)
}

// EmitMetric records a metric sample. Unit defaults to "count".
func (s *EndpointsService) EmitMetric(ctx context.Context, name string, value float64, unit string) error {
	if unit == "" {
		unit = "count"
	}
	body := map[string]any{"name": name, "value": value, "unit": unit}
	opts := &RequestOptions{Body: body, Headers: s.versionHeaders()}
	return s.client.Post(ctx, "/api/v1/extensions/metrics", opts, nil)
}

// Notify sends a user-facing notification. Level defaults to "info".
func (s *EndpointsService) Notify(ctx context.Context, title, body, level string) error {
	if level == "" {
		level = "info"
	}
	payload := map[string]any{"title": title, "body": body, "level": level}
	opts := &RequestOptions{Body: payload, Headers: s.versionHeaders()}
	return s.client.Post(ctx, "/api/v1/extensions/notifications", opts, nil)
}

func (s *EndpointsService) versionHeaders() http.Header {
	if s.eventVersion == "" {
		return nil
	}
	h := http.Header{}
	h.Set(auth.VersionHeader, s.eventVersion)
	return h
}
