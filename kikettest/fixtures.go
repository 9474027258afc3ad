// Package kikettest provides helpers for exercising extensions in tests:
// signed webhook fixtures, payload replay, and a SQLite delivery recorder.
package kikettest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/kiket-dev/kiket-go-sdk/auth"
)

// SignedPayload is a webhook delivery ready to post at a handler.
type SignedPayload struct {
	Body    []byte
	Headers http.Header
}

// PayloadFactory produces signed deliveries for a fixed secret.
type PayloadFactory func(body map[string]any) (SignedPayload, error)

// NewPayloadFactory returns a factory that serializes bodies and signs them
// with secret. An empty secret yields unsigned fixtures for testing the
// rejection path.
func NewPayloadFactory(secret string) PayloadFactory {
	return func(body map[string]any) (SignedPayload, error) {
		raw, err := json.Marshal(body)
		if err != nil {
			return SignedPayload{}, fmt.Errorf("marshal fixture body: %w", err)
		}

		headers := http.Header{}
		headers.Set("Content-Type", "application/json")
		headers.Set(auth.TimestampHeader, time.Now().UTC().Format(time.RFC3339))
		if secret != "" {
			headers.Set(auth.SignatureHeader, auth.ComputeSignature(secret, raw))
		}
		return SignedPayload{Body: raw, Headers: headers}, nil
	}
}

// Post delivers the payload to handler at path and returns the recorded
// response.
func (p SignedPayload) Post(handler http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytesReader(p.Body))
	for key, values := range p.Headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}
