package kikettest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
)

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

// ReplayFile posts the JSON payload stored at path to handler as a delivery
// for event at version, returning the decoded response body. version may be
// empty when the payload itself does not need one (the caller's handler
// decides how to respond). A non-2xx response is returned as an error.
func ReplayFile(handler http.Handler, event, version, path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload file: %w", err)
	}
	return Replay(handler, event, version, raw)
}

// Replay posts raw as a webhook delivery for event at version and decodes
// the JSON response.
func Replay(handler http.Handler, event, version string, raw []byte) (map[string]any, error) {
	target := "/webhooks/" + event
	if version != "" {
		target = "/v/" + version + "/webhooks/" + event
	}

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code < 200 || rec.Code >= 300 {
		return nil, fmt.Errorf("replay of %s returned %d: %s", event, rec.Code, rec.Body.String())
	}

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("decode replay response: %w", err)
	}
	return out, nil
}
