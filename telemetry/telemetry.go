// Package telemetry reports handler invocation outcomes to local feedback
// hooks and a remote collection endpoint. Delivery is best-effort: no failure
// here ever reaches the dispatch path.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiket-dev/kiket-go-sdk/internal/log"
)

const postTimeout = 2 * time.Second

// Invocation outcome statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Record captures the outcome of a single handler invocation.
type Record struct {
	ID               string         `json:"id"`
	Event            string         `json:"event"`
	Version          string         `json:"version"`
	Status           string         `json:"status"`
	DurationMS       float64        `json:"duration_ms"`
	ExtensionID      string         `json:"extension_id,omitempty"`
	ExtensionVersion string         `json:"extension_version,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
}

// FeedbackHook receives every record locally. Errors and panics are swallowed
// and logged, never propagated.
type FeedbackHook func(ctx context.Context, record Record) error

// Options configure a Reporter.
type Options struct {
	// Enabled turns reporting on. The KIKET_SDK_TELEMETRY_OPTOUT environment
	// variable overrides it to off when truthy.
	Enabled bool

	// URL is the remote collection endpoint. Falls back to
	// KIKET_SDK_TELEMETRY_URL; empty disables the remote leg.
	URL string

	// Hook is an optional local feedback hook.
	Hook FeedbackHook

	ExtensionID      string
	ExtensionVersion string

	// HTTPClient overrides the posting client. Intended for tests.
	HTTPClient *http.Client
}

// Reporter fans records out to the feedback hook and the remote endpoint.
type Reporter struct {
	enabled          bool
	url              string
	hook             FeedbackHook
	extensionID      string
	extensionVersion string
	client           *http.Client
	logger           *slog.Logger
}

// NewReporter builds a Reporter from opts.
func NewReporter(opts Options) *Reporter {
	url := opts.URL
	if url == "" {
		url = os.Getenv("KIKET_SDK_TELEMETRY_URL")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: postTimeout}
	}
	return &Reporter{
		enabled:          opts.Enabled && !isTruthy(os.Getenv("KIKET_SDK_TELEMETRY_OPTOUT")),
		url:              url,
		hook:             opts.Hook,
		extensionID:      opts.ExtensionID,
		extensionVersion: opts.ExtensionVersion,
		client:           client,
		logger:           log.WithComponent("telemetry"),
	}
}

// Enabled reports whether records will be emitted.
func (r *Reporter) Enabled() bool {
	return r.enabled
}

// Record builds a record and delivers it to the hook and the remote endpoint
// concurrently. It blocks until both legs finish; every failure is logged at
// debug and swallowed.
func (r *Reporter) Record(ctx context.Context, event, version, status string, duration time.Duration, metadata map[string]any) {
	if !r.enabled {
		return
	}

	record := Record{
		ID:               uuid.NewString(),
		Event:            event,
		Version:          version,
		Status:           status,
		DurationMS:       float64(duration.Microseconds()) / 1000.0,
		ExtensionID:      r.extensionID,
		ExtensionVersion: r.extensionVersion,
		Metadata:         metadata,
		Timestamp:        time.Now().UTC(),
	}

	var wg sync.WaitGroup

	if r.hook != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.runHook(ctx, record); err != nil {
				r.logger.Debug("feedback hook failed", "error", err)
			}
		}()
	}

	if r.url != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.post(ctx, record); err != nil {
				r.logger.Debug("telemetry dispatch failed", "error", err)
			}
		}()
	}

	wg.Wait()
}

func (r *Reporter) runHook(ctx context.Context, record Record) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("feedback hook panic: %v", rec)
		}
	}()
	return r.hook(ctx, record)
}

func (r *Reporter) post(ctx context.Context, record Record) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, postTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("post telemetry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
