// Package client implements the outbound Kiket API client and the typed
// service wrappers extensions call back into the platform with.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"

	"github.com/kiket-dev/kiket-go-sdk/internal/log"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultMaxAttempts = 3

	// RuntimeTokenHeader carries the delivery's runtime token on outbound calls.
	RuntimeTokenHeader = "X-Kiket-Runtime-Token"
)

// Options configure a Client.
type Options struct {
	// BaseURL of the Kiket API. Trailing slashes are stripped.
	BaseURL string

	// WorkspaceToken is sent as a bearer token when set.
	WorkspaceToken string

	// RuntimeToken binds the client to a verified delivery identity.
	RuntimeToken string

	// Timeout bounds each attempt. Defaults to 15s.
	Timeout time.Duration

	// MaxAttempts bounds transport-level retries. Defaults to 3.
	MaxAttempts int

	// HTTPClient overrides the underlying client. Intended for tests.
	HTTPClient *http.Client
}

// Client is an HTTP client that injects workspace and runtime token headers
// on every request. Transport failures are retried with backoff; HTTP error
// statuses are not.
type Client struct {
	baseURL        string
	workspaceToken string
	runtimeToken   string
	http           *http.Client
	maxAttempts    int
	logger         *slog.Logger
}

// New builds a Client from opts.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		workspaceToken: opts.WorkspaceToken,
		runtimeToken:   opts.RuntimeToken,
		http:           httpClient,
		maxAttempts:    maxAttempts,
		logger:         log.WithComponent("client"),
	}
}

// BaseURL returns the configured API endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestOptions carry the optional parts of an API request.
type RequestOptions struct {
	Query   url.Values
	Body    any
	Headers http.Header
}

// Do performs an API request and decodes the JSON response into out when out
// is non-nil. Non-2xx responses and transport failures yield *OutboundError.
func (c *Client) Do(ctx context.Context, method, path string, opts *RequestOptions, out any) error {
	if opts == nil {
		opts = &RequestOptions{}
	}

	var bodyBytes []byte
	if opts.Body != nil {
		var err error
		bodyBytes, err = json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	target := c.baseURL + path
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var resp *http.Response
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(uint(c.maxAttempts)),
		retry.LastErrorOnly(true),
	)
	err := r.Do(func() error {
		req, err := c.newRequest(ctx, method, target, bodyBytes, opts.Headers)
		if err != nil {
			return err
		}
		resp, err = c.http.Do(req)
		return err
	})
	if err != nil {
		return &OutboundError{Message: "failed to communicate with Kiket API", Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &OutboundError{Message: "failed to read Kiket API response", Cause: err}
	}

	if resp.StatusCode >= 400 {
		c.logger.Debug("outbound request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
		)
		return &OutboundError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Kiket API returned %d", resp.StatusCode),
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return &OutboundError{Message: "invalid JSON in Kiket API response", Cause: err}
		}
	}
	return nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.Do(ctx, http.MethodGet, path, opts, out)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.Do(ctx, http.MethodPost, path, opts, out)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.Do(ctx, http.MethodPut, path, opts, out)
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.Do(ctx, http.MethodPatch, path, opts, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.Do(ctx, http.MethodDelete, path, opts, out)
}

func (c *Client) newRequest(ctx context.Context, method, target string, body []byte, extra http.Header) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range extra {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if c.workspaceToken != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+c.workspaceToken)
	}
	if c.runtimeToken != "" && req.Header.Get(RuntimeTokenHeader) == "" {
		req.Header.Set(RuntimeTokenHeader, c.runtimeToken)
	}
	return req, nil
}
