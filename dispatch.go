package kiket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kiket-dev/kiket-go-sdk/auth"
	"github.com/kiket-dev/kiket-go-sdk/client"
	"github.com/kiket-dev/kiket-go-sdk/telemetry"
)

// handleDispatch runs the per-delivery state machine: resolve event and
// version, authenticate, resolve the handler, authorize, build the handler
// context, invoke, and report telemetry. Failures before handler invocation
// are not instrumented; only handler outcomes are.
func (s *SDK) handleDispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	event := chi.URLParam(r, "event")
	deliveryID := uuid.NewString()
	logger := s.logger.With("event", event, "delivery_id", deliveryID)

	limited := io.LimitReader(r.Body, defaultMaxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	if int64(len(body)) > defaultMaxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Version precedence: path segment, then header, then query parameter.
	version := firstNonEmpty(
		strings.TrimSpace(chi.URLParam(r, "version")),
		strings.TrimSpace(r.Header.Get(auth.VersionHeader)),
		strings.TrimSpace(r.URL.Query().Get("version")),
	)
	if version == "" {
		s.respondError(w, http.StatusBadRequest,
			"Event version required. Provide X-Kiket-Event-Version header, version query param, or /v/{version} path.")
		return
	}

	baseURL := s.Config.BaseURL
	if api, ok := payload["api"].(map[string]any); ok {
		if override, ok := api["base_url"].(string); ok && override != "" {
			baseURL = override
		}
	}

	authCtx, err := s.verifier.Verify(ctx, &Delivery{
		Body:    body,
		Headers: r.Header,
		Payload: payload,
		BaseURL: baseURL,
	})
	if err != nil {
		logger.Warn("delivery verification failed", "error", err)
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	meta, ok := s.registry.Get(event, version)
	if !ok {
		s.respondError(w, http.StatusNotFound,
			fmt.Sprintf("no handler registered for event '%s' with version '%s'", event, version))
		return
	}

	if missing := auth.MissingScopes(meta.RequiredScopes, authCtx.Scopes); len(missing) > 0 {
		logger.Warn("delivery lacks required scopes", "missing", missing)
		s.respondJSON(w, http.StatusForbidden, map[string]any{
			"error":           "insufficient scopes",
			"required_scopes": meta.RequiredScopes,
			"missing_scopes":  missing,
		})
		return
	}

	hc := s.buildHandlerContext(event, meta.Version, r.Header, payload, authCtx, baseURL)
	hc.Logger = logger.With("version", meta.Version)

	start := time.Now()
	result, handlerErr := invokeHandler(ctx, meta.Handler, payload, hc)
	duration := time.Since(start)

	if handlerErr != nil {
		sdkErr := wrapHandlerError(handlerErr)
		logger.Error("handler failed", "error", sdkErr, "duration_ms", duration.Milliseconds())
		s.telemetry.Record(ctx, event, meta.Version, telemetry.StatusError, duration, map[string]any{
			"error_message": sdkErr.Message,
			"error_class":   errorClass(handlerErr),
		})
		s.respondError(w, http.StatusBadRequest, sdkErr.Message)
		return
	}

	logger.Info("handler completed", "version", meta.Version, "duration_ms", duration.Milliseconds())
	s.telemetry.Record(ctx, event, meta.Version, telemetry.StatusOK, duration, nil)

	if result == nil {
		result = map[string]any{"ok": true}
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *SDK) buildHandlerContext(event, version string, headers http.Header, payload map[string]any, authCtx *auth.Context, baseURL string) *HandlerContext {
	outbound := client.New(client.Options{
		BaseURL:        baseURL,
		WorkspaceToken: s.Config.WorkspaceToken,
		RuntimeToken:   authCtx.RuntimeToken,
	})
	payloadSecrets := payloadSecretsFrom(payload)

	return &HandlerContext{
		Event:            event,
		EventVersion:     version,
		Headers:          headers,
		Client:           outbound,
		Endpoints:        outbound.Endpoints(s.Config.ExtensionID, version),
		Secrets:          outbound.Secrets(s.Config.ExtensionID),
		Settings:         s.Config.Settings,
		ExtensionID:      s.Config.ExtensionID,
		ExtensionVersion: s.Config.ExtensionVersion,
		Secret:           buildSecretLookup(payloadSecrets),
		PayloadSecrets:   payloadSecrets,
		Auth:             authCtx,
		RequireScopes:    buildScopeChecker(authCtx.Scopes),
	}
}

// invokeHandler calls the handler, converting panics into errors so a
// misbehaving handler produces an error response and telemetry instead of
// tearing down the request through the recoverer.
func invokeHandler(ctx context.Context, handler Handler, payload map[string]any, hc *HandlerContext) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return handler(ctx, payload, hc)
}

func errorClass(err error) string {
	switch err.(type) {
	case *ScopeError:
		return "ScopeError"
	case *client.OutboundError:
		return "OutboundError"
	case *client.SecretStoreError:
		return "SecretStoreError"
	case *Error:
		return "SDKError"
	default:
		return fmt.Sprintf("%T", err)
	}
}
