package kiket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const defaultMaxBodySize = 1 << 20 // 1 MB

// Handler returns the SDK's HTTP app: webhook dispatch routes and the health
// endpoint. Mount it on any server or hand it to httptest.
func (s *SDK) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Post("/webhooks/{event}", s.handleDispatch)
	r.Post("/v/{version}/webhooks/{event}", s.handleDispatch)
	r.Get("/health", s.handleHealth)

	return r
}

// Run serves the SDK app on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *SDK) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("extension server starting",
		"listen", addr,
		"extension_id", s.Config.ExtensionID,
		"events", len(s.registry.EventNames()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("extension server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// loggingMiddleware logs requests without payload contents.
func (s *SDK) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *SDK) handleHealth(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{
		"status":            "ok",
		"extension_id":      s.Config.ExtensionID,
		"extension_version": s.Config.ExtensionVersion,
		"registered_events": s.registry.EventNames(),
	}
	if s.Manifest != nil {
		if checksum, err := s.Manifest.Checksum(); err == nil {
			payload["manifest_checksum"] = checksum
		}
	}
	s.respondJSON(w, http.StatusOK, payload)
}

func (s *SDK) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *SDK) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
