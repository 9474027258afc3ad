package kiket

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Handler processes one webhook delivery. It receives the parsed payload and
// a per-invocation context; a non-nil return value becomes the JSON response
// body, nil yields the default acknowledgement.
type Handler func(ctx context.Context, payload map[string]any, hc *HandlerContext) (any, error)

// HandlerMetadata is one registered handler with its version and scope
// requirements. Immutable once registered.
type HandlerMetadata struct {
	Handler        Handler
	Version        string
	RequiredScopes []string
}

// HandlerRegistry maps event names to per-version handlers. Registration
// happens before serving traffic; lookups are read-only afterwards, so no
// locking is needed.
type HandlerRegistry struct {
	handlers map[string]map[string]HandlerMetadata
}

// NewHandlerRegistry returns an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]map[string]HandlerMetadata)}
}

// Register stores handler under (event, version). The version is trimmed and
// must be non-blank. Registering the same pair twice overwrites silently.
func (r *HandlerRegistry) Register(event string, handler Handler, version string, requiredScopes []string) error {
	validated, err := coerceVersion(version)
	if err != nil {
		return err
	}

	if r.handlers[event] == nil {
		r.handlers[event] = make(map[string]HandlerMetadata)
	}
	r.handlers[event][validated] = HandlerMetadata{
		Handler:        handler,
		Version:        validated,
		RequiredScopes: requiredScopes,
	}
	return nil
}

// Get resolves the handler for (event, version), applying the same trimming
// as Register. An empty version or unknown pair yields ok=false; that is an
// empty result, not an error.
func (r *HandlerRegistry) Get(event, version string) (HandlerMetadata, bool) {
	validated, err := coerceVersion(version)
	if err != nil {
		return HandlerMetadata{}, false
	}

	versions, ok := r.handlers[event]
	if !ok {
		return HandlerMetadata{}, false
	}
	meta, ok := versions[validated]
	return meta, ok
}

// EventNames returns every registered pair as "event@version", sorted.
func (r *HandlerRegistry) EventNames() []string {
	var names []string
	for event, versions := range r.handlers {
		for version := range versions {
			names = append(names, event+"@"+version)
		}
	}
	sort.Strings(names)
	return names
}

func coerceVersion(version string) (string, error) {
	trimmed := strings.TrimSpace(version)
	if trimmed == "" {
		return "", fmt.Errorf("event version cannot be blank")
	}
	return trimmed, nil
}

// Registration binds a handler to an event and version for bulk registration
// at startup. Build them with Webhook and hand the collected slice to
// SDK.RegisterAll.
type Registration struct {
	Event          string
	Version        string
	RequiredScopes []string
	Handler        Handler
}

// Webhook builds a Registration. requiredScopes may be empty.
func Webhook(event, version string, handler Handler, requiredScopes ...string) Registration {
	return Registration{
		Event:          event,
		Version:        version,
		RequiredScopes: requiredScopes,
		Handler:        handler,
	}
}
