package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/kiket-dev/kiket-go-sdk/internal/log"
)

const (
	wellKnownPath = "/.well-known/jwks.json"
	keySetTTL     = time.Hour
	fetchTimeout  = 10 * time.Second
)

// KeySetCache caches remote JWKS documents per base URL. Entries expire after
// one hour; Clear drops everything (key rotation, tests). A stale entry is
// refetched on the next lookup; concurrent lookups for the same base URL may
// redundantly fetch, which is harmless.
type KeySetCache struct {
	mu      sync.RWMutex
	entries map[string]*keySetEntry

	client *http.Client
	now    func() time.Time
	logger *slog.Logger
}

type keySetEntry struct {
	keys      map[string]*ecdsa.PublicKey
	fetchedAt time.Time
}

// NewKeySetCache builds an empty cache using the real clock.
func NewKeySetCache() *KeySetCache {
	return &KeySetCache{
		entries: make(map[string]*keySetEntry),
		client:  &http.Client{Timeout: fetchTimeout},
		now:     time.Now,
		logger:  log.WithComponent("jwks"),
	}
}

// WithClock replaces the cache clock. Intended for tests.
func (c *KeySetCache) WithClock(now func() time.Time) *KeySetCache {
	c.now = now
	return c
}

// WithHTTPClient replaces the fetch client. Intended for tests.
func (c *KeySetCache) WithHTTPClient(client *http.Client) *KeySetCache {
	c.client = client
	return c
}

// Key returns the public key identified by kid from the key set published at
// baseURL, fetching the set when the cache is empty or stale. When kid is
// empty and the set holds exactly one key, that key is returned.
func (c *KeySetCache) Key(ctx context.Context, baseURL, kid string) (*ecdsa.PublicKey, error) {
	entry, err := c.entry(ctx, baseURL)
	if err != nil {
		return nil, err
	}

	if kid == "" {
		if len(entry.keys) == 1 {
			for _, key := range entry.keys {
				return key, nil
			}
		}
		return nil, NewError("runtime token missing key id")
	}

	key, ok := entry.keys[kid]
	if !ok {
		return nil, NewError(fmt.Sprintf("no key %q in key set", kid))
	}
	return key, nil
}

// Clear drops all cached key sets.
func (c *KeySetCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*keySetEntry)
}

func (c *KeySetCache) entry(ctx context.Context, baseURL string) (*keySetEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[baseURL]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.fetchedAt) < keySetTTL {
		return entry, nil
	}

	fresh, err := c.fetch(ctx, baseURL)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[baseURL] = fresh
	c.mu.Unlock()
	return fresh, nil
}

type jwksDocument struct {
	Keys []jwksKey `json:"keys"`
}

type jwksKey struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	Kid string `json:"kid"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

func (c *KeySetCache) fetch(ctx context.Context, baseURL string) (*keySetEntry, error) {
	url := baseURL + wellKnownPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Message: "failed to fetch key set", Cause: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Message: "failed to fetch key set", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewError(fmt.Sprintf("key set endpoint returned %d", resp.StatusCode))
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, &Error{Message: "invalid key set document", Cause: err}
	}

	keys := make(map[string]*ecdsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "EC" || k.Crv != "P-256" {
			continue
		}
		key, err := parseECKey(k)
		if err != nil {
			c.logger.Debug("skipping unparsable key", "kid", k.Kid, "error", err)
			continue
		}
		keys[k.Kid] = key
	}

	if len(keys) == 0 {
		return nil, NewError("key set contains no usable keys")
	}

	c.logger.Debug("fetched key set", "base_url", baseURL, "keys", len(keys))
	return &keySetEntry{keys: keys, fetchedAt: c.now()}, nil
}

func parseECKey(k jwksKey) (*ecdsa.PublicKey, error) {
	xb, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, fmt.Errorf("decode x: %w", err)
	}
	yb, err := base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil {
		return nil, fmt.Errorf("decode y: %w", err)
	}

	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xb),
		Y:     new(big.Int).SetBytes(yb),
	}, nil
}
