package auth

import (
	"context"
	"crypto/ecdsa"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signRuntimeToken(t *testing.T, key *ecdsa.PrivateKey, kid string, claims RuntimeClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() RuntimeClaims {
	now := time.Now()
	return RuntimeClaims{
		OrgID:          "org_1",
		ExtensionID:    "ext_1",
		ProjectID:      "proj_1",
		InstallationID: "inst_1",
		Scopes:         []string{"issues.read", "orders.write"},
		Source:         "webhook",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ExpectedIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		},
	}
}

func payloadWith(token string) map[string]any {
	return map[string]any{
		"authentication": map[string]any{"runtime_token": token},
	}
}

func TestVerifyRuntimeToken(t *testing.T) {
	key := generateTestKey(t)
	var fetches atomic.Int64
	server := newJWKSServer(t, "k1", &key.PublicKey, &fetches)
	verifier := NewRuntimeVerifier()

	token := signRuntimeToken(t, key, "k1", validClaims())
	claims, err := verifier.VerifyRuntimeToken(context.Background(), payloadWith(token), server.URL)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.OrgID != "org_1" || claims.ExtensionID != "ext_1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if len(claims.Scopes) != 2 || claims.Scopes[0] != "issues.read" {
		t.Fatalf("unexpected scopes: %v", claims.Scopes)
	}
}

func TestVerifyRuntimeTokenMissing(t *testing.T) {
	verifier := NewRuntimeVerifier()
	_, err := verifier.VerifyRuntimeToken(context.Background(), map[string]any{}, "http://unused")
	if err == nil || !strings.Contains(err.Error(), "missing runtime_token") {
		t.Fatalf("got %v, want missing runtime_token error", err)
	}
}

func TestVerifyRuntimeTokenExpired(t *testing.T) {
	key := generateTestKey(t)
	var fetches atomic.Int64
	server := newJWKSServer(t, "k1", &key.PublicKey, &fetches)
	verifier := NewRuntimeVerifier()

	claims := validClaims()
	claims.IssuedAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	token := signRuntimeToken(t, key, "k1", claims)
	_, err := verifier.VerifyRuntimeToken(context.Background(), payloadWith(token), server.URL)
	if err == nil || !strings.Contains(err.Error(), "runtime token expired") {
		t.Fatalf("got %v, want expiry error", err)
	}
}

func TestVerifyRuntimeTokenIssuerMismatch(t *testing.T) {
	key := generateTestKey(t)
	var fetches atomic.Int64
	server := newJWKSServer(t, "k1", &key.PublicKey, &fetches)
	verifier := NewRuntimeVerifier()

	claims := validClaims()
	claims.Issuer = "https://evil.example"

	token := signRuntimeToken(t, key, "k1", claims)
	_, err := verifier.VerifyRuntimeToken(context.Background(), payloadWith(token), server.URL)
	if err == nil || !strings.Contains(err.Error(), "issuer mismatch") {
		t.Fatalf("got %v, want issuer mismatch error", err)
	}
}

func TestVerifyRuntimeTokenWrongAlgorithm(t *testing.T) {
	key := generateTestKey(t)
	var fetches atomic.Int64
	server := newJWKSServer(t, "k1", &key.PublicKey, &fetches)
	verifier := NewRuntimeVerifier()

	hsToken := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
	signed, err := hsToken.SignedString([]byte("shared"))
	if err != nil {
		t.Fatalf("sign HS256 token: %v", err)
	}

	_, err = verifier.VerifyRuntimeToken(context.Background(), payloadWith(signed), server.URL)
	if err == nil || !strings.Contains(err.Error(), "invalid runtime token") {
		t.Fatalf("got %v, want invalid token error", err)
	}
}

func TestVerifyRuntimeTokenTampered(t *testing.T) {
	key := generateTestKey(t)
	var fetches atomic.Int64
	server := newJWKSServer(t, "k1", &key.PublicKey, &fetches)
	verifier := NewRuntimeVerifier()

	token := signRuntimeToken(t, key, "k1", validClaims())
	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := verifier.VerifyRuntimeToken(context.Background(), payloadWith(tampered), server.URL); err == nil {
		t.Fatal("tampered signature accepted")
	}
}

func TestVerifyRuntimeTokenMissingIssuedAt(t *testing.T) {
	key := generateTestKey(t)
	var fetches atomic.Int64
	server := newJWKSServer(t, "k1", &key.PublicKey, &fetches)
	verifier := NewRuntimeVerifier()

	claims := validClaims()
	claims.IssuedAt = nil

	token := signRuntimeToken(t, key, "k1", claims)
	_, err := verifier.VerifyRuntimeToken(context.Background(), payloadWith(token), server.URL)
	if err == nil || !strings.Contains(err.Error(), "missing iat") {
		t.Fatalf("got %v, want missing iat error", err)
	}
}

func TestNewContextFromClaims(t *testing.T) {
	claims := validClaims()
	authCtx := NewContextFromClaims(&claims, "raw-token")
	if authCtx.TokenType != RuntimeTokenType {
		t.Fatalf("token type = %q", authCtx.TokenType)
	}
	if authCtx.RuntimeToken != "raw-token" {
		t.Fatalf("runtime token = %q", authCtx.RuntimeToken)
	}
	if authCtx.OrgID != "org_1" || authCtx.ProjectID != "proj_1" {
		t.Fatalf("identity fields not carried: %+v", authCtx)
	}
	if authCtx.ExpiresAt == "" {
		t.Fatal("expiry not formatted")
	}
}

func TestSharedSecretContext(t *testing.T) {
	authCtx := SharedSecretContext()
	if authCtx.TokenType != "shared_secret" {
		t.Fatalf("token type = %q", authCtx.TokenType)
	}
	if len(authCtx.Scopes) != 1 || authCtx.Scopes[0] != Wildcard {
		t.Fatalf("shared secret context should carry the wildcard scope, got %v", authCtx.Scopes)
	}
}
