package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"
)

const (
	// SignatureHeader carries the shared-secret HMAC signature on inbound deliveries.
	SignatureHeader = "X-Kiket-Signature"

	// TimestampHeader carries the delivery timestamp used for replay-window checks.
	TimestampHeader = "X-Kiket-Timestamp"

	// AllowedSkew is the maximum tolerated difference between the delivery
	// timestamp and the local clock.
	AllowedSkew = 300 * time.Second
)

// VerifySignature verifies the HMAC-SHA256 signature on an inbound webhook.
//
// If secret is empty no verification is performed: the deployment is trusting
// its network boundary, which is an explicitly unsafe default.
//
// The signature is compared in constant time. When a timestamp header is
// present it must parse as ISO-8601 (a trailing "Z" is accepted as UTC) and
// fall within AllowedSkew of the current clock; a missing timestamp header is
// tolerated and skips the replay check.
func VerifySignature(secret string, body []byte, headers http.Header) error {
	if secret == "" {
		return nil
	}

	signature := headers.Get(SignatureHeader)
	if signature == "" {
		return NewError("missing X-Kiket-Signature header")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !constantTimeEqual(signature, expected) {
		return NewError("invalid signature")
	}

	if timestamp := headers.Get(TimestampHeader); timestamp != "" {
		return validateTimestamp(timestamp, time.Now().UTC())
	}
	return nil
}

// ComputeSignature returns the lowercase hex HMAC-SHA256 digest of body.
// Exposed for clients producing signed test deliveries.
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func validateTimestamp(timestamp string, now time.Time) error {
	requestTime, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return &Error{Message: "invalid X-Kiket-Timestamp header", Cause: err}
	}

	delta := now.Sub(requestTime)
	if delta < 0 {
		delta = -delta
	}
	if delta > AllowedSkew {
		return NewError("request timestamp outside allowed window")
	}
	return nil
}
