// Package signature authenticates Slack Events API requests using the
// v0 HMAC-SHA256 signing scheme.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	Version = "v0"

	// MaxSkew is the largest accepted distance, in seconds, between the
	// request timestamp and the local clock.
	MaxSkew = 300
)

var (
	ErrMissingHeaders     = errors.New("signature: missing timestamp or signature header")
	ErrMalformedTimestamp = errors.New("signature: malformed timestamp")
	ErrExpired            = errors.New("signature: timestamp outside the accepted window")
	ErrMismatch           = errors.New("signature: mismatch")
)

// Sign returns the "v0=<hex>" signature Slack would send for body at timestamp.
func Sign(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(Version + ":" + strconv.FormatInt(timestamp, 10) + ":"))
	mac.Write(body)
	return Version + "=" + hex.EncodeToString(mac.Sum(nil))
}

// IsValid reports whether signature authenticates body at timestamp, with
// now and timestamp both in Unix seconds.
func IsValid(secret string, timestamp int64, body []byte, signature string, now int64) bool {
	if !withinWindow(timestamp, now) {
		return false
	}
	return equal(Sign(secret, timestamp, body), signature)
}

// ParseTimestamp parses the X-Slack-Request-Timestamp header value.
func ParseTimestamp(header string) (int64, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false
	}
	ts, err := strconv.ParseInt(header, 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// withinWindow compares against saturated bounds so that no subtraction
// involving timestamp can overflow.
func withinWindow(timestamp, now int64) bool {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if now >= math.MinInt64+MaxSkew {
		lo = now - MaxSkew
	}
	if now <= math.MaxInt64-MaxSkew {
		hi = now + MaxSkew
	}
	return timestamp >= lo && timestamp <= hi
}

// equal compares a and b without returning early on the first differing
// byte. Only a length mismatch is rejected up front.
func equal(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var acc byte
	for i := 0; i < len(a); i++ {
		acc |= a[i] ^ b[i]
	}
	return acc == 0
}

// Verifier checks inbound requests against one signing secret.
type Verifier struct {
	secret string
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret, now: time.Now}
}

// WithClock replaces the clock used for the replay window.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Verify validates raw header values and body. The returned error says why a
// request was rejected and is meant for logs, not for the caller's response.
func (v *Verifier) Verify(timestampHeader string, body []byte, signatureHeader string) error {
	if strings.TrimSpace(timestampHeader) == "" || signatureHeader == "" {
		return ErrMissingHeaders
	}
	ts, ok := ParseTimestamp(timestampHeader)
	if !ok {
		return ErrMalformedTimestamp
	}
	if !withinWindow(ts, v.now().Unix()) {
		return ErrExpired
	}
	if !equal(Sign(v.secret, ts, body), signatureHeader) {
		return ErrMismatch
	}
	return nil
}
