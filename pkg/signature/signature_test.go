package signature

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

const secret = "8f742231b10e8888abcd99yyyzzz85a5"

func TestSignKnownVector(t *testing.T) {
	// Example request from Slack's request verification guide.
	body := []byte("token=xyzz0WbapA4vBCDEFasx0q6G&team_id=T1DC2JH3J&team_domain=testteamnow&channel_id=G8PSS9T3V&channel_name=foobar&user_id=U2CERLKJA&user_name=roadrunner&command=%2Fwebhook-collect&text=&response_url=https%3A%2F%2Fhooks.slack.com%2Fcommands%2FT1DC2JH3J%2F397700885554%2F96rGlfmibIGlgcZRskXaIFfN&trigger_id=398738663015.47445629121.803a0bc887a14d10d2c447fce8b6703c")
	want := "v0=a2114d57b48eac39b9ad189dd8316235a7b4a8d21a10bd27519666489c69b503"

	if got := Sign(secret, 1531420618, body); got != want {
		t.Fatalf("Sign = %s, want %s", got, want)
	}
}

func TestIsValidRoundTrip(t *testing.T) {
	tests := []struct {
		secret string
		ts     int64
		body   string
	}{
		{"s", 1700000000, `{"type":"event_callback"}`},
		{"another-secret", 1, ""},
		{secret, 1531420618, "a=b&c=d"},
	}
	for _, tt := range tests {
		sig := Sign(tt.secret, tt.ts, []byte(tt.body))
		if !IsValid(tt.secret, tt.ts, []byte(tt.body), sig, tt.ts) {
			t.Errorf("round trip failed for %+v", tt)
		}
	}
}

func TestIsValidReplayWindow(t *testing.T) {
	const ts = 1700000000
	body := []byte(`{"type":"event_callback"}`)
	sig := Sign(secret, ts, body)

	tests := []struct {
		now  int64
		want bool
	}{
		{ts, true},
		{ts + 300, true},
		{ts - 300, true},
		{ts + 301, false},
		{ts - 301, false},
	}
	for _, tt := range tests {
		if got := IsValid(secret, ts, body, sig, tt.now); got != tt.want {
			t.Errorf("now=ts%+d: IsValid = %v, want %v", tt.now-ts, got, tt.want)
		}
	}
}

func TestIsValidExtremeTimestamps(t *testing.T) {
	const now = 1700000000
	body := []byte(`{"type":"event_callback"}`)

	for _, ts := range []int64{now + math.MinInt64, math.MinInt64, math.MaxInt64, -now} {
		if IsValid(secret, ts, body, Sign(secret, ts, body), now) {
			t.Errorf("accepted timestamp %d at now=%d", ts, now)
		}
	}

	// Bounds saturate instead of wrapping when the clock itself is extreme.
	for _, n := range []int64{math.MaxInt64, math.MinInt64} {
		if !IsValid(secret, n, body, Sign(secret, n, body), n) {
			t.Errorf("rejected timestamp equal to now=%d", n)
		}
	}
	if IsValid(secret, math.MinInt64, body, Sign(secret, math.MinInt64, body), math.MaxInt64) {
		t.Error("accepted timestamp at the opposite end of the range")
	}
}

func TestIsValidRejectsTampering(t *testing.T) {
	const ts = 1700000000
	body := []byte(`{"event":{"text":"hi"}}`)
	sig := Sign(secret, ts, body)

	if IsValid("wrong-secret", ts, body, sig, ts) {
		t.Error("accepted signature under the wrong secret")
	}
	if IsValid(secret, ts, []byte(`{"event":{"text":"ho"}}`), sig, ts) {
		t.Error("accepted signature for a modified body")
	}
	if IsValid(secret, ts+1, body, sig, ts) {
		t.Error("accepted signature for a different timestamp")
	}
}

func TestIsValidLengthMismatch(t *testing.T) {
	const ts = 1700000000
	body := []byte("x")
	sig := Sign(secret, ts, body)

	for _, bad := range []string{"", "v0=", sig[:len(sig)-1], sig + "0"} {
		if IsValid(secret, ts, body, bad, ts) {
			t.Errorf("accepted signature %q", bad)
		}
	}
}

func TestEqualScansFullLength(t *testing.T) {
	a := strings.Repeat("a", 64)

	if !equal(a, a) {
		t.Fatal("identical strings reported different")
	}
	if equal(a, "b"+a[1:]) {
		t.Fatal("difference in first byte not detected")
	}
	if equal(a, a[:63]+"b") {
		t.Fatal("difference in last byte not detected")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1531420618", 1531420618, true},
		{" 42 ", 42, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1.5", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseTimestamp(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestVerifierErrors(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := NewVerifier(secret).WithClock(func() time.Time { return now })
	body := []byte(`{"type":"url_verification"}`)
	good := Sign(secret, now.Unix(), body)

	tests := []struct {
		name string
		ts   string
		sig  string
		want error
	}{
		{"valid", "1700000000", good, nil},
		{"missing timestamp", "", good, ErrMissingHeaders},
		{"missing signature", "1700000000", "", ErrMissingHeaders},
		{"malformed timestamp", "yesterday", good, ErrMalformedTimestamp},
		{"expired", "1699999000", Sign(secret, 1699999000, body), ErrExpired},
		{"mismatch", "1700000000", Sign("other", now.Unix(), body), ErrMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.ts, body, tt.sig)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Verify = %v, want %v", err, tt.want)
			}
		})
	}
}
