package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	events := newTestHandler(&fakeConversation{fetchOK: true}, &fakeLLM{reply: "hi"})
	srv := httptest.NewServer(NewRouter(events))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK || body != "ok!" {
		t.Fatalf("got %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("response should carry a request id")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := get(t, srv.URL+"/health", http.Header{"X-Request-Id": {"trace-123"}})
	if got := resp.Header.Get("X-Request-ID"); got != "trace-123" {
		t.Fatalf("X-Request-ID = %q", got)
	}
}

func TestUnknownRouteNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv.URL+"/nope", nil)
	if resp.StatusCode != http.StatusNotFound || body != "Not found" {
		t.Fatalf("got %d %q", resp.StatusCode, body)
	}
}

func TestEventsRouteRejectsGet(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := get(t, srv.URL+"/slack/events", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestEventsRouteServesHandshake(t *testing.T) {
	srv := newTestServer(t)

	req := signedRequest(`{"type":"url_verification","challenge":"xyz"}`)
	req.RequestURI = ""
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(srv.URL, "http://")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"challenge":"xyz"`) {
		t.Fatalf("got %d %q", resp.StatusCode, body)
	}
}

func TestMetricsExposed(t *testing.T) {
	srv := newTestServer(t)

	get(t, srv.URL+"/health", nil)
	resp, body := get(t, srv.URL+"/metrics", nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `slackbridge_http_requests_total{method="GET",path="/health",status="200"}`) {
		t.Fatalf("request counter missing from metrics output")
	}
}
