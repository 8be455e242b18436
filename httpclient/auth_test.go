package httpclient

import (
	"net/http"
	"testing"
)

type rotatingToken struct{ tok string }

func (r *rotatingToken) Token() string { return r.tok }

func TestBearerAuth(t *testing.T) {
	auth := BearerAuth("my-token")
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	if got := req.Header.Get("Authorization"); got != "Bearer my-token" {
		t.Errorf("got %q, want %q", got, "Bearer my-token")
	}
}

func TestTokenAuth_ReadsPerRequest(t *testing.T) {
	p := &rotatingToken{tok: "first"}
	auth := TokenAuth(p)

	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	if got := req.Header.Get("Authorization"); got != "Bearer first" {
		t.Errorf("got %q, want %q", got, "Bearer first")
	}

	p.tok = "second"
	req, _ = http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	if got := req.Header.Get("Authorization"); got != "Bearer second" {
		t.Errorf("got %q, want %q", got, "Bearer second")
	}
}

func TestTokenAuth_EmptyToken(t *testing.T) {
	auth := TokenAuth(&rotatingToken{})
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	if got := req.Header.Get("Authorization"); got != "" {
		t.Errorf("expected no Authorization header, got %q", got)
	}
}

func TestBasicAuth(t *testing.T) {
	auth := BasicAuth("user", "pass")
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	u, p, ok := req.BasicAuth()
	if !ok || u != "user" || p != "pass" {
		t.Errorf("basic auth not set correctly: user=%q pass=%q ok=%v", u, p, ok)
	}
}

func TestNilAuth(t *testing.T) {
	var auth *AuthConfig
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req) // should not panic
}

func TestNoAuth(t *testing.T) {
	auth := NoAuth()
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	if req.Header.Get("Authorization") != "" {
		t.Error("NoAuth should not set Authorization header")
	}
}
