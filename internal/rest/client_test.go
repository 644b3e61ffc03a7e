package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	perr "fundlink/internal/platform/errors"
)

type fakeTokens struct {
	token  string
	kicked atomic.Int32
}

func (f *fakeTokens) Token() string { return f.token }
func (f *fakeTokens) Unauthorized() { f.kicked.Add(1) }

func TestGetDecodesEnvelope(t *testing.T) {
	var gotAuth, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		if r.URL.Path != "/api/loans" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"ok","data":{"count":7}}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Tokens: &fakeTokens{token: "tok-1"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out struct {
		Count int `json:"count"`
	}
	q := url.Values{"page": {"2"}}
	if err := c.Get(context.Background(), "/api/loans", q, &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Count != 7 {
		t.Fatalf("decoded count = %d, want 7", out.Count)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotReqID == "" {
		t.Fatalf("X-Request-ID missing")
	}
}

func TestNoAuthHeaderWithoutTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header")
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"ok"}`))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	if err := c.Post(context.Background(), "/api/auth/login", map[string]string{"email": "a@b.c"}, nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
}

func TestErrorStatusParsesWireAndSignalsLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Session expired"}`))
	}))
	defer srv.Close()

	tok := &fakeTokens{token: "stale"}
	c, _ := New(Config{BaseURL: srv.URL, Tokens: tok})

	err := c.Get(context.Background(), "/api/user/profile", nil, nil)
	if !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
		t.Fatalf("code = %v, want unauthorized", perr.CodeOf(err))
	}
	if n := perr.Normalize(err); n.Message != "Session expired" {
		t.Fatalf("message = %q", n.Message)
	}
	if tok.kicked.Load() != 1 {
		t.Fatalf("Unauthorized fired %d times, want 1", tok.kicked.Load())
	}
}

func TestForbiddenAlsoSignalsLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tok := &fakeTokens{token: "t"}
	c, _ := New(Config{BaseURL: srv.URL, Tokens: tok})
	err := c.Get(context.Background(), "/x", nil, nil)
	if !perr.IsCode(err, perr.ErrorCodeForbidden) {
		t.Fatalf("code = %v, want forbidden", perr.CodeOf(err))
	}
	if tok.kicked.Load() != 1 {
		t.Fatalf("Unauthorized fired %d times, want 1", tok.kicked.Load())
	}
}

func TestUnsuccessfulEnvelopeBecomesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"Failed to fetch user loans"}`))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	err := c.Get(context.Background(), "/api/loans/my-loans", nil, nil)
	if err == nil {
		t.Fatalf("expected error for success=false body")
	}
	if n := perr.Normalize(err); n.Message != "Failed to fetch user loans" {
		t.Fatalf("message = %q", n.Message)
	}
}

func TestTransportFailureIsNetworkCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c, _ := New(Config{BaseURL: srv.URL})
	err := c.Get(context.Background(), "/x", nil, nil)
	if !perr.IsCode(err, perr.ErrorCodeNetwork) {
		t.Fatalf("code = %v, want network", perr.CodeOf(err))
	}
	if !perr.Retryable(err) {
		t.Fatalf("network failures should be retryable")
	}
}

func TestInvalidBaseURL(t *testing.T) {
	if _, err := New(Config{BaseURL: "not a url"}); err == nil {
		t.Fatalf("expected error for invalid base URL")
	}
	if _, err := New(Config{BaseURL: "/relative"}); err == nil {
		t.Fatalf("expected error for relative base URL")
	}
}

func TestMalformedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": tru`))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	err := c.Get(context.Background(), "/x", nil, nil)
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("code = %v, want json", perr.CodeOf(err))
	}
}
