// Package rest is the JSON transport under every fetch and mutation
// executor. It attaches auth, decodes the API's response envelopes, and
// funnels failures through the platform error types
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "fundlink/internal/platform/errors"
	"fundlink/internal/platform/logger"

	"github.com/google/uuid"
)

// TokenSource supplies the bearer token for protected calls and receives
// the forced-logout signal on 401/403. A nil TokenSource makes the client
// unauthenticated (login, signup, password reset)
type TokenSource interface {
	Token() string
	Unauthorized()
}

// Config builds a Client
type Config struct {
	// BaseURL is the API origin, e.g. https://api.example.com
	BaseURL string
	// HTTPClient defaults to http.DefaultClient; timeouts are the
	// transport's concern, the client adds none of its own
	HTTPClient *http.Client
	// Tokens may be nil for the unauthenticated client
	Tokens TokenSource
	Log    *logger.Logger
}

// Client issues JSON calls against the lending API
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	log    *logger.Logger
}

// New validates the base URL and returns a Client
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || !u.IsAbs() {
		return nil, perr.InvalidArgf("rest: invalid base URL %q", cfg.BaseURL)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	log := cfg.Log
	if log == nil {
		log = logger.Named("rest")
	}
	return &Client{base: u, http: hc, tokens: cfg.Tokens, log: log}, nil
}

// Get issues a GET with optional query params, decoding data into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body, decoding data into out
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT with a JSON body, decoding data into out
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch issues a PATCH with a JSON body, decoding data into out
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

// envelope is the uniform success wrapper the backend returns
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeJSON, "rest: encode %s %s", method, path)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "rest: build %s %s", method, path)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err, method, path)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeNetwork, "rest: read %s %s", method, path)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", reqID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api call")

	if resp.StatusCode >= 400 {
		werr := perr.ParseWire(resp.StatusCode, raw)
		if c.tokens != nil &&
			(resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			c.tokens.Unauthorized()
		}
		return perr.WithOp(werr, method+" "+path)
	}

	if resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "rest: decode %s %s", method, path)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return perr.New(perr.ErrorCodeUnknown, msg)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "rest: decode data %s %s", method, path)
	}
	return nil
}

// classifyTransport maps transport failures onto timeout/network codes
func classifyTransport(err error, method, path string) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return perr.Wrapf(err, perr.ErrorCodeTimeout, "rest: %s %s timed out", method, path)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return perr.Wrapf(err, perr.ErrorCodeTimeout, "rest: %s %s timed out", method, path)
	}
	return perr.Wrapf(err, perr.ErrorCodeNetwork, "rest: %s %s failed", method, path)
}
