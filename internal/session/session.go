// Package session holds the bearer token for authenticated API calls and
// carries the forced-logout signal raised on 401/403 responses
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the read surface executors consult on every call
type Session interface {
	Token() string
	ExpiresAt() time.Time
	Authenticated() bool
}

// Memory is an in-memory Session safe for concurrent use
type Memory struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	hooks     []func()
	loggedOut bool
}

// NewMemory returns an empty, logged-out session
func NewMemory() *Memory { return &Memory{loggedOut: true} }

// Set stores a token and its expiry. A zero expiresAt is filled from the
// token's exp claim when the token parses as a JWT; the signature is never
// verified client-side
func (m *Memory) Set(token string, expiresAt time.Time) {
	if expiresAt.IsZero() {
		expiresAt = claimExpiry(token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.expiresAt = expiresAt
	m.loggedOut = token == ""
}

// Token returns the stored token, or "" when absent or expired
func (m *Memory) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return ""
	}
	if !m.expiresAt.IsZero() && time.Now().After(m.expiresAt) {
		return ""
	}
	return m.token
}

// ExpiresAt returns the stored expiry (zero when unknown)
func (m *Memory) ExpiresAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt
}

// Authenticated reports whether a usable token is present
func (m *Memory) Authenticated() bool { return m.Token() != "" }

// Clear drops the token without firing the unauthorized hooks
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expiresAt = time.Time{}
	m.loggedOut = true
}

// OnUnauthorized registers a hook fired when the backend rejects the
// session. Hooks run at most once per transition to logged-out
func (m *Memory) OnUnauthorized(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Unauthorized clears the session and fires the registered hooks.
// The signal only moves toward logged-out: repeat calls are no-ops until a
// new token is set
func (m *Memory) Unauthorized() {
	m.mu.Lock()
	if m.loggedOut {
		m.mu.Unlock()
		return
	}
	m.token = ""
	m.expiresAt = time.Time{}
	m.loggedOut = true
	hooks := make([]func(), len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// claimExpiry reads the exp claim off an unverified JWT, zero on any failure
func claimExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
