package querykit

import (
	"context"
	"sync"

	perr "fundlink/internal/platform/errors"
)

// MutateFunc performs one state-changing call with a validated payload
type MutateFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// FormBinding is the slice of Form a mutation touches: resetting on
// success, attaching field errors on failure
type FormBinding interface {
	Reset()
	SetFieldErrors(map[string][]string)
}

// MutationConfig wires a mutation's side effects
type MutationConfig struct {
	// Registry and Invalidates name the query families refreshed after a
	// successful call
	Registry    *Registry
	Invalidates []string
	// Form, when set, receives field errors on failure; with ResetOnSuccess
	// it is also reset after a successful call
	Form           FormBinding
	ResetOnSuccess bool
	// Notifier surfaces one notification per outcome
	Notifier       Notifier
	SuccessMessage string
}

// Mutation is the executor for one state-changing action. At most one call
// is in flight per instance; a failure always re-arms the mutation for
// another attempt
type Mutation[In, Out any] struct {
	mu      sync.Mutex
	pending bool
	fn      MutateFunc[In, Out]
	cfg     MutationConfig
}

// NewMutation builds a mutation around fn
func NewMutation[In, Out any](fn MutateFunc[In, Out], cfg MutationConfig) *Mutation[In, Out] {
	if fn == nil {
		panic("querykit: nil mutate func")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}
	return &Mutation[In, Out]{fn: fn, cfg: cfg}
}

// Pending reports whether a call is in flight; submission surfaces must be
// disabled while it is
func (m *Mutation[In, Out]) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Do runs the mutation. A second call while one is pending is rejected
// without touching the network. On success the configured families are
// invalidated so subsequent reads refetch; on failure the normalized error
// is attached to the bound form (field errors) and notified (top-level
// message), and prior cached data everywhere is left untouched
func (m *Mutation[In, Out]) Do(ctx context.Context, in In) (Out, error) {
	var zero Out

	m.mu.Lock()
	if m.pending {
		m.mu.Unlock()
		return zero, perr.Conflictf("submission already in progress")
	}
	m.pending = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.pending = false
		m.mu.Unlock()
	}()

	out, err := m.fn(ctx, in)
	if err != nil {
		n := perr.Normalize(err)
		if m.cfg.Form != nil && n.FieldErrors != nil {
			m.cfg.Form.SetFieldErrors(n.FieldErrors)
		}
		m.cfg.Notifier.Error(n.Message)
		return zero, err
	}

	if m.cfg.Form != nil && m.cfg.ResetOnSuccess {
		m.cfg.Form.Reset()
	}
	if m.cfg.Registry != nil && len(m.cfg.Invalidates) > 0 {
		m.cfg.Registry.Invalidate(m.cfg.Invalidates...)
	}
	if m.cfg.SuccessMessage != "" {
		m.cfg.Notifier.Success(m.cfg.SuccessMessage)
	}
	return out, nil
}
