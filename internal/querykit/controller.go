package querykit

import (
	"context"
	"sync"
	"time"

	"fundlink/internal/platform/debounce"
)

// DefaultDebounce matches the production input settle window
const DefaultDebounce = 300 * time.Millisecond

// ControllerConfig tunes a list controller
type ControllerConfig struct {
	// Debounce is the filter settle window; zero means DefaultDebounce,
	// negative means no delay (still asynchronous)
	Debounce time.Duration
	// Query configures the underlying fetch executor
	Query QueryConfig
	// Registry and Families, when set, register the controller's query for
	// cross-mutation invalidation
	Registry *Registry
	Families []string
}

// update is a debounced filter change; stale generations are dropped so a
// ClearFilters cannot be undone by a late-settling input
type update struct {
	gen   uint64
	apply func(*ListQuery)
}

// Controller owns one list view's query state. Raw setter values are kept
// for display while filter changes settle through per-filter debouncers
// (each filter refetches independently when it settles); pagination changes
// apply immediately. Every filter and page-size change resets the page to 1
type Controller[T, S any] struct {
	mu     sync.Mutex
	raw    ListQuery // what the inputs currently show
	eff    ListQuery // settled state driving the query
	gen    uint64
	ctx    context.Context
	closed bool
	query  *Query[ListResult[T, S]]

	debSearch *debounce.Debouncer[update]
	debStatus *debounce.Debouncer[update]
	debMin    *debounce.Debouncer[update]
	debMax    *debounce.Debouncer[update]
}

// NewController builds a controller around fetch and registers it under
// cfg.Families for invalidation. Call Start to issue the first load
func NewController[T, S any](fetch FetchFunc[ListResult[T, S]], cfg ControllerConfig) *Controller[T, S] {
	delay := cfg.Debounce
	if delay == 0 {
		delay = DefaultDebounce
	} else if delay < 0 {
		delay = 0
	}

	c := &Controller[T, S]{
		raw:   DefaultListQuery(),
		eff:   DefaultListQuery(),
		ctx:   context.Background(),
		query: NewQuery(fetch, cfg.Query),
	}
	c.debSearch = debounce.New(delay, c.settle)
	c.debStatus = debounce.New(delay, c.settle)
	c.debMin = debounce.New(delay, c.settle)
	c.debMax = debounce.New(delay, c.settle)

	if cfg.Registry != nil && len(cfg.Families) > 0 {
		cfg.Registry.Register(c.query, cfg.Families...)
	}
	return c
}

// Start issues the initial load. ctx bounds every fetch the controller
// triggers until Close
func (c *Controller[T, S]) Start(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if ctx != nil {
		c.ctx = ctx
	}
	d, lctx := c.eff.Descriptor(), c.ctx
	c.mu.Unlock()
	c.query.Load(lctx, d)
}

// settle applies a debounced filter change and reloads
func (c *Controller[T, S]) settle(u update) {
	c.mu.Lock()
	if c.closed || u.gen != c.gen {
		c.mu.Unlock()
		return
	}
	u.apply(&c.eff)
	d, ctx := c.eff.Descriptor(), c.ctx
	c.mu.Unlock()
	c.query.Load(ctx, d)
}

// reload recomposes the descriptor from the settled state and loads it now
func (c *Controller[T, S]) reload() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	d, ctx := c.eff.Descriptor(), c.ctx
	c.mu.Unlock()
	c.query.Load(ctx, d)
}

// schedule records a raw filter change, resets the page, and queues the
// settled application of the change
func (c *Controller[T, S]) schedule(deb *debounce.Debouncer[update], raw, eff func(*ListQuery)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	raw(&c.raw)
	c.raw.Page = 1
	c.eff.Page = 1
	gen := c.gen
	c.mu.Unlock()
	deb.Set(update{gen: gen, apply: eff})
}

// SetSearchQuery updates the free-text filter (debounced, resets page)
func (c *Controller[T, S]) SetSearchQuery(v string) {
	c.schedule(c.debSearch,
		func(q *ListQuery) { q.Search = v },
		func(q *ListQuery) { q.Search = v })
}

// SetStatusFilter updates the status filter (debounced, resets page)
func (c *Controller[T, S]) SetStatusFilter(v string) {
	c.schedule(c.debStatus,
		func(q *ListQuery) { q.Status = v },
		func(q *ListQuery) { q.Status = v })
}

// SetMinAmount updates the lower amount bound (debounced, resets page);
// nil clears the bound
func (c *Controller[T, S]) SetMinAmount(v *float64) {
	c.schedule(c.debMin,
		func(q *ListQuery) { q.MinAmount = v },
		func(q *ListQuery) { q.MinAmount = v })
}

// SetMaxAmount updates the upper amount bound (debounced, resets page);
// nil clears the bound
func (c *Controller[T, S]) SetMaxAmount(v *float64) {
	c.schedule(c.debMax,
		func(q *ListQuery) { q.MaxAmount = v },
		func(q *ListQuery) { q.MaxAmount = v })
}

// SetSortBy updates the sort key and refetches immediately (resets page)
func (c *Controller[T, S]) SetSortBy(v string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.raw.SortBy = v
	c.eff.SortBy = v
	c.raw.Page = 1
	c.eff.Page = 1
	c.mu.Unlock()
	c.reload()
}

// SetPageSize changes the page size and resets to page 1
func (c *Controller[T, S]) SetPageSize(n int) {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.raw.PageSize = n
	c.eff.PageSize = n
	c.raw.Page = 1
	c.eff.Page = 1
	c.mu.Unlock()
	c.reload()
}

// SetCurrentPage moves to the given page without touching filters
func (c *Controller[T, S]) SetCurrentPage(page int) {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.raw.Page = page
	c.eff.Page = page
	c.mu.Unlock()
	c.reload()
}

// ClearFilters resets search, status, and both amount bounds, returns to
// page 1, and refetches immediately. Pending debounced changes from before
// the clear are discarded
func (c *Controller[T, S]) ClearFilters() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.gen++
	for _, q := range []*ListQuery{&c.raw, &c.eff} {
		q.Search = ""
		q.Status = ""
		q.MinAmount = nil
		q.MaxAmount = nil
		q.Page = 1
	}
	c.mu.Unlock()
	c.reload()
}

// Refetch forces a fresh fetch of the current descriptor
func (c *Controller[T, S]) Refetch() { c.query.Refetch() }

// Close cancels pending debounce timers and abandons in-flight fetches; no
// state update is applied afterwards
func (c *Controller[T, S]) Close() {
	c.mu.Lock()
	c.closed = true
	c.gen++
	c.mu.Unlock()
	c.debSearch.Stop()
	c.debStatus.Stop()
	c.debMin.Stop()
	c.debMax.Stop()
	c.query.Close()
}

// State returns the raw query state as the inputs currently show it
func (c *Controller[T, S]) State() ListQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw
}

// Items returns the visible page of records, nil before the first success
func (c *Controller[T, S]) Items() []T {
	if r, ok := c.query.Data(); ok {
		return r.Items
	}
	return nil
}

// Pagination returns the server-reported pagination, or a zero-count block
// reflecting the requested page before any data arrives
func (c *Controller[T, S]) Pagination() Page {
	if r, ok := c.query.Data(); ok {
		return r.Page
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Page{Page: c.eff.Page, PageSize: c.eff.PageSize}
}

// Summary returns the aggregate block of the visible result, if any
func (c *Controller[T, S]) Summary() *S {
	if r, ok := c.query.Data(); ok {
		return r.Summary
	}
	return nil
}

// Err returns the error from the last settled fetch
func (c *Controller[T, S]) Err() error { return c.query.Err() }

// IsLoading reports a first load with nothing to show
func (c *Controller[T, S]) IsLoading() bool { return c.query.IsLoading() }

// IsFetching reports any in-flight fetch, including revalidation
func (c *Controller[T, S]) IsFetching() bool { return c.query.IsFetching() }
