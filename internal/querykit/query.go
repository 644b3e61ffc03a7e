package querykit

import (
	"context"
	"sync"
	"time"

	perr "fundlink/internal/platform/errors"
)

// Status is the coarse lifecycle of a query
type Status uint8

const (
	// StatusIdle means no load has been requested yet
	StatusIdle Status = iota
	// StatusLoading means the first load is in flight with nothing to show
	StatusLoading
	// StatusSuccess means the last settled fetch succeeded
	StatusSuccess
	// StatusError means the last settled fetch failed; prior data, if any,
	// is still served
	StatusError
)

// Defaults mirroring the production query configuration
const (
	DefaultStaleTTL = 2 * time.Minute
	DefaultRetries  = 2
	DefaultBackoff  = 200 * time.Millisecond
)

// FetchFunc performs the network call for one composed descriptor
type FetchFunc[R any] func(ctx context.Context, d Descriptor) (R, error)

// QueryConfig tunes a Query
type QueryConfig struct {
	// StaleTTL is how long a cached result is served without revalidation;
	// zero means DefaultStaleTTL, negative means always revalidate
	StaleTTL time.Duration
	// Retries bounds automatic retries of transient failures; zero means
	// DefaultRetries, negative disables retries
	Retries int
	// Backoff is the first retry delay, doubling per attempt; zero means
	// DefaultBackoff
	Backoff time.Duration
	// Notifier receives one error notification per failed attempt
	Notifier Notifier
}

func (c QueryConfig) withDefaults() QueryConfig {
	if c.StaleTTL == 0 {
		c.StaleTTL = DefaultStaleTTL
	}
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	} else if c.Retries < 0 {
		c.Retries = 0
	}
	if c.Backoff == 0 {
		c.Backoff = DefaultBackoff
	}
	if c.Notifier == nil {
		c.Notifier = NopNotifier{}
	}
	return c
}

// Query is the fetch executor for one resource. Results are cached per
// descriptor and served stale-while-revalidate; only the response matching
// the most recently issued descriptor may update visible state
type Query[R any] struct {
	mu       sync.Mutex
	fetch    FetchFunc[R]
	cfg      QueryConfig
	cache    *Cache[R]
	ctx      context.Context
	cur      Descriptor
	hasCur   bool
	seq      uint64
	status   Status
	fetching bool
	data     R
	hasData  bool
	err      error
	closed   bool
}

// NewQuery builds a Query around fetch
func NewQuery[R any](fetch FetchFunc[R], cfg QueryConfig) *Query[R] {
	if fetch == nil {
		panic("querykit: nil fetch func")
	}
	cfg = cfg.withDefaults()
	return &Query[R]{fetch: fetch, cfg: cfg, cache: NewCache[R](cfg.StaleTTL)}
}

// Load makes d the current descriptor and ensures its data is (or becomes)
// available. Fresh cache hits are served without a network call; stale hits
// are served immediately and revalidated in the background; misses fetch
// with prior data left visible. Responses for superseded descriptors are
// discarded silently
func (q *Query[R]) Load(ctx context.Context, d Descriptor) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	sameKey := q.hasCur && q.cur.Key() == d.Key()
	q.cur, q.hasCur = d, true
	q.ctx = ctx

	if data, ok, fresh := q.cache.Get(d.Key()); ok {
		q.data, q.hasData = data, true
		q.status = StatusSuccess
		q.err = nil
		if fresh || (sameKey && q.fetching) {
			// dedup: fresh enough, or this key is already revalidating
			q.mu.Unlock()
			return
		}
	} else if sameKey && q.fetching {
		q.mu.Unlock()
		return
	}

	my := q.begin()
	q.mu.Unlock()
	go q.run(ctx, d, my)
}

// Refetch forces a network round trip for the current descriptor
func (q *Query[R]) Refetch() {
	q.mu.Lock()
	if q.closed || !q.hasCur {
		q.mu.Unlock()
		return
	}
	q.cache.MarkStale(q.cur.Key())
	d, ctx := q.cur, q.ctx
	my := q.begin()
	q.mu.Unlock()
	go q.run(ctx, d, my)
}

// Invalidate marks every cached result stale and, when the query is live,
// refetches the current descriptor. Cold queries simply refetch on their
// next Load
func (q *Query[R]) Invalidate() {
	q.cache.MarkAllStale()
	q.Refetch()
}

// Close abandons the query: no state update is applied after it returns
func (q *Query[R]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.fetching = false
}

// begin stamps a new fetch attempt; callers hold the lock
func (q *Query[R]) begin() uint64 {
	q.seq++
	q.fetching = true
	if !q.hasData {
		q.status = StatusLoading
	}
	return q.seq
}

// superseded reports whether the attempt stamped my lost the race
func (q *Query[R]) superseded(my uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed || q.seq != my
}

// run executes one fetch attempt chain: the call plus bounded retries of
// transient failures with doubling backoff
func (q *Query[R]) run(ctx context.Context, d Descriptor, my uint64) {
	var (
		out R
		err error
	)
	backoff := q.cfg.Backoff
	for attempt := 0; ; attempt++ {
		if q.superseded(my) {
			return
		}
		out, err = q.fetch(ctx, d)
		if err == nil || !perr.Retryable(err) || attempt >= q.cfg.Retries {
			break
		}
		select {
		case <-ctx.Done():
			err = perr.Wrapf(ctx.Err(), perr.ErrorCodeTimeout, "query cancelled")
		case <-time.After(backoff):
			backoff *= 2
			continue
		}
		break
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if err == nil {
		// a superseded response still populates the cache for its own key
		q.cache.Put(d.Key(), out)
	}
	if q.seq != my {
		q.mu.Unlock()
		return
	}
	q.fetching = false
	if err != nil {
		// prior data stays visible: stale beats blank
		q.err = err
		q.status = StatusError
		notifier := q.cfg.Notifier
		q.mu.Unlock()
		notifier.Error(perr.Normalize(err).Message)
		return
	}
	q.data, q.hasData = out, true
	q.err = nil
	q.status = StatusSuccess
	q.mu.Unlock()
}

// Data returns the visible result and whether one exists
func (q *Query[R]) Data() (R, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.data, q.hasData
}

// Err returns the error from the last settled fetch, nil after success
func (q *Query[R]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Status returns the query lifecycle state
func (q *Query[R]) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.status
}

// IsLoading reports a first load with nothing to show yet
func (q *Query[R]) IsLoading() bool { return q.Status() == StatusLoading }

// IsFetching reports any in-flight fetch, including background
// revalidation while prior data remains visible
func (q *Query[R]) IsFetching() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fetching
}
