// Package querykit is the client-side data orchestration engine: canonical
// query descriptors, a descriptor-keyed cache with stale-while-revalidate,
// retrying fetch executors, mutation executors with cache invalidation, and
// the list controller that composes them per resource
package querykit

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// StatusAll is the status filter value meaning "unfiltered", interchangeable
// with the empty string
const StatusAll = "all"

// ListQuery is the canonical filter/sort/pagination state behind every
// paginated list view
type ListQuery struct {
	Page      int
	PageSize  int
	Search    string
	Status    string // "" or "all" mean unfiltered
	SortBy    string // field_direction, e.g. "createdAt_desc"
	MinAmount *float64
	MaxAmount *float64
}

// DefaultListQuery returns the initial state for a fresh list view
func DefaultListQuery() ListQuery {
	return ListQuery{Page: 1, PageSize: 10}
}

// Descriptor is the canonical serialized form of a ListQuery, used as the
// cache and dedup key and as the request query string
type Descriptor struct {
	key    string
	values url.Values
}

// Key returns the canonical cache key
func (d Descriptor) Key() string { return d.key }

// Values returns the request query parameters
func (d Descriptor) Values() url.Values { return d.values }

// Descriptor composes the canonical descriptor for q. Empty and default
// fields (blank search, "all" status, unset bounds) are omitted so that
// semantically equal states always produce identical keys. NaN bounds are
// treated as unset and never serialized
func (q ListQuery) Descriptor() Descriptor {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if st := strings.TrimSpace(q.Status); st != "" && !strings.EqualFold(st, StatusAll) {
		v.Set("status", st)
	}
	if sb := strings.TrimSpace(q.SortBy); sb != "" {
		v.Set("sortBy", sb)
	}
	if f, ok := boundValue(q.MinAmount); ok {
		v.Set("minAmount", f)
	}
	if f, ok := boundValue(q.MaxAmount); ok {
		v.Set("maxAmount", f)
	}
	// Encode sorts keys, which is what makes the key canonical
	return Descriptor{key: v.Encode(), values: v}
}

// Static returns a descriptor with a fixed key and no parameters, for
// singleton resources (dashboard, profile) that carry no query state
func Static(key string) Descriptor {
	return Descriptor{key: key, values: url.Values{}}
}

// boundValue serializes an amount bound, rejecting nil and NaN
func boundValue(p *float64) (string, bool) {
	if p == nil || math.IsNaN(*p) {
		return "", false
	}
	return strconv.FormatFloat(*p, 'f', -1, 64), true
}

// Page is the server-authoritative pagination block. The client never
// recomputes TotalPages locally
type Page struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// ListResult is one page of a list resource plus its optional aggregate
// summary, superseded wholesale by the next fetch
type ListResult[T, S any] struct {
	Items   []T
	Page    Page
	Summary *S
}

// NoSummary is the summary type of list resources with no aggregate block
type NoSummary = struct{}
