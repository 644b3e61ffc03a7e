package querykit

import "sync"

// Invalidatable is anything that can be told its data is stale
type Invalidatable interface {
	Invalidate()
}

// Registry fans invalidation out to query families ("dashboard",
// "user-loans", ...). Mutations invalidate families by name; live queries
// registered under a family refetch, cold ones refetch on next read
type Registry struct {
	mu       sync.Mutex
	families map[string][]registration
	nextID   uint64
}

// registration pairs a registered query with a per-Register id so a query
// living in several invalidated families is only told once. Deduping on the
// id keeps uncomparable Invalidatable implementations usable
type registration struct {
	id uint64
	q  Invalidatable
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{families: make(map[string][]registration)}
}

// Register adds q under each named family
func (r *Registry) Register(q Invalidatable, families ...string) {
	if q == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	reg := registration{id: r.nextID, q: q}
	for _, f := range families {
		if f == "" {
			continue
		}
		r.families[f] = append(r.families[f], reg)
	}
}

// Invalidate marks every query in the named families stale
func (r *Registry) Invalidate(families ...string) {
	r.mu.Lock()
	var targets []Invalidatable
	seen := make(map[uint64]bool)
	for _, f := range families {
		for _, reg := range r.families[f] {
			if !seen[reg.id] {
				seen[reg.id] = true
				targets = append(targets, reg.q)
			}
		}
	}
	r.mu.Unlock()

	for _, q := range targets {
		q.Invalidate()
	}
}
