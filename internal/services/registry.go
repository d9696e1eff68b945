package services

import (
	"sync"
	"time"

	"giveaway/internal/models"
)

// Registry is the process-wide map of live giveaways. Its lock covers only
// the map structure; each record guards its own state, so slow work on one
// giveaway never blocks lookups of another.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Giveaway
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]*Giveaway),
	}
}

func (r *Registry) add(g *Giveaway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[g.ID] = g
}

// Get looks up a giveaway by id.
func (r *Registry) Get(id string) (*Giveaway, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.records[id]
	return g, ok
}

// Remove deletes a closed giveaway. Removing an open or finalizing record is
// refused so its timer is never orphaned.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	if g.Status() != models.StatusClosed {
		return ErrNotClosed
	}
	delete(r.records, id)
	return nil
}

// Open returns every record still accepting entries.
func (r *Registry) Open() []*Giveaway {
	r.mu.RLock()
	defer r.mu.RUnlock()

	open := make([]*Giveaway, 0, len(r.records))
	for _, g := range r.records {
		if g.Status() == models.StatusOpen {
			open = append(open, g)
		}
	}
	return open
}

// Sweep removes closed records whose results have been out longer than the
// retention window and reports how many were dropped.
func (r *Registry) Sweep(retention time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, g := range r.records {
		if closedAt, ok := g.closedSince(); ok && time.Since(closedAt) > retention {
			delete(r.records, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of records, regardless of state.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
