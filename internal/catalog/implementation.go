// internal/catalog/implementation.go
package catalog

import (
	"fmt"
	"sync"
)

// MemoryRepository keeps trips in insertion order with an id index.
type MemoryRepository struct {
	mu     sync.RWMutex
	routes []Route
	trips  []*Trip
	byID   map[string]*Trip
}

// NewMemoryRepository creates an empty catalog.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID: make(map[string]*Trip),
	}
}

// AddRoute registers a route. Duplicate ids are rejected.
func (r *MemoryRepository) AddRoute(route Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.routes {
		if existing.ID == route.ID {
			return fmt.Errorf("route %s already registered", route.ID)
		}
	}
	r.routes = append(r.routes, route)
	return nil
}

// AddTrip registers a trip. Duplicate ids are rejected.
func (r *MemoryRepository) AddTrip(trip *Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[trip.ID]; exists {
		return fmt.Errorf("trip %s already registered", trip.ID)
	}
	r.trips = append(r.trips, trip)
	r.byID[trip.ID] = trip
	return nil
}

// Get returns the trip with the given id.
func (r *MemoryRepository) Get(id string) (*Trip, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	return t, ok
}

// All returns trips in insertion order.
func (r *MemoryRepository) All() []*Trip {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Trip, len(r.trips))
	copy(out, r.trips)
	return out
}

// Routes returns routes in registration order.
func (r *MemoryRepository) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}
