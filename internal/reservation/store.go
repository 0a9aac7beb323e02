// internal/reservation/store.go
package reservation

import "sync"

// store indexes every reservation ever created by id.
// Entries are never removed; status fields are guarded by the owning trip and member locks.
type store struct {
	mu   sync.RWMutex
	byID map[int64]*Reservation
}

func newStore() *store {
	return &store{byID: make(map[int64]*Reservation)}
}

func (s *store) add(r *Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[r.ID] = r
}

func (s *store) get(id int64) (*Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	return r, ok
}
