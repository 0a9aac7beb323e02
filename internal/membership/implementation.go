// internal/membership/implementation.go
package membership

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var ErrEmptyStudentID = errors.New("student id must not be empty")

// MemoryRepository is a concurrency-safe member registry.
type MemoryRepository struct {
	mu      sync.RWMutex
	members map[string]*Member
}

// NewMemoryRepository creates an empty registry.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{members: make(map[string]*Member)}
}

// Get returns the member with the given student id.
func (r *MemoryRepository) Get(studentID string) (*Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[strings.TrimSpace(studentID)]
	return m, ok
}

// FindOrCreate returns the existing member or registers a new one.
// The boolean is true when a member was created. A non-empty credential is
// hashed and stored only on creation.
func (r *MemoryRepository) FindOrCreate(studentID, credential string, now time.Time) (*Member, bool, error) {
	id := strings.TrimSpace(studentID)
	if id == "" {
		return nil, false, ErrEmptyStudentID
	}

	if m, ok := r.Get(id); ok {
		return m, false, nil
	}

	// hash outside the write lock
	var cred *Credential
	if credential != "" {
		var err error
		cred, err = hashCredential(credential)
		if err != nil {
			return nil, false, fmt.Errorf("failed to hash credential: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[id]; ok {
		return m, false, nil
	}
	m := NewMember(id, now)
	m.credential = cred
	r.members[id] = m
	return m, true, nil
}
