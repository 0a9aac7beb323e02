// internal/membership/domain.go
package membership

import (
	"sync"
	"time"
)

const (
	// SuspensionThreshold is the violation count at which a member loses booking rights.
	SuspensionThreshold = 3
	// SuspensionMonths is the length of a suspension.
	SuspensionMonths = 3
)

// Member holds a student's standing and reservation history.
// Fields are guarded by Lock; readers outside a locked section use Standing.
type Member struct {
	StudentID string

	mu             sync.Mutex
	credential     *Credential
	violations     int
	suspendedUntil time.Time
	history        []int64
	createdAt      time.Time
}

// Credential is the hashed credential placeholder supplied at first login.
type Credential struct {
	PasswordHash string `json:"-"`
	Salt         string `json:"-"`
}

// Standing is a copy of a member's eligibility state.
type Standing struct {
	StudentID      string     `json:"student_id"`
	Violations     int        `json:"violations"`
	SuspendedUntil *time.Time `json:"suspended_until,omitempty"`
	Reservations   int        `json:"reservations"`
	HasCredential  bool       `json:"has_credential"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewMember creates a member in good standing.
func NewMember(studentID string, now time.Time) *Member {
	return &Member{StudentID: studentID, createdAt: now}
}

func (m *Member) Lock()   { m.mu.Lock() }
func (m *Member) Unlock() { m.mu.Unlock() }

// Violations returns the current violation count.
func (m *Member) Violations() int { return m.violations }

// SuspendedUntil returns the suspension end, zero when none is set.
func (m *Member) SuspendedUntil() time.Time { return m.suspendedUntil }

// HasCredential reports whether a credential placeholder was stored.
func (m *Member) HasCredential() bool { return m.credential != nil }

// CanReserve lifts an expired suspension and then reports eligibility.
// Suspensions expire lazily, only here.
func (m *Member) CanReserve(now time.Time) bool {
	if !m.suspendedUntil.IsZero() && now.After(m.suspendedUntil) {
		m.ResetStanding()
	}
	return m.violations < SuspensionThreshold
}

// RecordViolation counts one violation and starts a suspension when the
// threshold is reached and none is running.
func (m *Member) RecordViolation(now time.Time) {
	m.violations++
	if m.violations >= SuspensionThreshold && !m.suspensionActive(now) {
		m.suspendedUntil = now.AddDate(0, SuspensionMonths, 0)
	}
}

// ResetStanding clears violations and suspension together.
func (m *Member) ResetStanding() {
	m.violations = 0
	m.suspendedUntil = time.Time{}
}

func (m *Member) suspensionActive(now time.Time) bool {
	return !m.suspendedUntil.IsZero() && !now.After(m.suspendedUntil)
}

// AppendReservation adds a reservation id to the history. History is append-only.
func (m *Member) AppendReservation(id int64) {
	m.history = append(m.history, id)
}

// History returns reservation ids in creation order.
func (m *Member) History() []int64 {
	out := make([]int64, len(m.history))
	copy(out, m.history)
	return out
}

// Standing takes the member lock and copies the standing.
func (m *Member) Standing() Standing {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Standing{
		StudentID:     m.StudentID,
		Violations:    m.violations,
		Reservations:  len(m.history),
		HasCredential: m.HasCredential(),
		CreatedAt:     m.createdAt,
	}
	if !m.suspendedUntil.IsZero() {
		until := m.suspendedUntil
		s.SuspendedUntil = &until
	}
	return s
}
