// internal/reservation/domain.go
package reservation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusReserved      Status = "RESERVED"
	StatusCancelled     Status = "CANCELLED"
	StatusLateWithdrawn Status = "LATE_WITHDRAWN"
	StatusNoShow        Status = "NO_SHOW"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s != StatusReserved
}

// Action triggers a status transition.
type Action string

const (
	ActionCancel     Action = "cancel"
	ActionLateCancel Action = "late_cancel"
	ActionNoShow     Action = "no_show"
)

var ErrIllegalTransition = errors.New("illegal status transition")

type transitionKey struct {
	from   Status
	action Action
}

var transitions = map[transitionKey]Status{
	{StatusReserved, ActionCancel}:     StatusCancelled,
	{StatusReserved, ActionLateCancel}: StatusLateWithdrawn,
	{StatusReserved, ActionNoShow}:     StatusNoShow,
}

// Transition returns the state reached from `from` by `action`.
func Transition(from Status, action Action) (Status, error) {
	to, ok := transitions[transitionKey{from, action}]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, action, from)
	}
	return to, nil
}

// Reservation binds one member to one seat on one trip.
// Only Status and ClosedAt ever change after creation. ID is unique within a
// process; Ref is unique across restarts and keys the reservation's journal stream.
type Reservation struct {
	ID         int64      `json:"id"`
	Ref        uuid.UUID  `json:"ref"`
	CreatedAt  time.Time  `json:"created_at"`
	StudentID  string     `json:"student_id"`
	TripID     string     `json:"trip_id"`
	SeatNumber string     `json:"seat_number"`
	Status     Status     `json:"status"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
}

func (r *Reservation) apply(action Action, now time.Time) error {
	to, err := Transition(r.Status, action)
	if err != nil {
		return err
	}
	r.Status = to
	closed := now
	r.ClosedAt = &closed
	return nil
}

// Event types written to the journal.
const (
	EventReservationCreated       = "ReservationCreated"
	EventReservationCancelled     = "ReservationCancelled"
	EventReservationLateWithdrawn = "ReservationLateWithdrawn"
	EventReservationNoShow        = "ReservationNoShow"
)

// Event versions within one reservation's stream.
const (
	VersionCreated = 1
	VersionClosed  = 2
)

// Event is a committed reservation transition. Version orders the events of
// one reservation even when they reach the journal out of order.
type Event struct {
	Type        string      `json:"type"`
	Version     int         `json:"version"`
	Reservation Reservation `json:"reservation"`
	Violations  int         `json:"violations"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

func eventVersionFor(s Status) int {
	if s.Terminal() {
		return VersionClosed
	}
	return VersionCreated
}

func eventTypeFor(s Status) string {
	switch s {
	case StatusReserved:
		return EventReservationCreated
	case StatusCancelled:
		return EventReservationCancelled
	case StatusLateWithdrawn:
		return EventReservationLateWithdrawn
	case StatusNoShow:
		return EventReservationNoShow
	default:
		panic(fmt.Sprintf("reservation: no event for status %q", s))
	}
}
