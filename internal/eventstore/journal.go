// internal/eventstore/journal.go
package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"campusshuttle/internal/reservation"

	"github.com/google/uuid"
)

const aggregateReservation = "reservation"

var ErrMissingRef = errors.New("reservation has no ref")

// Journal writes reservation transitions to the event store, one stream per
// reservation Ref. Each event lands at the version it carries, so a close that
// overtakes its create is still stored.
type Journal struct {
	store *EventStore
}

var _ reservation.Journal = (*Journal)(nil)

func NewJournal(store *EventStore) *Journal {
	return &Journal{store: store}
}

func (j *Journal) Record(ctx context.Context, event reservation.Event) error {
	res := event.Reservation
	if res.Ref == uuid.Nil {
		return fmt.Errorf("%w: reservation %d", ErrMissingRef, res.ID)
	}

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	stored := Event{
		EventType: event.Type,
		EventData: data,
		Version:   event.Version,
		Metadata: map[string]interface{}{
			"reservation_id": res.ID,
			"student_id":     res.StudentID,
			"trip_id":        res.TripID,
			"violations":     event.Violations,
		},
	}
	if err := j.store.Append(ctx, res.Ref, aggregateReservation, stored); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// History loads the stored transitions of one reservation stream.
func (j *Journal) History(ctx context.Context, ref uuid.UUID) ([]Event, error) {
	return j.store.LoadEvents(ctx, ref, 0, 0)
}
