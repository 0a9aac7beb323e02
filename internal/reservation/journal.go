// internal/reservation/journal.go
package reservation

import "context"

// Journal receives committed transitions, e.g. for persistence or audit.
type Journal interface {
	Record(ctx context.Context, event Event) error
}

// NopJournal discards events.
type NopJournal struct{}

func (NopJournal) Record(context.Context, Event) error { return nil }
