// internal/reservation/service.go
package reservation

import (
	"context"
	"time"

	"campusshuttle/internal/catalog"
	"campusshuttle/internal/membership"
)

const (
	// BookingHorizonDays bounds how far ahead trips can be searched.
	BookingHorizonDays = 30
	// GracePeriod is how long before departure a cancellation stops being timely.
	GracePeriod = 30 * time.Minute
)

// SearchQuery filters trips. Route matches a route name or id; MinDeparture is optional.
type SearchQuery struct {
	Date         time.Time
	MinDeparture *catalog.TimeOfDay
	Route        string
}

// Service defines the operations the reservation core offers its callers.
type Service interface {
	FindOrCreateMember(ctx context.Context, studentID, credential string, now time.Time) (*membership.Member, error)
	SearchTrips(ctx context.Context, q SearchQuery, now time.Time) ([]*catalog.Trip, error)
	SeatMap(ctx context.Context, tripID string) ([]catalog.Seat, error)
	ListActiveReservations(ctx context.Context, studentID string) ([]Reservation, error)
	ListReservations(ctx context.Context, studentID string) ([]Reservation, error)
	GetTrip(ctx context.Context, tripID string) (*catalog.Trip, error)
	CreateReservation(ctx context.Context, studentID, tripID, seatNumber string, now time.Time) (*Reservation, error)
	CancelReservation(ctx context.Context, reservationID int64, studentID string, now time.Time) (*Reservation, error)
	MarkNoShow(ctx context.Context, reservationID int64, now time.Time) (*Reservation, error)
}
