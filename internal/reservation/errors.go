// internal/reservation/errors.go
package reservation

import "errors"

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrTripNotFound        = errors.New("trip not found")
	ErrSeatNotFound        = errors.New("seat not found")
	ErrSeatUnavailable     = errors.New("seat already reserved")
	ErrMemberSuspended     = errors.New("member is suspended")
	ErrTripDeparted        = errors.New("trip has already departed")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrOutOfBookingWindow  = errors.New("date outside booking window")
	ErrMissingRouteFilter  = errors.New("route filter is required")
	ErrTripNotDeparted     = errors.New("trip has not departed yet")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrMemberNotFound, "MemberNotFound"},
	{ErrTripNotFound, "TripNotFound"},
	{ErrSeatNotFound, "SeatNotFound"},
	{ErrSeatUnavailable, "SeatUnavailable"},
	{ErrMemberSuspended, "MemberSuspended"},
	{ErrTripDeparted, "TripDeparted"},
	{ErrReservationNotFound, "ReservationNotFound"},
	{ErrOutOfBookingWindow, "OutOfBookingWindow"},
	{ErrMissingRouteFilter, "MissingRouteFilter"},
	{ErrTripNotDeparted, "TripNotDeparted"},
}

// Kind returns the stable name of a reservation error, or "Internal".
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "Internal"
}
