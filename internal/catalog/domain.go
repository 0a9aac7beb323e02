// internal/catalog/domain.go
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultSeatCount is the number of seats every shuttle trip carries.
const DefaultSeatCount = 20

var (
	ErrSeatNotFound    = errors.New("seat not found")
	ErrSeatOccupied    = errors.New("seat already occupied")
	ErrSeatNotBound    = errors.New("seat not bound to reservation")
	ErrInvalidTime     = errors.New("invalid time of day")
	ErrInvalidSeatSize = errors.New("seat count must be positive")
)

// Route is an immutable shuttle route.
type Route struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from an hour and minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseTimeOfDay parses "HH:MM" (seconds, if present, are ignored).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return NewTimeOfDay(hour, minute)
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DateOf truncates t to midnight of its calendar day in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the calendar-day difference to - from, ignoring the time of day.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Seat is one bookable unit of a trip. ReservationID is zero while the seat is free.
type Seat struct {
	Number        string `json:"seat_number"`
	TripID        string `json:"trip_id"`
	ReservationID int64  `json:"reservation_id,omitempty"`
}

// IsAvailable reports whether the seat is bound to no reservation.
func (s Seat) IsAvailable() bool {
	return s.ReservationID == 0
}

// Trip is one scheduled departure with a fixed seat inventory.
// Identity fields never change; the seat set never changes size after NewTrip.
// Inventory reads and writes must happen while holding Lock, except through Snapshot.
type Trip struct {
	ID        string
	RouteID   string
	RouteName string
	Date      time.Time
	Departure TimeOfDay

	mu    sync.Mutex
	order []string
	seats map[string]*Seat
}

// NewTrip creates a trip with seatCount seats numbered "1".."seatCount".
func NewTrip(id string, route Route, date time.Time, departure TimeOfDay, seatCount int) (*Trip, error) {
	if seatCount <= 0 {
		return nil, ErrInvalidSeatSize
	}
	t := &Trip{
		ID:        id,
		RouteID:   route.ID,
		RouteName: route.Name,
		Date:      DateOf(date),
		Departure: departure,
		order:     make([]string, 0, seatCount),
		seats:     make(map[string]*Seat, seatCount),
	}
	for i := 1; i <= seatCount; i++ {
		number := strconv.Itoa(i)
		t.order = append(t.order, number)
		t.seats[number] = &Seat{Number: number, TripID: id}
	}
	return t, nil
}

// Lock serializes seat mutation on the trip. Callers hold it for one operation only.
func (t *Trip) Lock()   { t.mu.Lock() }
func (t *Trip) Unlock() { t.mu.Unlock() }

// DepartsAt returns the full departure date-time.
func (t *Trip) DepartsAt() time.Time {
	y, m, d := t.Date.Date()
	return time.Date(y, m, d, t.Departure.Hour(), t.Departure.Minute(), 0, 0, t.Date.Location())
}

// DaysUntil returns how many calendar days separate today from the trip date.
func (t *Trip) DaysUntil(today time.Time) int {
	return DaysBetween(today, t.Date)
}

// SeatCount is the fixed size of the inventory.
func (t *Trip) SeatCount() int {
	return len(t.order)
}

// SeatNumbers returns seat numbers in construction order.
func (t *Trip) SeatNumbers() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// FindSeat returns a copy of the seat with the given number.
func (t *Trip) FindSeat(number string) (Seat, bool) {
	s, ok := t.seats[strings.TrimSpace(number)]
	if !ok {
		return Seat{}, false
	}
	return *s, true
}

// AvailableSeatCount counts free seats.
func (t *Trip) AvailableSeatCount() int {
	n := 0
	for _, s := range t.seats {
		if s.IsAvailable() {
			n++
		}
	}
	return n
}

// OccupiedSeatNumbers returns the numbers of bound seats in seat order.
func (t *Trip) OccupiedSeatNumbers() []string {
	out := []string{}
	for _, number := range t.order {
		if !t.seats[number].IsAvailable() {
			out = append(out, number)
		}
	}
	return out
}

// Seats returns a snapshot of the inventory in construction order.
func (t *Trip) Seats() []Seat {
	out := make([]Seat, 0, len(t.order))
	for _, number := range t.order {
		out = append(out, *t.seats[number])
	}
	return out
}

// BindSeat attaches a reservation to a free seat. It is the only path that occupies a seat.
func (t *Trip) BindSeat(number string, reservationID int64) error {
	s, ok := t.seats[strings.TrimSpace(number)]
	if !ok {
		return fmt.Errorf("%w: %s on trip %s", ErrSeatNotFound, number, t.ID)
	}
	if !s.IsAvailable() {
		return fmt.Errorf("%w: %s on trip %s", ErrSeatOccupied, number, t.ID)
	}
	s.ReservationID = reservationID
	return nil
}

// ReleaseSeat frees a seat currently bound to reservationID.
func (t *Trip) ReleaseSeat(number string, reservationID int64) error {
	s, ok := t.seats[strings.TrimSpace(number)]
	if !ok {
		return fmt.Errorf("%w: %s on trip %s", ErrSeatNotFound, number, t.ID)
	}
	if s.ReservationID != reservationID {
		return fmt.Errorf("%w: seat %s holds %d, not %d", ErrSeatNotBound, number, s.ReservationID, reservationID)
	}
	s.ReservationID = 0
	return nil
}

// TripView is a point-in-time copy of a trip and its availability.
type TripView struct {
	ID             string    `json:"id"`
	RouteID        string    `json:"route_id"`
	Route          string    `json:"route"`
	Date           string    `json:"date"`
	DepartureTime  TimeOfDay `json:"departure_time"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
	Occupied       []string  `json:"occupied_seats"`
}

// Snapshot takes the trip lock and copies the current availability.
func (t *Trip) Snapshot() TripView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TripView{
		ID:             t.ID,
		RouteID:        t.RouteID,
		Route:          t.RouteName,
		Date:           t.Date.Format("2006-01-02"),
		DepartureTime:  t.Departure,
		TotalSeats:     t.SeatCount(),
		AvailableSeats: t.AvailableSeatCount(),
		Occupied:       t.OccupiedSeatNumbers(),
	}
}
