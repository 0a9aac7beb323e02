// internal/reservation/implementation.go
package reservation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"campusshuttle/internal/catalog"
	"campusshuttle/internal/membership"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Manager is the control point of the reservation core. It owns policy only;
// trips and members come from injected repositories.
type Manager struct {
	trips   catalog.Repository
	members membership.Repository
	journal Journal
	store   *store
	nextID  atomic.Int64

	tracer   trace.Tracer
	created  metric.Int64Counter
	closed   metric.Int64Counter
	rejected metric.Int64Counter
}

var _ Service = (*Manager)(nil)

// NewManager creates a manager over the given catalog and registry. A nil
// journal discards events.
func NewManager(trips catalog.Repository, members membership.Repository, journal Journal) *Manager {
	if journal == nil {
		journal = NopJournal{}
	}
	m := &Manager{
		trips:   trips,
		members: members,
		journal: journal,
		store:   newStore(),
		tracer:  otel.Tracer("campusshuttle/reservation"),
	}
	m.initMetrics(otel.Meter("campusshuttle/reservation"))
	return m
}

func (m *Manager) initMetrics(meter metric.Meter) {
	var err error
	if m.created, err = meter.Int64Counter("reservations.created",
		metric.WithDescription("Reservations created")); err != nil {
		log.Printf("[RESERVATION] action=init_metrics msg=%v", err)
	}
	if m.closed, err = meter.Int64Counter("reservations.closed",
		metric.WithDescription("Reservations moved to a terminal status")); err != nil {
		log.Printf("[RESERVATION] action=init_metrics msg=%v", err)
	}
	if m.rejected, err = meter.Int64Counter("reservations.rejected",
		metric.WithDescription("Requests rejected by reservation policy")); err != nil {
		log.Printf("[RESERVATION] action=init_metrics msg=%v", err)
	}
}

func (m *Manager) fail(ctx context.Context, span trace.Span, op string, err error) error {
	kind := Kind(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, kind)
	if m.rejected != nil {
		m.rejected.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("kind", kind),
		))
	}
	return err
}

func (m *Manager) record(ctx context.Context, res Reservation, violations int, now time.Time) {
	event := Event{
		Type:        eventTypeFor(res.Status),
		Version:     eventVersionFor(res.Status),
		Reservation: res,
		Violations:  violations,
		OccurredAt:  now,
	}
	if err := m.journal.Record(ctx, event); err != nil {
		log.Printf("[RESERVATION] action=journal reservation_id=%d type=%s msg=%v", res.ID, event.Type, err)
	}
}

// FindOrCreateMember identifies a member, registering one on first sight.
func (m *Manager) FindOrCreateMember(ctx context.Context, studentID, credential string, now time.Time) (*membership.Member, error) {
	_, span := m.tracer.Start(ctx, "reservation.find_or_create_member")
	defer span.End()

	member, created, err := m.members.FindOrCreate(studentID, credential, now)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to find or create member: %w", err)
	}
	if created {
		log.Printf("[RESERVATION] action=register student_id=%s", member.StudentID)
	}
	span.SetAttributes(attribute.Bool("member.created", created))
	return member, nil
}

// GetTrip resolves a trip by id.
func (m *Manager) GetTrip(ctx context.Context, tripID string) (*catalog.Trip, error) {
	trip, ok := m.trips.Get(tripID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTripNotFound, tripID)
	}
	return trip, nil
}

// SearchTrips returns bookable trips on one date and route, in catalog order.
func (m *Manager) SearchTrips(ctx context.Context, q SearchQuery, now time.Time) ([]*catalog.Trip, error) {
	ctx, span := m.tracer.Start(ctx, "reservation.search_trips",
		trace.WithAttributes(
			attribute.String("search.date", q.Date.Format("2006-01-02")),
			attribute.String("search.route", q.Route),
		),
	)
	defer span.End()

	days := catalog.DaysBetween(now, q.Date)
	if days < 0 || days > BookingHorizonDays {
		return nil, m.fail(ctx, span, "search", fmt.Errorf("%w: %s", ErrOutOfBookingWindow, q.Date.Format("2006-01-02")))
	}
	route := strings.TrimSpace(q.Route)
	if route == "" {
		return nil, m.fail(ctx, span, "search", ErrMissingRouteFilter)
	}

	y, mo, d := q.Date.Date()
	out := []*catalog.Trip{}
	for _, trip := range m.trips.All() {
		ty, tm, td := trip.Date.Date()
		if ty != y || tm != mo || td != d {
			continue
		}
		if trip.RouteName != route && trip.RouteID != route {
			continue
		}
		if q.MinDeparture != nil && trip.Departure < *q.MinDeparture {
			continue
		}
		if !trip.DepartsAt().After(now) {
			continue
		}
		out = append(out, trip)
	}

	span.SetAttributes(attribute.Int("search.results", len(out)))
	return out, nil
}

// SeatMap returns the seat inventory of a trip.
func (m *Manager) SeatMap(ctx context.Context, tripID string) ([]catalog.Seat, error) {
	trip, err := m.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	trip.Lock()
	defer trip.Unlock()
	return trip.Seats(), nil
}

// ListActiveReservations returns the member's RESERVED entries in creation order.
func (m *Manager) ListActiveReservations(ctx context.Context, studentID string) ([]Reservation, error) {
	return m.listReservations(ctx, studentID, true)
}

// ListReservations returns the member's full history in creation order.
func (m *Manager) ListReservations(ctx context.Context, studentID string) ([]Reservation, error) {
	return m.listReservations(ctx, studentID, false)
}

func (m *Manager) listReservations(ctx context.Context, studentID string, activeOnly bool) ([]Reservation, error) {
	member, ok := m.members.Get(studentID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, studentID)
	}

	member.Lock()
	defer member.Unlock()
	out := []Reservation{}
	for _, id := range member.History() {
		res, ok := m.store.get(id)
		if !ok {
			panic(fmt.Sprintf("reservation: history of %s references unknown reservation %d", studentID, id))
		}
		if activeOnly && res.Status != StatusReserved {
			continue
		}
		out = append(out, *res)
	}
	return out, nil
}

// CreateReservation books one seat. Checks run in a fixed order so the
// reported error is deterministic: member and trip existence, standing, seat,
// departure time. Nothing is mutated unless every check passes.
func (m *Manager) CreateReservation(ctx context.Context, studentID, tripID, seatNumber string, now time.Time) (*Reservation, error) {
	ctx, span := m.tracer.Start(ctx, "reservation.create",
		trace.WithAttributes(
			attribute.String("member.id", studentID),
			attribute.String("trip.id", tripID),
			attribute.String("seat.number", seatNumber),
		),
	)
	defer span.End()

	res, violations, err := m.create(studentID, tripID, seatNumber, now)
	if err != nil {
		return nil, m.fail(ctx, span, "create", err)
	}

	span.SetAttributes(attribute.Int64("reservation.id", res.ID))
	if m.created != nil {
		m.created.Add(ctx, 1)
	}
	log.Printf("[RESERVATION] action=create reservation_id=%d student_id=%s trip_id=%s seat=%s",
		res.ID, res.StudentID, res.TripID, res.SeatNumber)
	m.record(ctx, res, violations, now)
	return &res, nil
}

func (m *Manager) create(studentID, tripID, seatNumber string, now time.Time) (Reservation, int, error) {
	member, ok := m.members.Get(studentID)
	if !ok {
		return Reservation{}, 0, fmt.Errorf("%w: %s", ErrMemberNotFound, studentID)
	}
	trip, ok := m.trips.Get(tripID)
	if !ok {
		return Reservation{}, 0, fmt.Errorf("%w: %s", ErrTripNotFound, tripID)
	}

	// lock order: trip, then member
	trip.Lock()
	defer trip.Unlock()
	member.Lock()
	defer member.Unlock()

	if !member.CanReserve(now) {
		return Reservation{}, 0, fmt.Errorf("%w: %s until %s", ErrMemberSuspended,
			member.StudentID, member.SuspendedUntil().Format(time.RFC3339))
	}

	seatNumber = strings.TrimSpace(seatNumber)
	seat, ok := trip.FindSeat(seatNumber)
	if !ok {
		return Reservation{}, 0, fmt.Errorf("%w: %s on trip %s", ErrSeatNotFound, seatNumber, trip.ID)
	}
	if !seat.IsAvailable() {
		m.assertLiveBinding(seat)
		return Reservation{}, 0, fmt.Errorf("%w: %s on trip %s", ErrSeatUnavailable, seatNumber, trip.ID)
	}

	if !trip.DepartsAt().After(now) {
		return Reservation{}, 0, fmt.Errorf("%w: trip %s left at %s", ErrTripDeparted,
			trip.ID, trip.DepartsAt().Format(time.RFC3339))
	}

	res := &Reservation{
		ID:         m.nextID.Add(1),
		Ref:        uuid.New(),
		CreatedAt:  now,
		StudentID:  member.StudentID,
		TripID:     trip.ID,
		SeatNumber: seat.Number,
		Status:     StatusReserved,
	}
	if err := trip.BindSeat(seat.Number, res.ID); err != nil {
		panic(fmt.Sprintf("reservation: bind checked seat: %v", err))
	}
	m.store.add(res)
	member.AppendReservation(res.ID)
	return *res, member.Violations(), nil
}

// assertLiveBinding panics when an occupied seat points at anything but a RESERVED reservation.
func (m *Manager) assertLiveBinding(seat catalog.Seat) {
	bound, ok := m.store.get(seat.ReservationID)
	if !ok || bound.Status != StatusReserved {
		panic(fmt.Sprintf("reservation: seat %s on trip %s bound to non-live reservation %d",
			seat.Number, seat.TripID, seat.ReservationID))
	}
}

// CancelReservation withdraws an active reservation. Cancelling before the
// grace boundary (departure minus GracePeriod) is free; at or after it the
// reservation is LATE_WITHDRAWN and the member gets a violation. The seat is
// released either way.
func (m *Manager) CancelReservation(ctx context.Context, reservationID int64, studentID string, now time.Time) (*Reservation, error) {
	ctx, span := m.tracer.Start(ctx, "reservation.cancel",
		trace.WithAttributes(
			attribute.Int64("reservation.id", reservationID),
			attribute.String("member.id", studentID),
		),
	)
	defer span.End()

	member, ok := m.members.Get(studentID)
	if !ok {
		return nil, m.fail(ctx, span, "cancel", fmt.Errorf("%w: %s", ErrMemberNotFound, studentID))
	}
	res, ok := m.store.get(reservationID)
	if !ok || res.StudentID != member.StudentID {
		return nil, m.fail(ctx, span, "cancel", fmt.Errorf("%w: %d", ErrReservationNotFound, reservationID))
	}

	closed, violations, err := m.close(res, member, now, func(trip *catalog.Trip) (Action, error) {
		if now.Before(trip.DepartsAt().Add(-GracePeriod)) {
			return ActionCancel, nil
		}
		return ActionLateCancel, nil
	})
	if err != nil {
		return nil, m.fail(ctx, span, "cancel", err)
	}

	span.SetAttributes(attribute.String("reservation.status", string(closed.Status)))
	m.finish(ctx, closed, violations, now)
	return &closed, nil
}

// MarkNoShow closes a reservation whose trip left without the member.
func (m *Manager) MarkNoShow(ctx context.Context, reservationID int64, now time.Time) (*Reservation, error) {
	ctx, span := m.tracer.Start(ctx, "reservation.no_show",
		trace.WithAttributes(attribute.Int64("reservation.id", reservationID)),
	)
	defer span.End()

	res, ok := m.store.get(reservationID)
	if !ok {
		return nil, m.fail(ctx, span, "no_show", fmt.Errorf("%w: %d", ErrReservationNotFound, reservationID))
	}
	member, ok := m.members.Get(res.StudentID)
	if !ok {
		panic(fmt.Sprintf("reservation: %d owned by unknown member %s", res.ID, res.StudentID))
	}

	closed, violations, err := m.close(res, member, now, func(trip *catalog.Trip) (Action, error) {
		if now.Before(trip.DepartsAt()) {
			return "", fmt.Errorf("%w: trip %s leaves at %s", ErrTripNotDeparted,
				trip.ID, trip.DepartsAt().Format(time.RFC3339))
		}
		return ActionNoShow, nil
	})
	if err != nil {
		return nil, m.fail(ctx, span, "no_show", err)
	}

	m.finish(ctx, closed, violations, now)
	return &closed, nil
}

func (m *Manager) finish(ctx context.Context, res Reservation, violations int, now time.Time) {
	if m.closed != nil {
		m.closed.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(res.Status))))
	}
	log.Printf("[RESERVATION] action=close reservation_id=%d student_id=%s status=%s violations=%d",
		res.ID, res.StudentID, res.Status, violations)
	m.record(ctx, res, violations, now)
}

// close moves res to a terminal state chosen by decide, releases its seat and
// records a violation for late or missed trips, all under the trip and member locks.
func (m *Manager) close(res *Reservation, member *membership.Member, now time.Time,
	decide func(*catalog.Trip) (Action, error)) (Reservation, int, error) {
	trip, ok := m.trips.Get(res.TripID)
	if !ok {
		panic(fmt.Sprintf("reservation: %d references unknown trip %s", res.ID, res.TripID))
	}

	trip.Lock()
	defer trip.Unlock()
	member.Lock()
	defer member.Unlock()

	if res.Status != StatusReserved {
		return Reservation{}, 0, fmt.Errorf("%w: %d is %s", ErrReservationNotFound, res.ID, res.Status)
	}

	action, err := decide(trip)
	if err != nil {
		return Reservation{}, 0, err
	}
	if _, err := Transition(res.Status, action); err != nil {
		return Reservation{}, 0, err
	}

	if err := trip.ReleaseSeat(res.SeatNumber, res.ID); err != nil {
		panic(fmt.Sprintf("reservation: release seat for %d: %v", res.ID, err))
	}
	if err := res.apply(action, now); err != nil {
		panic(fmt.Sprintf("reservation: apply checked transition: %v", err))
	}
	if action != ActionCancel {
		member.RecordViolation(now)
	}
	return *res, member.Violations(), nil
}
