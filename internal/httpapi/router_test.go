package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campusshuttle/internal/catalog"
	"campusshuttle/internal/clients"
	"campusshuttle/internal/eventstore"
	"campusshuttle/internal/membership"
	"campusshuttle/internal/reservation"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)

func TestJournalRouteMountedOnlyWithJournal(t *testing.T) {
	srv := newServer(t, Options{})
	resp, err := srv.Client().Get(srv.URL + "/api/journal/" + uuid.NewString())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	srv = newServer(t, Options{Journal: eventstore.NewJournal(eventstore.NewEventStore(db))})
	resp, err = srv.Client().Get(srv.URL + "/api/journal/not-a-ref")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func newServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	trips := catalog.NewMemoryRepository()
	_, err := catalog.Seed(trips, catalog.DefaultTimetable(), now)
	require.NoError(t, err)
	members := membership.NewMemoryRepository()

	mgr := reservation.NewManager(trips, members, nil)
	router := NewRouter(
		reservation.NewHandler(mgr, func() time.Time { return now }),
		catalog.NewHandler(trips),
		membership.NewHandler(members),
		opts,
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestBookingFlowThroughClient(t *testing.T) {
	srv := newServer(t, Options{})
	c := clients.NewShuttleClient(srv.URL, srv.Client())
	ctx := context.Background()

	id, err := c.Login(ctx, " B123 ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "B123", id)
	_, err = c.Login(ctx, "B456", "")
	require.NoError(t, err)

	routes, err := c.Routes(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 4)
	assert.Equal(t, "NCU-THSR", routes[0].ID)

	trips, err := c.Search(ctx, "2026-03-10", "NCU-THSR", "")
	require.NoError(t, err)
	require.Len(t, trips, 6)
	assert.Equal(t, "T1", trips[0].ID)
	assert.Equal(t, 20, trips[0].AvailableSeats)

	trips, err = c.Search(ctx, "2026-04-09", "NCU-THSR", "")
	require.NoError(t, err)
	assert.Len(t, trips, 6, "last day of the booking horizon is seeded")

	_, err = c.Search(ctx, "2026-04-10", "NCU-THSR", "")
	var windowErr *clients.APIError
	require.True(t, errors.As(err, &windowErr))
	assert.Equal(t, "OutOfBookingWindow", windowErr.Kind)

	trips, err = c.Search(ctx, "2026-03-10", "NCU-THSR", "15:00")
	require.NoError(t, err)
	assert.Len(t, trips, 2)

	res, err := c.Book(ctx, "B123", "T1", "3")
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusReserved, res.Status)

	_, err = c.Book(ctx, "B456", "T1", "3")
	var apiErr *clients.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "SeatUnavailable", apiErr.Kind)

	seats, err := c.SeatMap(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, seats, 20)
	assert.False(t, seats[2].Available)

	views, err := c.Bookings(ctx, "B123")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "T1", views[0].Schedule.ID)

	status, err := c.Cancel(ctx, res.ID, "B123")
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusCancelled, status)

	standing, err := c.Standing(ctx, "B123")
	require.NoError(t, err)
	assert.Equal(t, 0, standing.Violations)
	assert.Equal(t, 1, standing.Reservations)

	_, err = c.Standing(ctx, "nobody")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestLoginRateLimit(t *testing.T) {
	srv := newServer(t, Options{LoginRatePerMinute: 1, LoginBurst: 1})
	c := clients.NewShuttleClient(srv.URL, srv.Client())
	ctx := context.Background()

	_, err := c.Login(ctx, "C001", "")
	require.NoError(t, err)

	_, err = c.Login(ctx, "C002", "")
	var apiErr *clients.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)

	_, err = c.Routes(ctx)
	assert.NoError(t, err)
}

func TestMiddleware(t *testing.T) {
	srv := newServer(t, Options{})

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/bookings", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "fixed-id")
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "fixed-id", resp.Header.Get("X-Request-ID"))
}

func TestRequestIDInContext(t *testing.T) {
	var got string
	h := RequestID(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
		w.WriteHeader(http.StatusAccepted)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), got)
	assert.Empty(t, GetRequestID(context.Background()))
}
