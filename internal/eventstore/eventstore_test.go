package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*EventStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	es := NewEventStore(db)
	es.now = func() time.Time { return fixedNow }
	return es, mock
}

var insertQuery = regexp.QuoteMeta("INSERT INTO events")

func TestAppend(t *testing.T) {
	es, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(insertQuery).
		WithArgs(id.String(), "reservation", "ReservationCreated", []byte(`{"id":1}`), sqlmock.AnyArg(), 1, fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(41)))
	mock.ExpectQuery(insertQuery).
		WithArgs(id.String(), "reservation", "ReservationCancelled", []byte(`{"id":1}`), sqlmock.AnyArg(), 2, fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectCommit()

	err := es.Append(context.Background(), id, "reservation",
		Event{EventType: "ReservationCreated", EventData: json.RawMessage(`{"id":1}`), Version: 1},
		Event{EventType: "ReservationCancelled", EventData: json.RawMessage(`{"id":1}`), Version: 2},
	)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendOutOfOrderVersions(t *testing.T) {
	es, mock := newMockStore(t)
	id := uuid.New()
	ctx := context.Background()

	for _, version := range []int{2, 1} {
		mock.ExpectBegin()
		mock.ExpectQuery(insertQuery).
			WithArgs(id.String(), "reservation", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), version, fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(version)))
		mock.ExpectCommit()
	}

	require.NoError(t, es.Append(ctx, id, "reservation", Event{EventType: "ReservationNoShow", EventData: json.RawMessage(`{}`), Version: 2}))
	require.NoError(t, es.Append(ctx, id, "reservation", Event{EventType: "ReservationCreated", EventData: json.RawMessage(`{}`), Version: 1}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendDuplicateVersion(t *testing.T) {
	es, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(insertQuery).
		WillReturnError(uniqueViolation())
	mock.ExpectRollback()

	err := es.Append(context.Background(), id, "reservation", Event{EventType: "ReservationCreated", EventData: json.RawMessage(`{}`), Version: 1})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func uniqueViolation() error {
	return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

func TestAppendInsertError(t *testing.T) {
	es, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(insertQuery).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := es.Append(context.Background(), uuid.New(), "reservation", Event{EventType: "ReservationCreated", EventData: json.RawMessage(`{}`), Version: 1})
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NotErrorIs(t, err, ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendInvalidVersion(t *testing.T) {
	es, mock := newMockStore(t)

	err := es.Append(context.Background(), uuid.New(), "reservation", Event{EventType: "ReservationCreated"})
	assert.ErrorIs(t, err, ErrInvalidVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadEvents(t *testing.T) {
	es, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("AND version <= $3")).
		WithArgs(id.String(), 1, 2).
		WillReturnRows(sqlmock.NewRows(eventColumns).
			AddRow(int64(1), id.String(), "reservation", "ReservationCreated", []byte(`{"id":7}`), []byte(`{"trip_id":"T1"}`), 1, fixedNow).
			AddRow(int64(2), id.String(), "reservation", "ReservationNoShow", []byte(`{"id":7}`), nil, 2, fixedNow))

	events, err := es.LoadEvents(context.Background(), id, 1, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, id, events[0].AggregateID)
	assert.Equal(t, "T1", events[0].Metadata["trip_id"])
	assert.JSONEq(t, `{"id":7}`, string(events[1].EventData))
	assert.Nil(t, events[1].Metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	es, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS events")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, es.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// setupTestDB connects to a PostgreSQL database for tests that need one.
// It skips the test if the connection cannot be established.
func setupTestDB(t testing.TB) *sql.DB {
	t.Helper()

	getenv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getenv("PGHOST", "localhost"), getenv("PGPORT", "5432"), getenv("PGUSER", "user"),
		getenv("PGPASSWORD", "password"), getenv("PGDATABASE", "testdb"))

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: could not connect to postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func BenchmarkAppend(b *testing.B) {
	db := setupTestDB(b)
	es := NewEventStore(db)
	ctx := context.Background()
	if err := es.EnsureSchema(ctx); err != nil {
		b.Fatalf("failed to create schema: %v", err)
	}

	data := json.RawMessage(`{"seat_number":"1"}`)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := es.Append(ctx, uuid.New(), "reservation", Event{EventType: "ReservationCreated", EventData: data, Version: 1}); err != nil {
			b.Fatalf("failed to append event: %v", err)
		}
	}
}
