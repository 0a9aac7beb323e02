package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var base = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func TestCanReserveBelowThreshold(t *testing.T) {
	m := NewMember("A001", base)
	assert.True(t, m.CanReserve(base))

	m.RecordViolation(base)
	m.RecordViolation(base)
	assert.Equal(t, 2, m.Violations())
	assert.True(t, m.CanReserve(base), "two violations still allowed")
	assert.True(t, m.SuspendedUntil().IsZero())
}

func TestThirdViolationSuspendsForThreeMonths(t *testing.T) {
	m := NewMember("A001", base)
	m.RecordViolation(base)
	m.RecordViolation(base)
	third := base.Add(2 * time.Hour)
	m.RecordViolation(third)

	assert.Equal(t, 3, m.Violations())
	assert.Equal(t, third.AddDate(0, 3, 0), m.SuspendedUntil())
	assert.False(t, m.CanReserve(third))

	// still suspended exactly at the end instant
	assert.False(t, m.CanReserve(m.SuspendedUntil()))
	assert.Equal(t, 3, m.Violations())
}

func TestExpiredSuspensionIsLiftedOnCheck(t *testing.T) {
	m := NewMember("A001", base)
	for i := 0; i < 3; i++ {
		m.RecordViolation(base)
	}
	end := m.SuspendedUntil()

	assert.True(t, m.CanReserve(end.Add(time.Second)))
	assert.Equal(t, 0, m.Violations())
	assert.True(t, m.SuspendedUntil().IsZero())
}

func TestViolationDuringSuspensionDoesNotExtendIt(t *testing.T) {
	m := NewMember("A001", base)
	for i := 0; i < 3; i++ {
		m.RecordViolation(base)
	}
	end := m.SuspendedUntil()

	m.RecordViolation(base.AddDate(0, 1, 0))
	assert.Equal(t, 4, m.Violations())
	assert.Equal(t, end, m.SuspendedUntil())
}

func TestResetStanding(t *testing.T) {
	m := NewMember("A001", base)
	for i := 0; i < 3; i++ {
		m.RecordViolation(base)
	}
	m.ResetStanding()

	assert.Equal(t, 0, m.Violations())
	assert.True(t, m.SuspendedUntil().IsZero())
	assert.True(t, m.CanReserve(base))
}

func TestHistoryIsAppendOnlyCopy(t *testing.T) {
	m := NewMember("A001", base)
	m.AppendReservation(1)
	m.AppendReservation(7)

	h := m.History()
	require.Equal(t, []int64{1, 7}, h)
	h[0] = 99
	assert.Equal(t, []int64{1, 7}, m.History())

	s := m.Standing()
	assert.Equal(t, 2, s.Reservations)
	assert.Nil(t, s.SuspendedUntil)
}

func TestSuspensionThresholdProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(t, "violations")
		m := NewMember("P", base)
		for i := 0; i < n; i++ {
			m.RecordViolation(base)
		}

		if got := m.CanReserve(base); got != (n < SuspensionThreshold) {
			t.Fatalf("CanReserve=%v with %d violations", got, n)
		}
		if n >= SuspensionThreshold && !m.SuspendedUntil().Equal(base.AddDate(0, SuspensionMonths, 0)) {
			t.Fatalf("unexpected suspension end %v", m.SuspendedUntil())
		}
		if !m.CanReserve(base.AddDate(0, SuspensionMonths, 1)) {
			t.Fatalf("member still blocked after suspension window")
		}
	})
}
