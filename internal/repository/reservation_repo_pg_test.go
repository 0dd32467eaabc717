package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewReservationRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewReservationRepository(pool)
	assert.NotNil(t, repo)
}

// The upcoming window is bounded by end time: a reservation ending past
// the cutoff stays out even when it starts inside the span.
func TestListUpcomingQuery_BoundsWindowByEndTime(t *testing.T) {
	assert.Contains(t, listUpcomingQuery, "end_time <= $2")
	assert.Contains(t, listUpcomingQuery, "end_time > now()")
	assert.NotContains(t, listUpcomingQuery, "start_time <=")
	assert.Contains(t, listUpcomingQuery, "is_cancelled = FALSE")
}

func TestGetByBookingIDQuery_DeterministicOnCollision(t *testing.T) {
	assert.Contains(t, getByBookingIDQuery, "ORDER BY provider_kind")
	assert.Contains(t, getByBookingIDQuery, "LIMIT 1")
}
