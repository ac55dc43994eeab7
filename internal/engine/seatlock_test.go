package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-reservation/internal/model"
	"github.com/iliyamo/event-ticket-reservation/internal/store"
)

func TestHoldAvailableSeat(t *testing.T) {
	st, _, seats, _, _, _ := newCore(t)
	seedSeat(t, st, "A1", "ev1", 280)

	seat, err := seats.Hold(context.Background(), "A1", "u1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatHeld, seat.Status)
	require.NotNil(t, seat.HeldBy)
	assert.Equal(t, "u1", *seat.HeldBy)
	require.NotNil(t, seat.ExpiresAt)
	assert.Equal(t, testStart.Add(DefaultHoldTTL), *seat.ExpiresAt)

	stored := getSeat(t, st, "A1")
	assert.Equal(t, model.SeatHeld, stored.Status)
}

func TestHoldUnknownSeat(t *testing.T) {
	_, _, seats, _, _, _ := newCore(t)

	_, err := seats.Hold(context.Background(), "nope", "u1")
	assert.ErrorIs(t, err, ErrSeatNotFound)
}

func TestHoldRejectsSoldAndForeignHolds(t *testing.T) {
	st, _, seats, _, orders, _ := newCore(t)
	seedSeat(t, st, "A1", "ev1", 280)
	seedSeat(t, st, "A2", "ev1", 280)

	_, err := seats.Hold(context.Background(), "A1", "u1")
	require.NoError(t, err)

	_, err = seats.Hold(context.Background(), "A1", "u2")
	assert.ErrorIs(t, err, ErrSeatHeldByOther)

	_, err = orders.Purchase(context.Background(), "u1", []string{"A1"}, "")
	require.NoError(t, err)

	_, err = seats.Hold(context.Background(), "A1", "u2")
	assert.ErrorIs(t, err, ErrSeatAlreadySold)

	// An untouched seat of the same event is unaffected.
	_, err = seats.Hold(context.Background(), "A2", "u2")
	assert.NoError(t, err)
}

func TestReholdRefreshesExpiry(t *testing.T) {
	st, clk, seats, _, _, _ := newCore(t)
	seedSeat(t, st, "A1", "ev1", 280)

	_, err := seats.Hold(context.Background(), "A1", "u1")
	require.NoError(t, err)

	clk.Advance(5 * time.Minute)
	seat, err := seats.Hold(context.Background(), "A1", "u1")
	require.NoError(t, err)
	require.NotNil(t, seat.ExpiresAt)
	assert.Equal(t, clk.Now().Add(DefaultHoldTTL), *seat.ExpiresAt)
}

func TestHoldSucceedsOverLapsedHold(t *testing.T) {
	st, clk, seats, _, _, _ := newCore(t)
	seedSeat(t, st, "A1", "ev1", 280)

	_, err := seats.Hold(context.Background(), "A1", "u1")
	require.NoError(t, err)

	clk.Advance(DefaultHoldTTL + time.Second)
	seat, err := seats.Hold(context.Background(), "A1", "u2")
	require.NoError(t, err)
	require.NotNil(t, seat.HeldBy)
	assert.Equal(t, "u2", *seat.HeldBy)
}

func TestRelease(t *testing.T) {
	st, _, seats, _, _, _ := newCore(t)
	seedSeat(t, st, "A1", "ev1", 280)

	_, err := seats.Hold(context.Background(), "A1", "u1")
	require.NoError(t, err)

	// Not the holder.
	err = seats.Release(context.Background(), "A1", "u2")
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, seats.Release(context.Background(), "A1", "u1"))
	stored := getSeat(t, st, "A1")
	assert.Equal(t, model.SeatAvailable, stored.Status)
	assert.Nil(t, stored.HeldBy)
	assert.Nil(t, stored.ExpiresAt)

	// Releasing an available seat is forbidden too.
	err = seats.Release(context.Background(), "A1", "u1")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSweepExpired(t *testing.T) {
	st, clk, seats, _, _, _ := newCore(t)
	seedSeat(t, st, "A1", "ev1", 280)
	seedSeat(t, st, "A2", "ev1", 280)
	seedSeat(t, st, "B1", "ev2", 150)

	_, err := seats.Hold(context.Background(), "A1", "u1")
	require.NoError(t, err)
	_, err = seats.Hold(context.Background(), "B1", "u2")
	require.NoError(t, err)

	// A2's hold is placed later, so it outlives the sweep below.
	clk.Advance(5 * time.Minute)
	_, err = seats.Hold(context.Background(), "A2", "u3")
	require.NoError(t, err)

	clk.Advance(DefaultHoldTTL - 4*time.Minute)
	released, err := seats.SweepExpired(context.Background(), clk.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	assert.Equal(t, model.SeatAvailable, getSeat(t, st, "A1").Status)
	assert.Equal(t, model.SeatAvailable, getSeat(t, st, "B1").Status)
	assert.Equal(t, model.SeatHeld, getSeat(t, st, "A2").Status)

	// Nothing new expired, so a second sweep is a no-op.
	released, err = seats.SweepExpired(context.Background(), clk.Now())
	require.NoError(t, err)
	assert.Zero(t, released)
}

// scanRaceStore interposes on the sweep's candidate scan so a test can
// change seat state between ListHeldSeats and the per-seat re-read.
type scanRaceStore struct {
	store.Store
	afterScan func()
}

func (s *scanRaceStore) ListHeldSeats(ctx context.Context) ([]*model.Seat, error) {
	seats, err := s.Store.ListHeldSeats(ctx)
	if s.afterScan != nil {
		s.afterScan()
	}
	return seats, err
}

func TestSweepSkipsSeatsChangedAfterScan(t *testing.T) {
	mem := store.NewMemory()
	clk := newFakeClock(testStart)
	wrapped := &scanRaceStore{Store: mem}
	seats := NewSeatLockManager(wrapped, NewLocks(), WithSeatClock(clk.Now))

	seedSeat(t, mem, "A1", "ev1", 100)
	seedSeat(t, mem, "A2", "ev1", 100)
	ctx := context.Background()
	_, err := seats.Hold(ctx, "A1", "u1")
	require.NoError(t, err)
	_, err = seats.Hold(ctx, "A2", "u2")
	require.NoError(t, err)

	clk.Advance(DefaultHoldTTL + time.Minute)
	refreshed := clk.Now().Add(DefaultHoldTTL)

	// Both seats enter the candidate set as expired, then A1's hold is
	// refreshed and A2 is sold before the sweep reaches them.
	wrapped.afterScan = func() {
		a1 := getSeat(t, mem, "A1")
		a1.ExpiresAt = &refreshed
		require.NoError(t, mem.PutSeat(ctx, a1))

		a2 := getSeat(t, mem, "A2")
		a2.ClearHold(model.SeatSold)
		require.NoError(t, mem.PutSeat(ctx, a2))
	}

	released, err := seats.SweepExpired(ctx, clk.Now())
	require.NoError(t, err)
	assert.Zero(t, released)

	a1 := getSeat(t, mem, "A1")
	assert.Equal(t, model.SeatHeld, a1.Status)
	require.NotNil(t, a1.ExpiresAt)
	assert.Equal(t, refreshed, *a1.ExpiresAt)
	assert.Equal(t, model.SeatSold, getSeat(t, mem, "A2").Status)
}

func TestHoldRaceSingleWinner(t *testing.T) {
	st := newRealClockCore(t)
	seedSeat(t, st.store, "A1", "ev1", 280)

	const buyers = 8
	errs := make([]error, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = st.seats.Hold(context.Background(), "A1", string(rune('a'+i)))
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, ErrSeatHeldByOther)
		}
	}
	assert.Equal(t, 1, won)
}
