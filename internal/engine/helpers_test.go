package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-reservation/internal/model"
	"github.com/iliyamo/event-ticket-reservation/internal/store"
)

// fakeClock is a hand-driven time source so expiry and refund-window
// behavior can be tested without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(start time.Time) *fakeClock { return &fakeClock{t: start} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var testStart = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func seedSeat(t *testing.T, st *store.Memory, id, eventID string, price int64) {
	t.Helper()
	err := st.PutSeat(context.Background(), &model.Seat{
		ID:      id,
		EventID: eventID,
		Row:     "A",
		Column:  1,
		Price:   price,
		Status:  model.SeatAvailable,
	})
	require.NoError(t, err)
}

func seedCoupon(t *testing.T, st *store.Memory, c model.Coupon) {
	t.Helper()
	if c.ValidFrom.IsZero() {
		c.ValidFrom = testStart.Add(-24 * time.Hour)
	}
	if c.ValidTo.IsZero() {
		c.ValidTo = testStart.Add(24 * time.Hour)
	}
	require.NoError(t, st.PutCoupon(context.Background(), &c))
}

func getSeat(t *testing.T, st *store.Memory, id string) *model.Seat {
	t.Helper()
	s, err := st.GetSeat(context.Background(), id)
	require.NoError(t, err)
	return s
}

func getCoupon(t *testing.T, st *store.Memory, code string) *model.Coupon {
	t.Helper()
	c, err := st.GetCoupon(context.Background(), code)
	require.NoError(t, err)
	return c
}

func getStats(t *testing.T, st *store.Memory) *model.AggregateStats {
	t.Helper()
	stats, err := st.GetStats(context.Background())
	require.NoError(t, err)
	return stats
}

// realCore is the same stack on the real clock, for race tests that need
// goroutines observing a consistent wall time.
type realCore struct {
	store   *store.Memory
	seats   *SeatLockManager
	coupons *CouponLedger
	orders  *OrderEngine
}

func newRealClockCore(t *testing.T) *realCore {
	t.Helper()
	st := store.NewMemory()
	locks := NewLocks()
	coupons := NewCouponLedger(st, locks)
	return &realCore{
		store:   st,
		seats:   NewSeatLockManager(st, locks),
		coupons: coupons,
		orders:  NewOrderEngine(st, locks, coupons),
	}
}

// newCore wires a full engine stack over a fresh in-memory store with a
// shared lock registry and fake clock.
func newCore(t *testing.T) (*store.Memory, *fakeClock, *SeatLockManager, *CouponLedger, *OrderEngine, *CancellationEngine) {
	t.Helper()
	st := store.NewMemory()
	clk := newFakeClock(testStart)
	locks := NewLocks()
	seats := NewSeatLockManager(st, locks, WithSeatClock(clk.Now))
	coupons := NewCouponLedger(st, locks, WithCouponClock(clk.Now))
	orders := NewOrderEngine(st, locks, coupons, WithOrderClock(clk.Now))
	cancels := NewCancellationEngine(st, locks, WithCancelClock(clk.Now))
	return st, clk, seats, coupons, orders, cancels
}
