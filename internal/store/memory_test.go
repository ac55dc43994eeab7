package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-reservation/internal/model"
)

func newSeat(id, eventID, row string, col uint32) *model.Seat {
	return &model.Seat{
		ID:      id,
		EventID: eventID,
		Row:     row,
		Column:  col,
		Price:   100,
		Status:  model.SeatAvailable,
	}
}

func TestMemorySeats(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.GetSeat(ctx, "A1")
	assert.ErrorIs(t, err, ErrSeatNotFound)

	require.NoError(t, m.PutSeat(ctx, newSeat("B2", "ev1", "B", 2)))
	require.NoError(t, m.PutSeat(ctx, newSeat("A2", "ev1", "A", 2)))
	require.NoError(t, m.PutSeat(ctx, newSeat("A1", "ev1", "A", 1)))
	require.NoError(t, m.PutSeat(ctx, newSeat("Z1", "ev2", "Z", 1)))

	seats, err := m.ListSeatsByEvent(ctx, "ev1")
	require.NoError(t, err)
	require.Len(t, seats, 3)
	assert.Equal(t, "A1", seats[0].ID)
	assert.Equal(t, "A2", seats[1].ID)
	assert.Equal(t, "B2", seats[2].ID)

	seats, err = m.ListSeatsByEvent(ctx, "ev3")
	require.NoError(t, err)
	assert.Empty(t, seats)
}

func TestMemorySeatCopySemantics(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	buyer := "u1"
	expires := time.Now().Add(10 * time.Minute)
	seat := newSeat("A1", "ev1", "A", 1)
	seat.Status = model.SeatHeld
	seat.HeldBy = &buyer
	seat.ExpiresAt = &expires
	require.NoError(t, m.PutSeat(ctx, seat))

	// Mutating the caller's copy after Put must not leak into the store.
	seat.Status = model.SeatSold
	*seat.HeldBy = "u2"

	got, err := m.GetSeat(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatHeld, got.Status)
	require.NotNil(t, got.HeldBy)
	assert.Equal(t, "u1", *got.HeldBy)

	// Nor mutating a copy obtained from Get.
	*got.HeldBy = "u3"
	again, err := m.GetSeat(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, "u1", *again.HeldBy)
}

func TestMemoryHeldSeats(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	buyer := "u1"
	for _, id := range []string{"c", "a", "b"} {
		s := newSeat(id, "ev1", "A", 1)
		s.Status = model.SeatHeld
		s.HeldBy = &buyer
		require.NoError(t, m.PutSeat(ctx, s))
	}
	require.NoError(t, m.PutSeat(ctx, newSeat("d", "ev1", "D", 1)))

	held, err := m.ListHeldSeats(ctx)
	require.NoError(t, err)
	require.Len(t, held, 3)
	assert.Equal(t, "a", held[0].ID)
	assert.Equal(t, "c", held[2].ID)
}

func TestMemoryOrders(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Now().UTC()

	order := &model.Order{
		ID: "o1", BuyerID: "u1", EventID: "ev1", SeatIDs: []string{"A1"},
		OriginalPrice: 100, TotalPrice: 100, Status: model.OrderCompleted, CreatedAt: now,
	}
	require.NoError(t, m.AppendOrder(ctx, order))
	assert.ErrorIs(t, m.AppendOrder(ctx, order), ErrOrderExists)

	_, err := m.GetOrder(ctx, "o2")
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.ErrorIs(t, m.PutOrder(ctx, &model.Order{ID: "o2"}), ErrOrderNotFound)

	later := &model.Order{
		ID: "o3", BuyerID: "u1", EventID: "ev1", SeatIDs: []string{"A2"},
		OriginalPrice: 100, TotalPrice: 100, Status: model.OrderCompleted,
		CreatedAt: now.Add(time.Minute),
	}
	require.NoError(t, m.AppendOrder(ctx, later))

	history, err := m.ListOrdersByBuyer(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "o3", history[0].ID)
	assert.Equal(t, "o1", history[1].ID)

	order.Status = model.OrderCancelled
	require.NoError(t, m.PutOrder(ctx, order))
	got, err := m.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, got.Status)
}

func TestMemoryStats(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	stats, err := m.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRevenue)
	assert.Zero(t, stats.TotalTicketsSold)

	stats.TotalRevenue = 500
	stats.TotalTicketsSold = 3
	stats.LastUpdated = time.Now().UTC()
	require.NoError(t, m.PutStats(ctx, stats))

	got, err := m.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.TotalRevenue)
	assert.Equal(t, int64(3), got.TotalTicketsSold)
}

func TestMemoryCoupons(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.GetCoupon(ctx, "SAVE")
	assert.ErrorIs(t, err, ErrCouponNotFound)

	require.NoError(t, m.PutCoupon(ctx, &model.Coupon{
		Code: "SAVE", Type: model.DiscountFixed, Value: 50, MaxUses: 1, Active: true,
	}))
	c, err := m.GetCoupon(ctx, "SAVE")
	require.NoError(t, err)

	// The returned copy is detached from the stored record.
	c.UsedCount = 99
	again, err := m.GetCoupon(ctx, "SAVE")
	require.NoError(t, err)
	assert.Zero(t, again.UsedCount)
}
