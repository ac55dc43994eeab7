package store

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/event-ticket-reservation/internal/model"
)

// Memory is an in-process Store backed by maps.  It is used by the test
// suite and as a seed-data fixture store.  All records are copied on the
// way in and out so callers can mutate their working copy freely and
// nothing becomes visible before the corresponding Put.
type Memory struct {
	mu      sync.RWMutex
	seats   map[string]*model.Seat
	coupons map[string]*model.Coupon
	orders  map[string]*model.Order
	stats   model.AggregateStats
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		seats:   make(map[string]*model.Seat),
		coupons: make(map[string]*model.Coupon),
		orders:  make(map[string]*model.Order),
	}
}

func copySeat(s *model.Seat) *model.Seat {
	c := *s
	if s.HeldBy != nil {
		v := *s.HeldBy
		c.HeldBy = &v
	}
	if s.HeldAt != nil {
		v := *s.HeldAt
		c.HeldAt = &v
	}
	if s.ExpiresAt != nil {
		v := *s.ExpiresAt
		c.ExpiresAt = &v
	}
	return &c
}

func copyOrder(o *model.Order) *model.Order {
	c := *o
	c.SeatIDs = append([]string(nil), o.SeatIDs...)
	if o.CancelledAt != nil {
		v := *o.CancelledAt
		c.CancelledAt = &v
	}
	if o.RefundAmount != nil {
		v := *o.RefundAmount
		c.RefundAmount = &v
	}
	return &c
}

// GetSeat returns the seat with the given ID or ErrSeatNotFound.
func (m *Memory) GetSeat(_ context.Context, id string) (*model.Seat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.seats[id]
	if !ok {
		return nil, ErrSeatNotFound
	}
	return copySeat(s), nil
}

// ListSeatsByEvent returns all seats of an event ordered by row/column.
func (m *Memory) ListSeatsByEvent(_ context.Context, eventID string) ([]*model.Seat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Seat
	for _, s := range m.seats {
		if s.EventID == eventID {
			out = append(out, copySeat(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Column < out[j].Column
	})
	return out, nil
}

// ListHeldSeats returns every seat currently in the held state.
func (m *Memory) ListHeldSeats(_ context.Context) ([]*model.Seat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Seat
	for _, s := range m.seats {
		if s.Status == model.SeatHeld {
			out = append(out, copySeat(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PutSeat stores the seat, creating or replacing it.
func (m *Memory) PutSeat(_ context.Context, seat *model.Seat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seats[seat.ID] = copySeat(seat)
	return nil
}

// GetCoupon returns the coupon with the given code or ErrCouponNotFound.
func (m *Memory) GetCoupon(_ context.Context, code string) (*model.Coupon, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.coupons[code]
	if !ok {
		return nil, ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

// PutCoupon stores the coupon, creating or replacing it.
func (m *Memory) PutCoupon(_ context.Context, coupon *model.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *coupon
	m.coupons[coupon.Code] = &cp
	return nil
}

// AppendOrder inserts a new order; the ID must not already exist.
func (m *Memory) AppendOrder(_ context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; ok {
		return ErrOrderExists
	}
	m.orders[order.ID] = copyOrder(order)
	return nil
}

// GetOrder returns the order with the given ID or ErrOrderNotFound.
func (m *Memory) GetOrder(_ context.Context, id string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return copyOrder(o), nil
}

// ListOrdersByBuyer returns all orders for a buyer, newest first.
func (m *Memory) ListOrdersByBuyer(_ context.Context, buyerID string) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Order
	for _, o := range m.orders {
		if o.BuyerID == buyerID {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// PutOrder replaces an existing order or ErrOrderNotFound.
func (m *Memory) PutOrder(_ context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return ErrOrderNotFound
	}
	m.orders[order.ID] = copyOrder(order)
	return nil
}

// GetStats returns the aggregate stats record; a zero record when nothing
// has been sold yet.
func (m *Memory) GetStats(_ context.Context) (*model.AggregateStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.stats
	return &st, nil
}

// PutStats replaces the aggregate stats record.
func (m *Memory) PutStats(_ context.Context, stats *model.AggregateStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = *stats
	return nil
}
