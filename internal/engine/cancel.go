package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/event-ticket-reservation/internal/metrics"
	"github.com/iliyamo/event-ticket-reservation/internal/model"
	"github.com/iliyamo/event-ticket-reservation/internal/store"
)

// DefaultCancelWindow is how long after creation an order may still be
// cancelled for a full refund.
const DefaultCancelWindow = 24 * time.Hour

// RefundInfo reports the outcome of a successful cancellation.
type RefundInfo struct {
	OrderID      string    `json:"order_id"`
	RefundAmount int64     `json:"refund_amount"`
	CancelledAt  time.Time `json:"cancelled_at"`
}

// CancellationEngine reverses completed orders inside the refund window:
// seats return to available, the order is marked cancelled with a full
// refund and the aggregate stats move back.  Coupon uses are deliberately
// not restored.
type CancellationEngine struct {
	store     store.Store
	locks     *Locks
	cache     CacheInvalidator
	publisher EventPublisher
	window    time.Duration
	now       Clock
}

// CancelOption customises a CancellationEngine.
type CancelOption func(*CancellationEngine)

// WithCancelWindow overrides the refund window.
func WithCancelWindow(d time.Duration) CancelOption {
	return func(e *CancellationEngine) {
		if d > 0 {
			e.window = d
		}
	}
}

// WithCancelClock overrides the time source.
func WithCancelClock(now Clock) CancelOption {
	return func(e *CancellationEngine) { e.now = now }
}

// WithCancelCache attaches a seat-map cache to invalidate after reversals.
func WithCancelCache(c CacheInvalidator) CancelOption {
	return func(e *CancellationEngine) { e.cache = c }
}

// WithCancelPublisher attaches a post-commit event publisher.
func WithCancelPublisher(p EventPublisher) CancelOption {
	return func(e *CancellationEngine) { e.publisher = p }
}

// NewCancellationEngine constructs a CancellationEngine sharing the
// core's lock registry.
func NewCancellationEngine(st store.Store, locks *Locks, opts ...CancelOption) *CancellationEngine {
	if st == nil || locks == nil {
		panic("nil store or locks passed to NewCancellationEngine")
	}
	e := &CancellationEngine{
		store:  st,
		locks:  locks,
		window: DefaultCancelWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cancel reverses a completed order on behalf of its buyer.  It fails
// with ErrOrderNotFound, ErrForbidden for a foreign order,
// ErrAlreadyCancelled exactly once per order, and ErrCancelWindowExpired
// after the refund window.  On success every seat of the order is
// available again and the refund equals the amount originally charged.
func (e *CancellationEngine) Cancel(ctx context.Context, orderID, requesterID string) (*RefundInfo, error) {
	order, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		metrics.Orders.WithLabelValues("cancel", "rejected").Inc()
		return nil, err
	}
	eventID := order.EventID

	mu := e.locks.Event(eventID)
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the event mutex; a concurrent cancel of the same
	// order serializes here and the loser sees the cancelled state.
	order, err = e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	now := e.now().UTC()
	switch {
	case order.BuyerID != requesterID:
		metrics.Orders.WithLabelValues("cancel", "rejected").Inc()
		return nil, fmt.Errorf("order %s: %w", orderID, ErrForbidden)
	case order.Status == model.OrderCancelled:
		metrics.Orders.WithLabelValues("cancel", "rejected").Inc()
		return nil, fmt.Errorf("order %s: %w", orderID, ErrAlreadyCancelled)
	case now.Sub(order.CreatedAt) > e.window:
		metrics.Orders.WithLabelValues("cancel", "rejected").Inc()
		return nil, fmt.Errorf("order %s: %w", orderID, ErrCancelWindowExpired)
	}

	for _, seatID := range order.SeatIDs {
		seat, err := e.store.GetSeat(ctx, seatID)
		if err != nil {
			return nil, err
		}
		seat.ClearHold(model.SeatAvailable)
		if err := e.store.PutSeat(ctx, seat); err != nil {
			return nil, fmt.Errorf("persist released seat %s: %w", seatID, err)
		}
	}

	refund := order.TotalPrice
	order.Status = model.OrderCancelled
	order.CancelledAt = &now
	order.RefundAmount = &refund
	if err := e.store.PutOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("persist cancellation: %w", err)
	}
	if err := applyStats(ctx, e.store, e.locks, -order.TotalPrice, -int64(len(order.SeatIDs)), now); err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.InvalidateEvent(ctx, eventID)
	}
	metrics.Orders.WithLabelValues("cancel", "ok").Inc()
	metrics.TicketsSold.Add(-float64(len(order.SeatIDs)))
	if e.publisher != nil {
		_ = e.publisher.PublishOrderCancelled(ctx, order)
	}
	return &RefundInfo{OrderID: order.ID, RefundAmount: refund, CancelledAt: now}, nil
}
