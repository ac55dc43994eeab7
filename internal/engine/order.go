package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ticket-reservation/internal/metrics"
	"github.com/iliyamo/event-ticket-reservation/internal/model"
	"github.com/iliyamo/event-ticket-reservation/internal/store"
)

// OrderEngine commits multi-seat purchases as single all-or-nothing
// operations.  A purchase validates every candidate seat, redeems the
// coupon (leniently), flips the seats to sold, appends the order and
// moves the aggregate stats, all inside the owning event's critical
// section so no seat can be sold twice and no coupon over-redeemed.
type OrderEngine struct {
	store     store.Store
	locks     *Locks
	coupons   *CouponLedger
	cache     CacheInvalidator
	publisher EventPublisher
	now       Clock
}

// OrderOption customises an OrderEngine.
type OrderOption func(*OrderEngine)

// WithOrderClock overrides the time source.
func WithOrderClock(now Clock) OrderOption {
	return func(e *OrderEngine) { e.now = now }
}

// WithOrderCache attaches a seat-map cache to invalidate after commits.
func WithOrderCache(c CacheInvalidator) OrderOption {
	return func(e *OrderEngine) { e.cache = c }
}

// WithOrderPublisher attaches a post-commit event publisher.
func WithOrderPublisher(p EventPublisher) OrderOption {
	return func(e *OrderEngine) { e.publisher = p }
}

// NewOrderEngine constructs an OrderEngine.  The Locks registry must be
// the one shared with the SeatLockManager, and the CouponLedger must use
// it too, otherwise the serialization guarantees do not hold.
func NewOrderEngine(st store.Store, locks *Locks, coupons *CouponLedger, opts ...OrderOption) *OrderEngine {
	if st == nil || locks == nil || coupons == nil {
		panic("nil dependency passed to NewOrderEngine")
	}
	e := &OrderEngine{store: st, locks: locks, coupons: coupons, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Purchase commits the buyer's held seats into a completed order.
//
// Every seat must exist, belong to the same event, not be sold and be
// under a live hold of the purchasing buyer; lapsed holds are expired in
// passing, so a stale hold by someone else does not block the buyer, but
// a lapsed hold of the buyer's own no longer qualifies either.  If any
// seat fails validation the whole call fails with nothing mutated.
//
// A coupon code is redeemed against the seat subtotal; a coupon that
// fails validation is silently skipped (the order completes at full
// price) rather than failing the purchase.  Only store failures abort.
func (e *OrderEngine) Purchase(ctx context.Context, buyerID string, seatIDs []string, couponCode string) (*model.Order, error) {
	seatIDs = dedupe(seatIDs)
	if len(seatIDs) == 0 {
		return nil, ErrEmptySeatSet
	}

	// Learn the event from the first seat, then redo all reads under the
	// event mutex.
	first, err := e.store.GetSeat(ctx, seatIDs[0])
	if err != nil {
		metrics.Orders.WithLabelValues("purchase", "rejected").Inc()
		return nil, err
	}
	eventID := first.EventID

	mu := e.locks.Event(eventID)
	mu.Lock()
	defer mu.Unlock()

	now := e.now().UTC()
	seats := make([]*model.Seat, 0, len(seatIDs))
	for _, id := range seatIDs {
		seat, err := e.store.GetSeat(ctx, id)
		if err != nil {
			metrics.Orders.WithLabelValues("purchase", "rejected").Inc()
			return nil, err
		}
		if seat.EventID != eventID {
			metrics.Orders.WithLabelValues("purchase", "rejected").Inc()
			return nil, fmt.Errorf("seat %s: %w", id, ErrEventMismatch)
		}
		// Stale holds are treated as already swept.  The cleared state is
		// only persisted if the purchase commits; a validation failure
		// writes nothing.
		if seat.HoldExpired(now) {
			seat.ClearHold(model.SeatAvailable)
		}
		switch {
		case seat.Status == model.SeatSold:
			metrics.Orders.WithLabelValues("purchase", "rejected").Inc()
			return nil, fmt.Errorf("seat %s: %w", id, ErrSeatUnavailable)
		case seat.Status != model.SeatHeld || seat.HeldBy == nil || *seat.HeldBy != buyerID:
			metrics.Orders.WithLabelValues("purchase", "rejected").Inc()
			return nil, fmt.Errorf("seat %s: %w", id, ErrSeatNotHeldByBuyer)
		}
		seats = append(seats, seat)
	}

	var originalPrice int64
	for _, s := range seats {
		originalPrice += s.Price
	}

	// Lenient coupon redemption: a rejected coupon costs the buyer the
	// discount, not the order.  Lock order is event -> coupon.
	var discount int64
	appliedCoupon := ""
	if couponCode != "" {
		quote, err := e.coupons.Redeem(ctx, couponCode, originalPrice)
		switch {
		case err == nil:
			discount = quote.Discount
			appliedCoupon = couponCode
		case couponRejected(err):
			log.Printf("order-engine: coupon %s not applied: %v", couponCode, err)
		default:
			return nil, fmt.Errorf("redeem coupon: %w", err)
		}
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		BuyerID:       buyerID,
		EventID:       eventID,
		SeatIDs:       seatIDs,
		OriginalPrice: originalPrice,
		Discount:      discount,
		CouponCode:    appliedCoupon,
		TotalPrice:    originalPrice - discount,
		Status:        model.OrderCompleted,
		CreatedAt:     now,
	}

	for _, seat := range seats {
		seat.ClearHold(model.SeatSold)
		if err := e.store.PutSeat(ctx, seat); err != nil {
			return nil, fmt.Errorf("persist sold seat %s: %w", seat.ID, err)
		}
	}
	if err := e.store.AppendOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("append order: %w", err)
	}
	if err := e.applyStats(ctx, order.TotalPrice, int64(len(seatIDs)), now); err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.InvalidateEvent(ctx, eventID)
	}
	metrics.Orders.WithLabelValues("purchase", "ok").Inc()
	metrics.TicketsSold.Add(float64(len(seatIDs)))
	if e.publisher != nil {
		_ = e.publisher.PublishOrderCompleted(ctx, order)
	}
	return order, nil
}

// applyStats moves the running totals under the stats mutex.  Deltas are
// positive for commits and negative for cancellations.
func (e *OrderEngine) applyStats(ctx context.Context, revenue, tickets int64, now time.Time) error {
	return applyStats(ctx, e.store, e.locks, revenue, tickets, now)
}

func applyStats(ctx context.Context, st store.Store, locks *Locks, revenue, tickets int64, now time.Time) error {
	mu := locks.Stats()
	mu.Lock()
	defer mu.Unlock()
	stats, err := st.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	stats.TotalRevenue += revenue
	stats.TotalTicketsSold += tickets
	stats.LastUpdated = now
	if err := st.PutStats(ctx, stats); err != nil {
		return fmt.Errorf("persist stats: %w", err)
	}
	return nil
}
