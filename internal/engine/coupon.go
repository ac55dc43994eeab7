package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/event-ticket-reservation/internal/metrics"
	"github.com/iliyamo/event-ticket-reservation/internal/model"
	"github.com/iliyamo/event-ticket-reservation/internal/store"
)

// Quote is the outcome of applying a coupon to an order total.
// FinalAmount is Amount - Discount and may be negative for a fixed
// discount larger than the total; the engine does not clamp it.
type Quote struct {
	Discount    int64 `json:"discount"`
	FinalAmount int64 `json:"final_amount"`
}

// CouponLedger validates coupons and reserves uses of them.  Validate is
// a read-only preview; Redeem performs the same checks and consumes one
// use atomically under the coupon's mutex, so two redemptions racing for
// the last remaining use can never both succeed.
type CouponLedger struct {
	store store.Store
	locks *Locks
	now   Clock
}

// CouponOption customises a CouponLedger.
type CouponOption func(*CouponLedger)

// WithCouponClock overrides the time source.
func WithCouponClock(now Clock) CouponOption {
	return func(l *CouponLedger) { l.now = now }
}

// NewCouponLedger constructs a CouponLedger sharing the core's lock
// registry.
func NewCouponLedger(st store.Store, locks *Locks, opts ...CouponOption) *CouponLedger {
	if st == nil || locks == nil {
		panic("nil store or locks passed to NewCouponLedger")
	}
	l := &CouponLedger{store: st, locks: locks, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// evaluate runs the eligibility checks and prices the discount.  It is
// shared by Validate and Redeem so the two can never drift apart.
func (l *CouponLedger) evaluate(c *model.Coupon, amount int64, now time.Time) (*Quote, error) {
	if !c.Active {
		return nil, fmt.Errorf("coupon %s: %w", c.Code, ErrCouponNotFound)
	}
	if !c.InWindow(now) {
		return nil, fmt.Errorf("coupon %s: %w", c.Code, ErrCouponOutOfWindow)
	}
	if c.Exhausted() {
		return nil, fmt.Errorf("coupon %s: %w", c.Code, ErrCouponExhausted)
	}
	if amount < c.MinPurchase {
		return nil, fmt.Errorf("coupon %s: %w", c.Code, ErrCouponBelowMinimum)
	}
	discount := c.DiscountFor(amount)
	return &Quote{Discount: discount, FinalAmount: amount - discount}, nil
}

// Validate prices a coupon against an order total without reserving a
// use.  Unknown and inactive codes both report ErrCouponNotFound.
func (l *CouponLedger) Validate(ctx context.Context, code string, amount int64) (*Quote, error) {
	c, err := l.store.GetCoupon(ctx, code)
	if err != nil {
		return nil, err
	}
	return l.evaluate(c, amount, l.now().UTC())
}

// Redeem validates the coupon and, only on success, increments its usage
// counter by exactly one.  The read-check-increment runs under the
// coupon's mutex; callers that also hold an event mutex must acquire it
// before calling Redeem to preserve the global lock order.
func (l *CouponLedger) Redeem(ctx context.Context, code string, amount int64) (*Quote, error) {
	mu := l.locks.Coupon(code)
	mu.Lock()
	defer mu.Unlock()

	c, err := l.store.GetCoupon(ctx, code)
	if err != nil {
		metrics.CouponRedemptions.WithLabelValues("rejected").Inc()
		return nil, err
	}
	quote, err := l.evaluate(c, amount, l.now().UTC())
	if err != nil {
		metrics.CouponRedemptions.WithLabelValues("rejected").Inc()
		return nil, err
	}
	c.UsedCount++
	if err := l.store.PutCoupon(ctx, c); err != nil {
		return nil, fmt.Errorf("persist coupon use: %w", err)
	}
	metrics.CouponRedemptions.WithLabelValues("ok").Inc()
	return quote, nil
}
