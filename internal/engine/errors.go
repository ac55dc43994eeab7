// Package engine implements the seat reservation and order-commit core:
// the seat lifecycle state machine, the lazy hold-expiry sweep, atomic
// coupon redemption and the all-or-nothing purchase and cancellation
// transactions.  It is the only writer of seat, order, coupon-usage and
// stats state; everything else reaches that state through the store.
package engine

import (
	"errors"

	"github.com/iliyamo/event-ticket-reservation/internal/store"
)

// Validation sentinels.  Each of these is returned before any state has
// been mutated; callers can rely on no observable side effect having
// occurred.  Store failures are wrapped and propagated as-is instead.
var (
	// ErrSeatNotFound mirrors the store sentinel so callers can match
	// either.
	ErrSeatNotFound = store.ErrSeatNotFound

	// ErrSeatAlreadySold is returned by Hold when the seat was sold.
	ErrSeatAlreadySold = errors.New("seat already sold")

	// ErrSeatHeldByOther is returned by Hold when another buyer has an
	// unexpired hold on the seat.
	ErrSeatHeldByOther = errors.New("seat held by another buyer")

	// ErrSeatUnavailable is returned by Purchase for a seat in the batch
	// that was already sold.
	ErrSeatUnavailable = errors.New("seat unavailable")

	// ErrSeatNotHeldByBuyer is returned by Purchase for a seat in the
	// batch that the purchasing buyer does not hold.
	ErrSeatNotHeldByBuyer = errors.New("seat not held by buyer")

	// ErrEmptySeatSet is returned by Purchase when no seats were given.
	ErrEmptySeatSet = errors.New("order contains no seats")

	// ErrEventMismatch is returned by Purchase when the batch spans more
	// than one event.
	ErrEventMismatch = errors.New("seats belong to different events")

	// ErrForbidden is returned when the caller does not own the hold or
	// order they are trying to act on.
	ErrForbidden = errors.New("forbidden")

	// ErrCouponNotFound mirrors the store sentinel and also covers
	// inactive codes, which behave as unknown.
	ErrCouponNotFound = store.ErrCouponNotFound

	// ErrCouponOutOfWindow is returned outside [ValidFrom, ValidTo].
	ErrCouponOutOfWindow = errors.New("coupon outside validity window")

	// ErrCouponExhausted is returned once UsedCount has reached MaxUses.
	ErrCouponExhausted = errors.New("coupon exhausted")

	// ErrCouponBelowMinimum is returned when the order total does not
	// meet the coupon's minimum purchase.
	ErrCouponBelowMinimum = errors.New("order total below coupon minimum")

	// ErrOrderNotFound mirrors the store sentinel.
	ErrOrderNotFound = store.ErrOrderNotFound

	// ErrAlreadyCancelled is returned for orders cancelled earlier.
	ErrAlreadyCancelled = errors.New("order already cancelled")

	// ErrCancelWindowExpired is returned when the refund window has
	// passed.
	ErrCancelWindowExpired = errors.New("cancellation window expired")
)

// couponRejected reports whether err is one of the coupon validation
// sentinels, as opposed to a store failure.  Purchase treats rejected
// coupons leniently (no discount) but must not swallow store errors.
func couponRejected(err error) bool {
	return errors.Is(err, ErrCouponNotFound) ||
		errors.Is(err, ErrCouponOutOfWindow) ||
		errors.Is(err, ErrCouponExhausted) ||
		errors.Is(err, ErrCouponBelowMinimum)
}
