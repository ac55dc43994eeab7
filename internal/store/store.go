// Package store defines the persisted-store boundary the reservation core
// depends on.  Every operation is a strongly consistent single-key read or
// write; composing them into atomic multi-key transactions is the engine's
// responsibility, not the store's.
package store

import (
	"context"
	"errors"

	"github.com/iliyamo/event-ticket-reservation/internal/model"
)

// ErrSeatNotFound is returned when a seat lookup yields no record.
var ErrSeatNotFound = errors.New("seat not found")

// ErrCouponNotFound is returned when a coupon lookup yields no record.
var ErrCouponNotFound = errors.New("coupon not found")

// ErrOrderNotFound is returned when an order lookup yields no record.
var ErrOrderNotFound = errors.New("order not found")

// ErrOrderExists is returned by AppendOrder when the order ID is already
// taken.  Order IDs are generated, so hitting this indicates a bug.
var ErrOrderExists = errors.New("order already exists")

// Store is the durable document store holding seats, orders, coupons and
// the aggregate stats record.  Implementations must make each call
// individually consistent (read-your-writes) but are not required to
// serialize concurrent writers; callers own the exclusion discipline.
type Store interface {
	GetSeat(ctx context.Context, id string) (*model.Seat, error)
	ListSeatsByEvent(ctx context.Context, eventID string) ([]*model.Seat, error)
	// ListHeldSeats returns every seat currently in the held state, the
	// candidate set for an expiry sweep.
	ListHeldSeats(ctx context.Context) ([]*model.Seat, error)
	PutSeat(ctx context.Context, seat *model.Seat) error

	GetCoupon(ctx context.Context, code string) (*model.Coupon, error)
	PutCoupon(ctx context.Context, coupon *model.Coupon) error

	AppendOrder(ctx context.Context, order *model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*model.Order, error)
	PutOrder(ctx context.Context, order *model.Order) error

	GetStats(ctx context.Context) (*model.AggregateStats, error)
	PutStats(ctx context.Context, stats *model.AggregateStats) error
}
