package model

import "time"

// OrderStatus enumerates the closed set of order states.  An order is
// created completed (purchase is synchronous) and may move to cancelled
// exactly once; it never reverts.
type OrderStatus string

const (
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Order records a committed multi-seat purchase.  All seats belong to the
// same event and the price breakdown satisfies
// TotalPrice = OriginalPrice - Discount at all times.
//
// Fields:
//
//	ID            – unique order identifier (uuid).
//	BuyerID       – buyer who committed the purchase.
//	EventID       – event all seats belong to.
//	SeatIDs       – non-empty set of purchased seat keys.
//	OriginalPrice – sum of seat prices before any discount.
//	Discount      – amount subtracted by a redeemed coupon (0 if none).
//	CouponCode    – redeemed coupon code, empty when no coupon applied.
//	TotalPrice    – amount actually charged.
//	Status        – completed or cancelled.
//	CreatedAt     – commit timestamp (UTC).
//	CancelledAt   – set once when the order is cancelled.
//	RefundAmount  – set on cancellation; always the full TotalPrice.
type Order struct {
	ID            string      `json:"id"`
	BuyerID       string      `json:"buyer_id"`
	EventID       string      `json:"event_id"`
	SeatIDs       []string    `json:"seat_ids"`
	OriginalPrice int64       `json:"original_price"`
	Discount      int64       `json:"discount"`
	CouponCode    string      `json:"coupon_code,omitempty"`
	TotalPrice    int64       `json:"total_price"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	CancelledAt   *time.Time  `json:"cancelled_at,omitempty"`
	RefundAmount  *int64      `json:"refund_amount,omitempty"`
}
