// Package queue defines the order event payloads exchanged over the
// message broker and the publisher/consumer pair that moves them.
package queue

// Queue names.  Both are declared durable by publisher and consumer so
// whichever side starts first creates them.
const (
	OrderCompletedQueue = "order.completed"
	OrderCancelledQueue = "order.cancelled"
)

// OrderCompletedEvent is published after a purchase commits.  It carries
// enough for downstream consumers to audit, notify or feed analytics
// without querying the primary store.
type OrderCompletedEvent struct {
	OrderID       string   `json:"order_id"`
	BuyerID       string   `json:"buyer_id"`
	EventID       string   `json:"event_id"`
	SeatIDs       []string `json:"seat_ids"`
	OriginalPrice int64    `json:"original_price"`
	Discount      int64    `json:"discount"`
	CouponCode    string   `json:"coupon_code,omitempty"`
	TotalPrice    int64    `json:"total_price"`
	CompletedAt   string   `json:"completed_at"`
}

// OrderCancelledEvent is published after a cancellation commits.
type OrderCancelledEvent struct {
	OrderID      string   `json:"order_id"`
	BuyerID      string   `json:"buyer_id"`
	EventID      string   `json:"event_id"`
	SeatIDs      []string `json:"seat_ids"`
	RefundAmount int64    `json:"refund_amount"`
	CancelledAt  string   `json:"cancelled_at"`
}
