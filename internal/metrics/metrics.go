// Package metrics exposes Prometheus collectors for the reservation
// core.  Counters are labelled by operation and outcome so dashboards can
// separate rejected requests from clean commits.  Exposition (HTTP
// handler wiring) is left to the embedding service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SeatOps counts hold/release calls by outcome.
	SeatOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_operations_total",
			Help: "Total number of seat hold/release operations",
		},
		[]string{"operation", "status"},
	)

	// Orders counts purchase/cancel calls by outcome.
	Orders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_operations_total",
			Help: "Total number of order purchase/cancel operations",
		},
		[]string{"operation", "status"},
	)

	// CouponRedemptions counts redemption attempts by outcome.
	CouponRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_redemptions_total",
			Help: "Total number of coupon redemption attempts",
		},
		[]string{"status"},
	)

	// TicketsSold tracks the net number of tickets currently sold; it
	// falls when orders are cancelled.
	TicketsSold = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tickets_sold",
			Help: "Net number of tickets sold (purchases minus cancellations)",
		},
	)

	// SeatsExpired counts holds released by the expiry sweep.
	SeatsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_holds_expired_total",
			Help: "Total number of seat holds released by the expiry sweep",
		},
	)

	// QueueMessages counts broker publishes and consumes by outcome.
	QueueMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_messages_total",
			Help: "Total number of RabbitMQ messages",
		},
		[]string{"action", "queue", "status"},
	)
)
