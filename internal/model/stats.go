package model

import "time"

// AggregateStats holds the running sales totals.  It is mutated in
// lock-step with every committed order and every cancellation and is
// never recomputed in the hot path.
type AggregateStats struct {
	TotalRevenue     int64     `json:"total_revenue"`
	TotalTicketsSold int64     `json:"total_tickets_sold"`
	LastUpdated      time.Time `json:"last_updated"`
}
