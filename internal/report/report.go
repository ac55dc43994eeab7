// Package report builds read models over the persisted store for the
// surrounding service layer: per-event sales figures, buyer order
// history and the purchased-buyer check that gates event ratings.  It
// only ever reads; all writes stay inside the engine.
package report

import (
	"context"
	"time"

	"github.com/iliyamo/event-ticket-reservation/internal/model"
	"github.com/iliyamo/event-ticket-reservation/internal/store"
)

// Reporter answers read-only questions about seats and orders.
type Reporter struct {
	store store.Store
}

// NewReporter constructs a Reporter over the given store.
func NewReporter(st store.Store) *Reporter {
	if st == nil {
		panic("nil store passed to NewReporter")
	}
	return &Reporter{store: st}
}

// EventSales summarises one event's seat inventory and realised revenue.
// Revenue counts sold seats at their list price; cancelled orders have
// already returned their seats to available, so they drop out naturally.
type EventSales struct {
	EventID        string `json:"event_id"`
	TotalSeats     int    `json:"total_seats"`
	SoldSeats      int    `json:"sold_seats"`
	HeldSeats      int    `json:"held_seats"`
	AvailableSeats int    `json:"available_seats"`
	Revenue        int64  `json:"revenue"`
}

// EventSales computes the sales summary for a single event.
func (r *Reporter) EventSales(ctx context.Context, eventID string) (*EventSales, error) {
	seats, err := r.store.ListSeatsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sum := &EventSales{EventID: eventID, TotalSeats: len(seats)}
	for _, s := range seats {
		switch s.Status {
		case model.SeatSold:
			sum.SoldSeats++
			sum.Revenue += s.Price
		case model.SeatHeld:
			sum.HeldSeats++
		default:
			sum.AvailableSeats++
		}
	}
	return sum, nil
}

// Overview is the process-wide sales snapshot: the running totals kept by
// the engine plus the number of seats currently under a hold.
type Overview struct {
	TotalRevenue     int64  `json:"total_revenue"`
	TotalTicketsSold int64  `json:"total_tickets_sold"`
	HeldSeats        int    `json:"held_seats"`
	LastUpdated      string `json:"last_updated"`
}

// Overview assembles the global snapshot.
func (r *Reporter) Overview(ctx context.Context) (*Overview, error) {
	stats, err := r.store.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	held, err := r.store.ListHeldSeats(ctx)
	if err != nil {
		return nil, err
	}
	return &Overview{
		TotalRevenue:     stats.TotalRevenue,
		TotalTicketsSold: stats.TotalTicketsSold,
		HeldSeats:        len(held),
		LastUpdated:      stats.LastUpdated.UTC().Format(time.RFC3339),
	}, nil
}

// BuyerOrders returns the buyer's orders, newest first.
func (r *Reporter) BuyerOrders(ctx context.Context, buyerID string) ([]*model.Order, error) {
	return r.store.ListOrdersByBuyer(ctx, buyerID)
}

// HasPurchased reports whether the buyer holds a completed (not
// cancelled) order for the event.  Rating an event requires this.
func (r *Reporter) HasPurchased(ctx context.Context, buyerID, eventID string) (bool, error) {
	orders, err := r.store.ListOrdersByBuyer(ctx, buyerID)
	if err != nil {
		return false, err
	}
	for _, o := range orders {
		if o.EventID == eventID && o.Status == model.OrderCompleted {
			return true, nil
		}
	}
	return false, nil
}
