package model

import "time"

// SeatStatus enumerates the closed set of seat lifecycle states.  A seat
// is created available, may be held by exactly one buyer at a time and
// becomes sold when an order commits it.  Cancellation returns it to
// available.  No other values are legal; transitions happen only inside
// the engine package.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "available" // free to hold
	SeatHeld      SeatStatus = "held"      // temporarily claimed by HeldBy until ExpiresAt
	SeatSold      SeatStatus = "sold"      // committed by a completed order
)

// Seat represents one numbered seat of a scheduled event.  Identity is
// (EventID, Row, Column); ID is the stable key the store addresses it by.
// Price is fixed at seed time and never changes.
//
// Fields:
//
//	ID        – seat key in the store.
//	EventID   – event this seat belongs to.
//	Row       – row label (A, B, AA ...).
//	Column    – 1-based position in the row.
//	Price     – price in the smallest currency unit, immutable.
//	Status    – current lifecycle state.
//	HeldBy    – buyer holding the seat; set iff Status is SeatHeld.
//	HeldAt    – when the current hold was placed; set iff held.
//	ExpiresAt – when the current hold lapses; set iff held.
type Seat struct {
	ID        string     `json:"id"`
	EventID   string     `json:"event_id"`
	Row       string     `json:"row"`
	Column    uint32     `json:"column"`
	Price     int64      `json:"price"`
	Status    SeatStatus `json:"status"`
	HeldBy    *string    `json:"held_by,omitempty"`
	HeldAt    *time.Time `json:"held_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// HoldExpired reports whether the seat carries a hold that has lapsed at
// the given instant.  Seats that are not held never expire.
func (s *Seat) HoldExpired(now time.Time) bool {
	return s.Status == SeatHeld && s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// ClearHold resets the hold bookkeeping fields.  The caller decides the
// resulting status (available after a release, sold after a commit).
func (s *Seat) ClearHold(status SeatStatus) {
	s.Status = status
	s.HeldBy = nil
	s.HeldAt = nil
	s.ExpiresAt = nil
}

// Valid checks the structural invariant: held seats carry a holder and an
// expiry, non-held seats carry neither.
func (s *Seat) Valid() bool {
	if s.Status == SeatHeld {
		return s.HeldBy != nil && s.ExpiresAt != nil
	}
	return s.HeldBy == nil && s.HeldAt == nil && s.ExpiresAt == nil
}
