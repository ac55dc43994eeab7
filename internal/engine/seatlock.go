package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/event-ticket-reservation/internal/metrics"
	"github.com/iliyamo/event-ticket-reservation/internal/model"
	"github.com/iliyamo/event-ticket-reservation/internal/store"
)

// DefaultHoldTTL is how long a hold blocks other buyers before it lapses.
const DefaultHoldTTL = 10 * time.Minute

// SeatLockManager is the single authority over seat status transitions
// outside the purchase and cancellation transactions.  Holds are
// time-boxed and buyer-scoped; expiry is evaluated lazily, either in
// place when a stale hold is encountered or by an explicit sweep.  There
// is no background timer.
type SeatLockManager struct {
	store   store.Store
	locks   *Locks
	cache   CacheInvalidator
	holdTTL time.Duration
	now     Clock
}

// SeatLockOption customises a SeatLockManager.
type SeatLockOption func(*SeatLockManager)

// WithHoldTTL overrides the default hold lifetime.
func WithHoldTTL(d time.Duration) SeatLockOption {
	return func(m *SeatLockManager) {
		if d > 0 {
			m.holdTTL = d
		}
	}
}

// WithSeatClock overrides the time source.
func WithSeatClock(now Clock) SeatLockOption {
	return func(m *SeatLockManager) { m.now = now }
}

// WithSeatCache attaches a seat-map cache to invalidate after mutations.
func WithSeatCache(c CacheInvalidator) SeatLockOption {
	return func(m *SeatLockManager) { m.cache = c }
}

// NewSeatLockManager constructs a SeatLockManager.  Store and locks must
// be non-nil; the same Locks registry must be shared with the order and
// cancellation engines.
func NewSeatLockManager(st store.Store, locks *Locks, opts ...SeatLockOption) *SeatLockManager {
	if st == nil || locks == nil {
		panic("nil store or locks passed to NewSeatLockManager")
	}
	m := &SeatLockManager{
		store:   st,
		locks:   locks,
		holdTTL: DefaultHoldTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SeatLockManager) invalidate(ctx context.Context, eventID string) {
	if m.cache != nil {
		m.cache.InvalidateEvent(ctx, eventID)
	}
}

// Hold places or refreshes a buyer's claim on a seat.  A sold seat fails
// with ErrSeatAlreadySold, a seat under another buyer's live hold with
// ErrSeatHeldByOther.  A lapsed hold no longer blocks anyone.  Re-holding
// by the same buyer succeeds and extends the expiry by a full TTL.
func (m *SeatLockManager) Hold(ctx context.Context, seatID, buyerID string) (*model.Seat, error) {
	// First read is only to learn the event; the authoritative read
	// happens again under the event mutex.
	seat, err := m.store.GetSeat(ctx, seatID)
	if err != nil {
		metrics.SeatOps.WithLabelValues("hold", "rejected").Inc()
		return nil, err
	}
	eventID := seat.EventID

	mu := m.locks.Event(eventID)
	mu.Lock()
	defer mu.Unlock()

	seat, err = m.store.GetSeat(ctx, seatID)
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	if seat.HoldExpired(now) {
		seat.ClearHold(model.SeatAvailable)
	}
	switch {
	case seat.Status == model.SeatSold:
		metrics.SeatOps.WithLabelValues("hold", "rejected").Inc()
		return nil, fmt.Errorf("seat %s: %w", seatID, ErrSeatAlreadySold)
	case seat.Status == model.SeatHeld && *seat.HeldBy != buyerID:
		metrics.SeatOps.WithLabelValues("hold", "rejected").Inc()
		return nil, fmt.Errorf("seat %s: %w", seatID, ErrSeatHeldByOther)
	}
	expires := now.Add(m.holdTTL)
	seat.Status = model.SeatHeld
	seat.HeldBy = &buyerID
	seat.HeldAt = &now
	seat.ExpiresAt = &expires
	if err := m.store.PutSeat(ctx, seat); err != nil {
		return nil, fmt.Errorf("persist hold: %w", err)
	}
	m.invalidate(ctx, eventID)
	metrics.SeatOps.WithLabelValues("hold", "ok").Inc()
	return seat, nil
}

// Release gives up the caller's hold on a seat.  It fails with
// ErrForbidden when the seat is not currently held by the caller,
// including when it is available or sold.
func (m *SeatLockManager) Release(ctx context.Context, seatID, buyerID string) error {
	seat, err := m.store.GetSeat(ctx, seatID)
	if err != nil {
		metrics.SeatOps.WithLabelValues("release", "rejected").Inc()
		return err
	}
	eventID := seat.EventID

	mu := m.locks.Event(eventID)
	mu.Lock()
	defer mu.Unlock()

	seat, err = m.store.GetSeat(ctx, seatID)
	if err != nil {
		return err
	}
	if seat.Status != model.SeatHeld || seat.HeldBy == nil || *seat.HeldBy != buyerID {
		metrics.SeatOps.WithLabelValues("release", "rejected").Inc()
		return fmt.Errorf("seat %s: %w", seatID, ErrForbidden)
	}
	seat.ClearHold(model.SeatAvailable)
	if err := m.store.PutSeat(ctx, seat); err != nil {
		return fmt.Errorf("persist release: %w", err)
	}
	m.invalidate(ctx, eventID)
	metrics.SeatOps.WithLabelValues("release", "ok").Inc()
	return nil
}

// SweepExpired releases every hold whose expiry is at or before now and
// returns how many seats it freed.  The candidate list is read without
// locks, then each seat is re-read under its event mutex immediately
// before mutation, so a hold that was refreshed or consumed by a purchase
// in the meantime is left untouched.  Repeated sweeps with no new holds
// are no-ops after the first.
func (m *SeatLockManager) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	held, err := m.store.ListHeldSeats(ctx)
	if err != nil {
		return 0, fmt.Errorf("list held seats: %w", err)
	}
	now = now.UTC()
	byEvent := make(map[string][]string)
	for _, s := range held {
		if s.HoldExpired(now) {
			byEvent[s.EventID] = append(byEvent[s.EventID], s.ID)
		}
	}
	released := 0
	for eventID, seatIDs := range byEvent {
		n, err := m.sweepEvent(ctx, eventID, seatIDs, now)
		released += n
		if err != nil {
			return released, err
		}
	}
	if released > 0 {
		metrics.SeatsExpired.Add(float64(released))
	}
	return released, nil
}

func (m *SeatLockManager) sweepEvent(ctx context.Context, eventID string, seatIDs []string, now time.Time) (int, error) {
	mu := m.locks.Event(eventID)
	mu.Lock()
	defer mu.Unlock()

	released := 0
	for _, id := range seatIDs {
		seat, err := m.store.GetSeat(ctx, id)
		if err != nil {
			return released, err
		}
		// Re-check under the lock: the hold may have been refreshed,
		// released or sold since the candidate scan.
		if !seat.HoldExpired(now) {
			continue
		}
		seat.ClearHold(model.SeatAvailable)
		if err := m.store.PutSeat(ctx, seat); err != nil {
			return released, fmt.Errorf("persist expiry of seat %s: %w", id, err)
		}
		released++
	}
	if released > 0 {
		m.invalidate(ctx, eventID)
	}
	return released, nil
}
