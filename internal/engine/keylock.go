package engine

import (
	"sync"
	"time"
)

// Clock supplies the current time.  Injected so expiry and refund-window
// behavior can be driven deterministically in tests.
type Clock func() time.Time

// Locks is the shared exclusion registry for the core.  Seat state of an
// event is only ever read-then-written under that event's mutex; coupon
// usage only under the coupon's mutex; the aggregate stats record only
// under the stats mutex.  Lock order is fixed (event, then coupon, then
// stats) and coupon or stats sections never take an event lock, so the
// ordering cannot deadlock.  Operations on distinct events proceed in
// parallel.
type Locks struct {
	mu      sync.Mutex
	events  map[string]*sync.Mutex
	coupons map[string]*sync.Mutex
	stats   sync.Mutex
}

// NewLocks returns an empty lock registry.  One registry must be shared
// by every component that touches the same store.
func NewLocks() *Locks {
	return &Locks{
		events:  make(map[string]*sync.Mutex),
		coupons: make(map[string]*sync.Mutex),
	}
}

func (l *Locks) get(m map[string]*sync.Mutex, key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	mu, ok := m[key]
	if !ok {
		mu = &sync.Mutex{}
		m[key] = mu
	}
	return mu
}

// Event returns the mutex guarding all seat state of one event.
func (l *Locks) Event(eventID string) *sync.Mutex { return l.get(l.events, eventID) }

// Coupon returns the mutex guarding one coupon's usage counter.
func (l *Locks) Coupon(code string) *sync.Mutex { return l.get(l.coupons, code) }

// Stats returns the mutex guarding the aggregate stats record.
func (l *Locks) Stats() *sync.Mutex { return &l.stats }
