// Package cache serves the per-event seat map read model from Redis so
// browse traffic does not hammer the primary store.  Entries are written
// through on miss with a short TTL and dropped by the engines whenever an
// event's seat state changes, so readers observe mutations immediately
// while still absorbing bursts between them.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticket-reservation/internal/model"
	"github.com/iliyamo/event-ticket-reservation/internal/store"
)

// DefaultTTL bounds staleness if an invalidation is ever lost.
const DefaultTTL = 30 * time.Second

const keyPrefix = "seatmap:"

// SeatMap is a Redis-backed cache over Store.ListSeatsByEvent.  A nil
// Redis client disables caching entirely and every read goes straight to
// the store, so callers can construct it unconditionally.
type SeatMap struct {
	rdb   *redis.Client
	store store.Store
	ttl   time.Duration
}

// NewSeatMap builds a seat-map cache.  Pass ttl <= 0 for the default.
func NewSeatMap(rdb *redis.Client, st store.Store, ttl time.Duration) *SeatMap {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SeatMap{rdb: rdb, store: st, ttl: ttl}
}

// EventSeats returns all seats of an event, serving from Redis when a
// fresh entry exists.  Cache trouble is logged and degrades to a store
// read; it never fails the request.
func (c *SeatMap) EventSeats(ctx context.Context, eventID string) ([]*model.Seat, error) {
	key := keyPrefix + eventID
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var seats []*model.Seat
			if jsonErr := json.Unmarshal(raw, &seats); jsonErr == nil {
				return seats, nil
			}
			// Corrupt entry: fall through to the store and rewrite it.
			_ = c.rdb.Del(ctx, key).Err()
		} else if err != redis.Nil {
			log.Printf("seatmap-cache: get %s failed: %v", key, err)
		}
	}
	seats, err := c.store.ListSeatsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if c.rdb != nil {
		if raw, err := json.Marshal(seats); err == nil {
			if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				log.Printf("seatmap-cache: set %s failed: %v", key, err)
			}
		}
	}
	return seats, nil
}

// InvalidateEvent drops the cached seat map for an event.  It satisfies
// the engine's CacheInvalidator and is safe to call with no Redis client.
func (c *SeatMap) InvalidateEvent(ctx context.Context, eventID string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, keyPrefix+eventID).Err(); err != nil {
		log.Printf("seatmap-cache: invalidate %s failed: %v", eventID, err)
	}
}
