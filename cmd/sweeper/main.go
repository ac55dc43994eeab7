// Command sweeper runs one expiry sweep against the reservation store:
// every hold whose expiry has passed is released back to available.  It
// is meant for cron or manual operation; the engines also expire stale
// holds lazily, so the sweeper only bounds how long a stale hold can
// linger on seats nobody touches.
package main

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/event-ticket-reservation/internal/cache"
	"github.com/iliyamo/event-ticket-reservation/internal/config"
	"github.com/iliyamo/event-ticket-reservation/internal/database"
	"github.com/iliyamo/event-ticket-reservation/internal/engine"
	"github.com/iliyamo/event-ticket-reservation/internal/store"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	st := store.NewMySQL(db)
	seatCache := cache.NewSeatMap(config.NewRedisClient(), st, cfg.SeatCacheTTL)
	manager := engine.NewSeatLockManager(st, engine.NewLocks(),
		engine.WithHoldTTL(cfg.HoldTTL),
		engine.WithSeatCache(seatCache),
	)

	released, err := manager.SweepExpired(ctx, time.Now())
	if err != nil {
		log.Fatalf("sweep expired holds: %v", err)
	}
	log.Printf("sweep complete (env=%s): released %d expired holds", cfg.Env, released)
}
