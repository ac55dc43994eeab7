package engine

import (
	"context"

	"github.com/iliyamo/event-ticket-reservation/internal/model"
)

// EventPublisher receives notifications after a transaction has
// committed.  Implementations must not block the request path for long
// and must tolerate broker outages; the engine ignores publish errors
// because the committed state, not the event stream, is authoritative.
type EventPublisher interface {
	PublishOrderCompleted(ctx context.Context, order *model.Order) error
	PublishOrderCancelled(ctx context.Context, order *model.Order) error
}

// CacheInvalidator drops derived read-model state for an event after its
// seat map changed.  A nil invalidator disables caching concerns
// entirely; the engines degrade gracefully without one.
type CacheInvalidator interface {
	InvalidateEvent(ctx context.Context, eventID string)
}
