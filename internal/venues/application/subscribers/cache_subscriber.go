package subscribers

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/venues/internal/venues/application/commands"
	"github.com/felixgeelhaar/venues/internal/venues/domain"
)

// CacheSubscriber drops cached reads of venues changed elsewhere. Writes served
// by this process already invalidate their own entries; the subscriber covers
// writes made by other API instances sharing the broker.
type CacheSubscriber struct {
	cache  commands.VenueCacheInvalidator
	logger *slog.Logger
}

// NewCacheSubscriber creates a new cache subscriber.
func NewCacheSubscriber(cache commands.VenueCacheInvalidator, logger *slog.Logger) *CacheSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheSubscriber{cache: cache, logger: logger}
}

// EventTypes returns the event types this subscriber handles.
func (s *CacheSubscriber) EventTypes() []string {
	return []string{
		domain.RoutingKeyVenueRenamed,
		domain.RoutingKeyVenueRemoved,
	}
}

// Handle invalidates the cached read of the event's venue.
func (s *CacheSubscriber) Handle(ctx context.Context, event *eventbus.Envelope) error {
	s.cache.Invalidate(ctx, event.AggregateID)
	s.logger.DebugContext(ctx, "venue cache invalidated",
		"venue_id", event.AggregateID,
		"routing_key", event.RoutingKey,
	)
	return nil
}
