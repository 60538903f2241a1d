package subscribers

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/eventbus"
)

// EventLogger writes one log record per venue event.
type EventLogger struct {
	logger *slog.Logger
}

// NewEventLogger creates a new event logger.
func NewEventLogger(logger *slog.Logger) *EventLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventLogger{logger: logger}
}

// EventTypes returns the event types this subscriber handles.
func (l *EventLogger) EventTypes() []string {
	return []string{"venue.*"}
}

// Handle logs the event envelope.
func (l *EventLogger) Handle(ctx context.Context, event *eventbus.Envelope) error {
	l.logger.InfoContext(ctx, "venue event",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"venue_id", event.AggregateID,
		"occurred_at", event.OccurredAt,
		"correlation_id", event.CorrelationID,
		"payload", string(event.Payload),
	)
	return nil
}
