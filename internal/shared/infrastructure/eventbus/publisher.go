package eventbus

import (
	"context"
	"log/slog"
)

// ExchangeName is the topic exchange (and NATS subject prefix root) for venue events.
const ExchangeName = "venues.domain.events"

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends an envelope to the broker under its routing key.
	Publish(ctx context.Context, envelope Envelope) error

	// Close closes the publisher connection.
	Close() error
}

// NoopPublisher is a no-op publisher for local development.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that does nothing.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

// Publish logs the envelope but doesn't actually publish.
func (p *NoopPublisher) Publish(_ context.Context, envelope Envelope) error {
	p.logger.Debug("noop publish",
		"routing_key", envelope.RoutingKey,
		"event_id", envelope.EventID,
		"size", len(envelope.Payload),
	)
	return nil
}

// Close is a no-op.
func (p *NoopPublisher) Close() error {
	return nil
}
