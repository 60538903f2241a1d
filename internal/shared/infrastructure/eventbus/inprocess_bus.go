package eventbus

import (
	"context"
	"log/slog"
	"time"
)

// InProcessBus is an in-memory publisher for local mode (no broker).
// Envelopes are delivered synchronously to registered consumers.
type InProcessBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
}

// NewInProcessBus creates a new in-process event bus.
func NewInProcessBus(logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
	}
}

// RegisterConsumer registers an event consumer.
func (b *InProcessBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish dispatches the envelope to all matching consumers.
// Consumer failures are returned so the outbox retries the delivery.
func (b *InProcessBus) Publish(ctx context.Context, envelope Envelope) error {
	start := time.Now()
	err := b.registry.Dispatch(ctx, &envelope)
	duration := time.Since(start)

	if err != nil {
		b.logger.Error("event dispatch failed",
			"routing_key", envelope.RoutingKey,
			"event_id", envelope.EventID,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return err
	}

	b.logger.Debug("event dispatched",
		"routing_key", envelope.RoutingKey,
		"event_id", envelope.EventID,
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}

// Registry returns the underlying consumer registry.
func (b *InProcessBus) Registry() *ConsumerRegistry {
	return b.registry
}

// Close is a no-op for the in-process bus.
func (b *InProcessBus) Close() error {
	return nil
}
