package eventbus

import (
	"context"
	"log/slog"
	"time"
)

// Settlement tells a broker consumer what to do with a delivery.
type Settlement int

const (
	// SettleAck removes the delivery from the queue.
	SettleAck Settlement = iota
	// SettleRequeue returns the delivery for another attempt.
	SettleRequeue
	// SettleReject removes the delivery without handling it. Brokers with a
	// dead-letter exchange route it there.
	SettleReject
)

func (s Settlement) String() string {
	switch s {
	case SettleAck:
		return "ack"
	case SettleRequeue:
		return "requeue"
	case SettleReject:
		return "reject"
	default:
		return "unknown"
	}
}

// Delivery is a message as received from a broker.
type Delivery struct {
	Body        []byte
	RoutingKey  string
	MessageID   string
	Redelivered bool
}

// Settle decodes d and dispatches it to the registry's consumers. A body that
// cannot be decoded is rejected. A failed dispatch is requeued once; a
// delivery that fails again after redelivery is rejected so one bad venue
// event cannot stall the queue.
func (r *ConsumerRegistry) Settle(ctx context.Context, d Delivery) Settlement {
	event, err := DecodeEnvelope(d.Body, d.RoutingKey)
	if err != nil {
		r.logger.Error("undecodable event rejected",
			"routing_key", d.RoutingKey,
			"message_id", d.MessageID,
			"error", err,
		)
		return SettleReject
	}

	logger := envelopeLogger(r.logger, event)
	start := time.Now()
	if err := r.Dispatch(ctx, event); err != nil {
		outcome := SettleRequeue
		if d.Redelivered {
			outcome = SettleReject
		}
		logger.Error("event dispatch failed",
			"redelivered", d.Redelivered,
			"settlement", outcome,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return outcome
	}
	logger.Debug("event handled", "duration_ms", time.Since(start).Milliseconds())
	return SettleAck
}

func envelopeLogger(logger *slog.Logger, event *Envelope) *slog.Logger {
	logger = logger.With(
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"aggregate_type", event.AggregateType,
		"aggregate_id", event.AggregateID,
	)
	if event.CorrelationID != "" {
		logger = logger.With("correlation_id", event.CorrelationID)
	}
	return logger
}
