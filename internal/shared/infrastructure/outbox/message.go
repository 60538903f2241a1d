package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/venues/internal/shared/domain"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// Message is a domain event stored alongside the write that raised it,
// waiting to be relayed to the broker.
type Message struct {
	ID               int64
	EventID          uuid.UUID
	AggregateType    string
	AggregateID      uuid.UUID
	EventType        string
	RoutingKey       string
	Payload          json.RawMessage
	Metadata         json.RawMessage
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage creates an outbox message from a domain event.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event.RoutingKey(), err)
	}

	metadata, err := json.Marshal(event.Metadata())
	if err != nil {
		return nil, fmt.Errorf("marshal %s metadata: %w", event.RoutingKey(), err)
	}

	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		EventType:     event.RoutingKey(),
		RoutingKey:    event.RoutingKey(),
		Payload:       payload,
		Metadata:      metadata,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// NewMessages converts every event, stopping at the first failure.
func NewMessages(events []domain.DomainEvent) ([]*Message, error) {
	msgs := make([]*Message, 0, len(events))
	for _, event := range events {
		msg, err := NewMessage(event)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// IsPublished returns true if the message has been published.
func (m *Message) IsPublished() bool {
	return m.PublishedAt != nil
}

// CanRetry returns true if the message can be retried.
func (m *Message) CanRetry(maxRetries int) bool {
	return m.RetryCount < maxRetries
}

// EventMetadata decodes the stored tracing metadata. Undecodable metadata yields zero values.
func (m *Message) EventMetadata() domain.EventMetadata {
	var metadata domain.EventMetadata
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &metadata)
	}
	return metadata
}

// Envelope builds the broker-facing form of the message.
func (m *Message) Envelope() eventbus.Envelope {
	metadata := m.EventMetadata()
	envelope := eventbus.Envelope{
		EventID:       m.EventID,
		AggregateType: m.AggregateType,
		AggregateID:   m.AggregateID,
		RoutingKey:    m.RoutingKey,
		Payload:       m.Payload,
		OccurredAt:    m.CreatedAt,
	}
	if metadata.CorrelationID != uuid.Nil {
		envelope.CorrelationID = metadata.CorrelationID.String()
	}
	return envelope
}
