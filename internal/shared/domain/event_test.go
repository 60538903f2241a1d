package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/venues/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()
	at := time.Date(2024, 2, 2, 9, 0, 0, 0, time.FixedZone("X", 7200))

	event := domain.NewBaseEvent(aggregateID, "TestAggregate", "test.event.created", at)

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "TestAggregate", event.AggregateType())
	assert.Equal(t, "test.event.created", event.RoutingKey())
	assert.True(t, at.Equal(event.OccurredAt()))
	assert.Equal(t, time.UTC, event.OccurredAt().Location())
}

func TestBaseEvent_WithMetadata(t *testing.T) {
	correlationID := uuid.New()
	causationID := uuid.New()

	event := domain.NewBaseEvent(uuid.New(), "TestAggregate", "test.event.created", time.Now())
	event.SetMetadata(domain.EventMetadata{
		CorrelationID: correlationID,
		CausationID:   causationID,
	})

	metadata := event.Metadata()
	assert.Equal(t, correlationID, metadata.CorrelationID)
	assert.Equal(t, causationID, metadata.CausationID)
}
