package application

import (
	"context"

	"github.com/felixgeelhaar/venues/internal/shared/domain"
	"github.com/felixgeelhaar/venues/pkg/observability"
	"github.com/google/uuid"
)

type metadataSetter interface {
	SetMetadata(metadata domain.EventMetadata)
}

// WithCorrelationID stores the request correlation id in the context.
// Loggers built by observability.NewLogger record it too.
func WithCorrelationID(ctx context.Context, id uuid.UUID) context.Context {
	return observability.WithCorrelationID(ctx, id)
}

// CorrelationIDFromContext returns the correlation id stored in ctx, if any.
func CorrelationIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	return observability.CorrelationIDFromContext(ctx)
}

// NewEventMetadata creates command-scoped metadata for domain events.
// The correlation id is taken from ctx when present.
func NewEventMetadata(ctx context.Context) domain.EventMetadata {
	correlationID, ok := CorrelationIDFromContext(ctx)
	if !ok {
		correlationID = uuid.New()
	}
	return domain.EventMetadata{
		CorrelationID: correlationID,
		CausationID:   uuid.New(),
	}
}

// ApplyEventMetadata sets metadata on all events that support it.
func ApplyEventMetadata(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if setter, ok := event.(metadataSetter); ok {
			setter.SetMetadata(metadata)
		}
	}
}
