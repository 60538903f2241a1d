package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/venues/internal/shared/application"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/venues/internal/venues/domain"
	"github.com/google/uuid"
)

// VenueCacheInvalidator drops cached reads of a venue after a committed write.
type VenueCacheInvalidator interface {
	Invalidate(ctx context.Context, id uuid.UUID)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, uuid.UUID) {}

func invalidatorOrNoop(c VenueCacheInvalidator) VenueCacheInvalidator {
	if c == nil {
		return noopInvalidator{}
	}
	return c
}

// saveEvents writes the venue's pending domain events to the outbox.
// It must run inside the unit of work that persisted the venue.
func saveEvents(ctx context.Context, outboxRepo outbox.Repository, v *domain.Venue) error {
	events := v.DomainEvents()
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	if err := outboxRepo.SaveBatch(ctx, msgs); err != nil {
		return err
	}
	v.ClearDomainEvents()
	return nil
}
