package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/venues/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/venues/internal/shared/domain"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/venues/internal/venues/domain"
	"github.com/google/uuid"
)

// RemoveVenueCommand soft deletes a venue guarded by its entity tag.
type RemoveVenueCommand struct {
	ID        uuid.UUID
	EntityTag string
}

// RemoveVenueHandler handles the RemoveVenueCommand.
type RemoveVenueHandler struct {
	venueRepo  domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	cache      VenueCacheInvalidator
}

// NewRemoveVenueHandler creates a new RemoveVenueHandler. cache may be nil.
func NewRemoveVenueHandler(venueRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, cache VenueCacheInvalidator) *RemoveVenueHandler {
	return &RemoveVenueHandler{
		venueRepo:  venueRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		cache:      invalidatorOrNoop(cache),
	}
}

// Handle executes the RemoveVenueCommand and reports true once the removal is committed.
func (h *RemoveVenueHandler) Handle(ctx context.Context, cmd RemoveVenueCommand) (bool, error) {
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		v, err := h.venueRepo.GetByID(txCtx, cmd.ID)
		if err != nil {
			return err
		}

		if !v.CompareEntityTag(cmd.EntityTag) {
			return sharedDomain.NewConflictError(domain.ResourceType, cmd.ID, v.EntityTag(), cmd.EntityTag)
		}

		v.Remove()
		if err := h.venueRepo.Remove(txCtx, v); err != nil {
			return err
		}

		v.AddDomainEvent(domain.NewVenueRemoved(v))
		return saveEvents(txCtx, h.outboxRepo, v)
	})
	if err != nil {
		return false, err
	}

	h.cache.Invalidate(ctx, cmd.ID)
	return true, nil
}
