package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/venues/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/venues/internal/shared/domain"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/venues/internal/venues/domain"
	"github.com/google/uuid"
)

// UpdateVenueCommand renames a venue guarded by the entity tag the caller last saw.
type UpdateVenueCommand struct {
	ID        uuid.UUID
	EntityTag string
	Name      string
}

// UpdateVenueHandler handles the UpdateVenueCommand.
type UpdateVenueHandler struct {
	venueRepo  domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	cache      VenueCacheInvalidator
}

// NewUpdateVenueHandler creates a new UpdateVenueHandler. cache may be nil.
func NewUpdateVenueHandler(venueRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, cache VenueCacheInvalidator) *UpdateVenueHandler {
	return &UpdateVenueHandler{
		venueRepo:  venueRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		cache:      invalidatorOrNoop(cache),
	}
}

// Handle executes the UpdateVenueCommand.
// Failures are checked in order: validation, existence, then entity tag.
func (h *UpdateVenueHandler) Handle(ctx context.Context, cmd UpdateVenueCommand) (*domain.Venue, error) {
	var venue *domain.Venue

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := validateName(txCtx, h.venueRepo, cmd.Name, &cmd.ID); err != nil {
			return err
		}

		v, err := h.venueRepo.GetByID(txCtx, cmd.ID)
		if err != nil {
			return err
		}

		if !v.CompareEntityTag(cmd.EntityTag) {
			return sharedDomain.NewConflictError(domain.ResourceType, cmd.ID, v.EntityTag(), cmd.EntityTag)
		}

		previous := v.Rename(cmd.Name)
		if err := h.venueRepo.Update(txCtx, v); err != nil {
			return err
		}

		v.AddDomainEvent(domain.NewVenueRenamed(v, previous))
		if err := saveEvents(txCtx, h.outboxRepo, v); err != nil {
			return err
		}

		venue = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.cache.Invalidate(ctx, venue.ID())
	return venue, nil
}
