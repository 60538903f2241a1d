package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/venues/internal/shared/application"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/venues/internal/venues/domain"
)

// CreateVenueCommand contains the data needed to create a venue.
type CreateVenueCommand struct {
	Name string
}

// CreateVenueHandler handles the CreateVenueCommand.
type CreateVenueHandler struct {
	venueRepo  domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewCreateVenueHandler creates a new CreateVenueHandler.
func NewCreateVenueHandler(venueRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CreateVenueHandler {
	return &CreateVenueHandler{
		venueRepo:  venueRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle validates the name, stores a new venue and returns it with its assigned identity.
func (h *CreateVenueHandler) Handle(ctx context.Context, cmd CreateVenueCommand) (*domain.Venue, error) {
	var venue *domain.Venue

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := validateName(txCtx, h.venueRepo, cmd.Name, nil); err != nil {
			return err
		}

		v := domain.NewVenue(cmd.Name)
		if err := h.venueRepo.Create(txCtx, v); err != nil {
			return err
		}

		v.AddDomainEvent(domain.NewVenueCreated(v))
		if err := saveEvents(txCtx, h.outboxRepo, v); err != nil {
			return err
		}

		venue = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	return venue, nil
}
