package queries

import (
	"context"

	"github.com/felixgeelhaar/venues/internal/venues/domain"
	"github.com/google/uuid"
)

// GetVenueQuery contains the parameters for getting a single venue.
type GetVenueQuery struct {
	ID uuid.UUID
}

// GetVenueHandler handles the GetVenueQuery.
type GetVenueHandler struct {
	venueRepo domain.Repository
	cache     VenueCache
}

// NewGetVenueHandler creates a new GetVenueHandler. cache may be nil.
func NewGetVenueHandler(venueRepo domain.Repository, cache VenueCache) *GetVenueHandler {
	return &GetVenueHandler{venueRepo: venueRepo, cache: cache}
}

// Handle executes the GetVenueQuery. A missing or removed venue yields a
// *sharedDomain.NotFoundError from the repository.
func (h *GetVenueHandler) Handle(ctx context.Context, query GetVenueQuery) (*VenueDTO, error) {
	if h.cache != nil {
		if dto, ok := h.cache.Get(ctx, query.ID); ok {
			return dto, nil
		}
	}

	v, err := h.venueRepo.GetByID(ctx, query.ID)
	if err != nil {
		return nil, err
	}

	dto := ToVenueDTO(v)
	if h.cache != nil {
		h.cache.Set(ctx, dto)
	}
	return &dto, nil
}
