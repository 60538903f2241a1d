package queries

import (
	"context"

	"github.com/felixgeelhaar/venues/internal/venues/domain"
)

// ListVenuesQuery lists every live venue.
type ListVenuesQuery struct{}

// ListVenuesHandler handles the ListVenuesQuery.
type ListVenuesHandler struct {
	venueRepo domain.Repository
}

// NewListVenuesHandler creates a new ListVenuesHandler.
func NewListVenuesHandler(venueRepo domain.Repository) *ListVenuesHandler {
	return &ListVenuesHandler{venueRepo: venueRepo}
}

// Handle returns live venues in creation order. The result is never nil.
func (h *ListVenuesHandler) Handle(ctx context.Context, _ ListVenuesQuery) ([]VenueDTO, error) {
	venues, err := h.venueRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]VenueDTO, 0, len(venues))
	for _, v := range venues {
		dtos = append(dtos, ToVenueDTO(v))
	}
	return dtos, nil
}
