package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/venues/internal/venues/domain"
	"github.com/felixgeelhaar/venues/pkg/etag"
	"github.com/google/uuid"
)

// VenueDTO is the read model of a venue.
type VenueDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	CreatedDate  time.Time `json:"createdDate"`
	ModifiedDate time.Time `json:"modifiedDate"`
}

// ToVenueDTO maps a venue to its read model.
func ToVenueDTO(v *domain.Venue) VenueDTO {
	return VenueDTO{
		ID:           v.ID(),
		Name:         v.Name(),
		CreatedDate:  v.CreatedAt(),
		ModifiedDate: v.ModifiedAt(),
	}
}

// EntityTag returns the same tag the venue itself reports.
func (d VenueDTO) EntityTag() string {
	return etag.Generate(d.ID, d.CreatedDate, d.ModifiedDate)
}

// VenueCache holds read models of single venues.
// Implementations swallow and log their own failures; a miss is always safe.
type VenueCache interface {
	Get(ctx context.Context, id uuid.UUID) (*VenueDTO, bool)
	Set(ctx context.Context, venue VenueDTO)
}
