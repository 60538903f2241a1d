package domain

import (
	"context"

	sharedDomain "github.com/felixgeelhaar/venues/internal/shared/domain"
	"github.com/google/uuid"
)

// Repository defines venue persistence.
//
// GetByID returns a *sharedDomain.NotFoundError when no live venue has the id.
// Create assigns identity and timestamps; Update and Remove refresh the
// modification time. A name clash with another live venue is reported as a
// *sharedDomain.ValidationError.
type Repository interface {
	sharedDomain.Repository[*Venue]

	// IsNameUnique reports whether no live venue other than excludeID uses name.
	IsNameUnique(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)
}
