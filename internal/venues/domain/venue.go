package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/venues/internal/shared/domain"
	"github.com/google/uuid"
)

// ResourceType names venues in raised failures and error payloads.
const ResourceType = "Venue"

// Name length bounds, inclusive.
const (
	NameMinLength = 8
	NameMaxLength = 100
)

// Venue is a named place that can host events.
type Venue struct {
	sharedDomain.BaseAggregateRoot
	name string
}

// NewVenue creates a transient venue. The persistence layer assigns its identity.
func NewVenue(name string) *Venue {
	return &Venue{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		name:              name,
	}
}

// Rehydrate recreates a venue from persisted state.
func Rehydrate(id uuid.UUID, name string, createdAt, modifiedAt time.Time, deleted bool) *Venue {
	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, modifiedAt, deleted)
	return &Venue{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(entity),
		name:              name,
	}
}

func (v *Venue) Name() string { return v.name }

// Rename replaces the venue name and returns the previous one.
func (v *Venue) Rename(name string) string {
	previous := v.name
	v.name = name
	return previous
}

// Remove soft deletes the venue.
func (v *Venue) Remove() {
	v.MarkDeleted()
}
