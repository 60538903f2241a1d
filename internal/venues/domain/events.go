package domain

import (
	sharedDomain "github.com/felixgeelhaar/venues/internal/shared/domain"
	"github.com/google/uuid"
)

// Routing keys for venue events.
const (
	RoutingKeyVenueCreated = "venue.created"
	RoutingKeyVenueRenamed = "venue.renamed"
	RoutingKeyVenueRemoved = "venue.removed"
)

// VenueCreated is emitted once a venue has been stored for the first time.
type VenueCreated struct {
	sharedDomain.BaseEvent
	VenueID uuid.UUID `json:"venue_id"`
	Name    string    `json:"name"`
}

// NewVenueCreated creates a VenueCreated event. The venue must already have an identity.
func NewVenueCreated(v *Venue) *VenueCreated {
	return &VenueCreated{
		BaseEvent: sharedDomain.NewBaseEvent(v.ID(), ResourceType, RoutingKeyVenueCreated, v.CreatedAt()),
		VenueID:   v.ID(),
		Name:      v.Name(),
	}
}

// VenueRenamed is emitted when a venue's name changes.
type VenueRenamed struct {
	sharedDomain.BaseEvent
	VenueID      uuid.UUID `json:"venue_id"`
	PreviousName string    `json:"previous_name"`
	Name         string    `json:"name"`
}

// NewVenueRenamed creates a VenueRenamed event.
func NewVenueRenamed(v *Venue, previousName string) *VenueRenamed {
	return &VenueRenamed{
		BaseEvent:    sharedDomain.NewBaseEvent(v.ID(), ResourceType, RoutingKeyVenueRenamed, v.ModifiedAt()),
		VenueID:      v.ID(),
		PreviousName: previousName,
		Name:         v.Name(),
	}
}

// VenueRemoved is emitted when a venue is soft deleted.
type VenueRemoved struct {
	sharedDomain.BaseEvent
	VenueID uuid.UUID `json:"venue_id"`
}

// NewVenueRemoved creates a VenueRemoved event.
func NewVenueRemoved(v *Venue) *VenueRemoved {
	return &VenueRemoved{
		BaseEvent: sharedDomain.NewBaseEvent(v.ID(), ResourceType, RoutingKeyVenueRemoved, v.ModifiedAt()),
		VenueID:   v.ID(),
	}
}
