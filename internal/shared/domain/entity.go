package domain

import (
	"errors"
	"time"

	"github.com/felixgeelhaar/venues/pkg/etag"
	"github.com/google/uuid"
)

// ErrIdentityAssigned is returned when an entity that already has an identity is assigned another.
var ErrIdentityAssigned = errors.New("entity identity already assigned")

// Entity represents a persisted, versioned domain entity.
type Entity interface {
	ID() uuid.UUID
	CreatedAt() time.Time
	ModifiedAt() time.Time
	IsDeleted() bool
	EntityTag() string
	Equals(other Entity) bool
}

// BaseEntity carries identity, lifecycle timestamps and the soft-delete flag.
// Identity and timestamps are assigned by the persistence layer, never by callers.
type BaseEntity struct {
	id         uuid.UUID
	createdAt  time.Time
	modifiedAt time.Time
	deleted    bool
}

// NewBaseEntity creates a transient entity with no identity yet.
func NewBaseEntity() BaseEntity {
	return BaseEntity{}
}

// RehydrateBaseEntity recreates an entity from persisted state.
func RehydrateBaseEntity(id uuid.UUID, createdAt, modifiedAt time.Time, deleted bool) BaseEntity {
	return BaseEntity{
		id:         id,
		createdAt:  createdAt,
		modifiedAt: modifiedAt,
		deleted:    deleted,
	}
}

func (e BaseEntity) ID() uuid.UUID         { return e.id }
func (e BaseEntity) CreatedAt() time.Time  { return e.createdAt }
func (e BaseEntity) ModifiedAt() time.Time { return e.modifiedAt }
func (e BaseEntity) IsDeleted() bool       { return e.deleted }

// IsTransient reports whether the entity has not been persisted yet.
func (e BaseEntity) IsTransient() bool {
	return e.id == uuid.Nil
}

// AssignIdentity sets the identity and both timestamps on first insert.
func (e *BaseEntity) AssignIdentity(id uuid.UUID, at time.Time) error {
	if !e.IsTransient() {
		return ErrIdentityAssigned
	}
	e.id = id
	e.createdAt = at
	e.modifiedAt = at
	return nil
}

// Touch records a modification at the given time.
func (e *BaseEntity) Touch(at time.Time) {
	e.modifiedAt = at
}

// MarkDeleted flags the entity as soft deleted. It cannot be undone.
func (e *BaseEntity) MarkDeleted() {
	e.deleted = true
}

// EntityTag returns the quoted version fingerprint, or "" for a transient entity.
func (e BaseEntity) EntityTag() string {
	if e.IsTransient() {
		return ""
	}
	return etag.Generate(e.id, e.createdAt, e.modifiedAt)
}

// CompareEntityTag reports whether provided matches the current entity tag.
func (e BaseEntity) CompareEntityTag(provided string) bool {
	return etag.Compare(e.EntityTag(), provided)
}

// Equals checks if two entities have the same identity.
func (e BaseEntity) Equals(other Entity) bool {
	if other == nil || e.IsTransient() {
		return false
	}
	return e.id == other.ID()
}
