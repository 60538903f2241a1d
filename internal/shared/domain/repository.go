package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the base interface for repositories of versioned aggregates.
// Reads never return soft-deleted aggregates.
type Repository[T AggregateRoot] interface {
	GetAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id uuid.UUID) (T, error)
	Create(ctx context.Context, aggregate T) error
	Update(ctx context.Context, aggregate T) error
	Remove(ctx context.Context, aggregate T) error
}
