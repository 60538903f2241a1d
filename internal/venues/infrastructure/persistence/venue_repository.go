package persistence

import (
	"context"
	"fmt"

	sharedDomain "github.com/felixgeelhaar/venues/internal/shared/domain"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/venues/internal/venues/domain"
	"github.com/felixgeelhaar/venues/pkg/clock"
	"github.com/google/uuid"
)

const venueColumns = `id, name, created_at, modified_at, is_deleted`

// VenueRepository implements domain.Repository on any database.Connection.
// Statements join the unit of work carried by the context, if any.
type VenueRepository struct {
	conn database.Connection
}

// NewVenueRepository creates a new venue repository.
func NewVenueRepository(conn database.Connection) *VenueRepository {
	return &VenueRepository{conn: conn}
}

func (r *VenueRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

// GetAll returns live venues ordered by creation time.
func (r *VenueRepository) GetAll(ctx context.Context) ([]*domain.Venue, error) {
	rows, err := r.executor(ctx).Query(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE is_deleted = ? ORDER BY created_at, id`, false)
	if err != nil {
		return nil, fmt.Errorf("query venues: %w", err)
	}
	defer rows.Close()

	venues := make([]*domain.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate venues: %w", err)
	}
	return venues, nil
}

// GetByID returns the live venue with the given id.
func (r *VenueRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Venue, error) {
	row := r.executor(ctx).QueryRow(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE id = ? AND is_deleted = ?`, id.String(), false)

	v, err := scanVenue(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, sharedDomain.NewNotFoundError(domain.ResourceType, id)
		}
		return nil, err
	}
	return v, nil
}

// Create inserts a transient venue, assigning its identity and timestamps.
func (r *VenueRepository) Create(ctx context.Context, v *domain.Venue) error {
	if !v.IsTransient() {
		return sharedDomain.ErrIdentityAssigned
	}

	id := uuid.New()
	now := database.StorageTime(clock.Now(ctx))

	_, err := r.executor(ctx).Exec(ctx,
		`INSERT INTO venues (`+venueColumns+`) VALUES (?, ?, ?, ?, ?)`,
		id.String(), v.Name(), now, now, false)
	if err != nil {
		return mapWriteError("insert venue", err)
	}

	return v.AssignIdentity(id, now)
}

// Update stores the venue name and moves its modification time forward.
// The row is only written while it still carries the modification time v was
// loaded with; otherwise the write fails with a ConflictError.
func (r *VenueRepository) Update(ctx context.Context, v *domain.Venue) error {
	loaded := v.ModifiedAt()
	now := database.NextWriteTime(loaded, clock.Now(ctx))

	result, err := r.executor(ctx).Exec(ctx,
		`UPDATE venues SET name = ?, modified_at = ? WHERE id = ? AND is_deleted = ? AND modified_at = ?`,
		v.Name(), now, v.ID().String(), false, database.StorageTime(loaded))
	if err != nil {
		return mapWriteError("update venue", err)
	}
	if err := r.requireWritten(ctx, result, v); err != nil {
		return err
	}

	v.Touch(now)
	return nil
}

// Remove soft deletes the venue and moves its modification time forward.
// It fails like Update when the stored row moved on since v was loaded.
func (r *VenueRepository) Remove(ctx context.Context, v *domain.Venue) error {
	loaded := v.ModifiedAt()
	now := database.NextWriteTime(loaded, clock.Now(ctx))

	result, err := r.executor(ctx).Exec(ctx,
		`UPDATE venues SET is_deleted = ?, modified_at = ? WHERE id = ? AND is_deleted = ? AND modified_at = ?`,
		true, now, v.ID().String(), false, database.StorageTime(loaded))
	if err != nil {
		return fmt.Errorf("remove venue: %w", err)
	}
	if err := r.requireWritten(ctx, result, v); err != nil {
		return err
	}

	v.Remove()
	v.Touch(now)
	return nil
}

// IsNameUnique reports whether no live venue other than excludeID uses name.
func (r *VenueRepository) IsNameUnique(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	query := `SELECT COUNT(*) FROM venues WHERE name = ? AND is_deleted = ?`
	args := []any{name, false}
	if excludeID != nil {
		query += ` AND id <> ?`
		args = append(args, excludeID.String())
	}

	var n int64
	if err := r.executor(ctx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("count venues named %q: %w", name, err)
	}
	return n == 0, nil
}

// requireWritten explains a write that matched no row: the venue is gone, or
// another writer changed it after v was loaded.
func (r *VenueRepository) requireWritten(ctx context.Context, result database.Result, v *domain.Venue) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	current, err := r.GetByID(ctx, v.ID())
	if err != nil {
		return err
	}
	return sharedDomain.NewConflictError(domain.ResourceType, v.ID(), current.EntityTag(), v.EntityTag())
}

// mapWriteError reports a lost race on the live-name index as a validation failure.
func mapWriteError(op string, err error) error {
	if database.IsUniqueViolation(err) {
		return sharedDomain.NewValidationError(sharedDomain.FieldError{
			Field:   "Name",
			Message: "Must be unique",
		})
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanVenue(row database.Row) (*domain.Venue, error) {
	var (
		id         string
		name       string
		createdAt  database.Timestamp
		modifiedAt database.Timestamp
		deleted    bool
	)
	if err := row.Scan(&id, &name, &createdAt, &modifiedAt, &deleted); err != nil {
		return nil, err
	}

	venueID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse venue id %q: %w", id, err)
	}
	return domain.Rehydrate(venueID, name, createdAt.Time, modifiedAt.Time, deleted), nil
}
