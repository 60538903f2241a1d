package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	sharedDomain "github.com/felixgeelhaar/venues/internal/shared/domain"
	"github.com/felixgeelhaar/venues/internal/venues/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUpdateVenueHandler_Handle(t *testing.T) {
	t.Run("successfully renames venue", func(t *testing.T) {
		venueRepo := new(mockVenueRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		cache := new(mockInvalidator)
		handler := NewUpdateVenueHandler(venueRepo, outboxRepo, uow, cache)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, "transaction")
		stored := storedVenue("Old Riverside Hall")
		tag := stored.EntityTag()
		modified := stored.ModifiedAt().Add(time.Minute)

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		venueRepo.On("IsNameUnique", txCtx, "New Riverside Hall", mock.MatchedBy(func(id *uuid.UUID) bool {
			return id != nil && *id == stored.ID()
		})).Return(true, nil)
		venueRepo.On("GetByID", txCtx, stored.ID()).Return(stored, nil)
		venueRepo.On("Update", txCtx, stored).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.Venue).Touch(modified)
			}).
			Return(nil)
		outboxRepo.On("SaveBatch", txCtx, outboxWith(domain.RoutingKeyVenueRenamed)).Return(nil)
		cache.On("Invalidate", ctx, stored.ID()).Return()

		venue, err := handler.Handle(ctx, UpdateVenueCommand{
			ID:        stored.ID(),
			EntityTag: tag,
			Name:      "New Riverside Hall",
		})

		require.NoError(t, err)
		assert.Equal(t, "New Riverside Hall", venue.Name())
		assert.Equal(t, modified, venue.ModifiedAt())
		assert.NotEqual(t, tag, venue.EntityTag())

		uow.AssertExpectations(t)
		venueRepo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("validation runs before the existence check", func(t *testing.T) {
		venueRepo := new(mockVenueRepo)
		uow := new(mockUnitOfWork)
		handler := NewUpdateVenueHandler(venueRepo, new(mockOutboxRepo), uow, nil)

		ctx := context.Background()
		id := uuid.New()

		uow.On("Begin", ctx).Return(ctx, nil)
		uow.On("Rollback", ctx).Return(nil)
		venueRepo.On("IsNameUnique", ctx, "tiny", mock.Anything).Return(true, nil)

		_, err := handler.Handle(ctx, UpdateVenueCommand{ID: id, EntityTag: `"x"`, Name: "tiny"})

		var verr *sharedDomain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []sharedDomain.FieldError{{Field: FieldName, Message: MessageTooShort}}, verr.Failures)
		venueRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("fails when venue does not exist", func(t *testing.T) {
		venueRepo := new(mockVenueRepo)
		uow := new(mockUnitOfWork)
		cache := new(mockInvalidator)
		handler := NewUpdateVenueHandler(venueRepo, new(mockOutboxRepo), uow, cache)

		ctx := context.Background()
		id := uuid.New()

		uow.On("Begin", ctx).Return(ctx, nil)
		uow.On("Rollback", ctx).Return(nil)
		venueRepo.On("IsNameUnique", ctx, "Grand Ballroom", mock.Anything).Return(true, nil)
		venueRepo.On("GetByID", ctx, id).Return(nil, sharedDomain.NewNotFoundError(domain.ResourceType, id))

		venue, err := handler.Handle(ctx, UpdateVenueCommand{ID: id, EntityTag: `"x"`, Name: "Grand Ballroom"})

		assert.Nil(t, venue)
		var nf *sharedDomain.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, id, nf.ID)
		assert.Equal(t, domain.ResourceType, nf.ResourceType)
		cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})

	t.Run("fails on stale entity tag", func(t *testing.T) {
		venueRepo := new(mockVenueRepo)
		uow := new(mockUnitOfWork)
		handler := NewUpdateVenueHandler(venueRepo, new(mockOutboxRepo), uow, nil)

		ctx := context.Background()
		stored := storedVenue("Grand Ballroom")
		stale := `"0123456789ABCDEF0123456789ABCDEF"`

		uow.On("Begin", ctx).Return(ctx, nil)
		uow.On("Rollback", ctx).Return(nil)
		venueRepo.On("IsNameUnique", ctx, "Grand Ballroom Two", mock.Anything).Return(true, nil)
		venueRepo.On("GetByID", ctx, stored.ID()).Return(stored, nil)

		_, err := handler.Handle(ctx, UpdateVenueCommand{ID: stored.ID(), EntityTag: stale, Name: "Grand Ballroom Two"})

		var conflict *sharedDomain.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, stored.EntityTag(), conflict.Current)
		assert.Equal(t, stale, conflict.Provided)
		assert.Equal(t, "Grand Ballroom", stored.Name())
		venueRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("empty entity tag never matches", func(t *testing.T) {
		venueRepo := new(mockVenueRepo)
		uow := new(mockUnitOfWork)
		handler := NewUpdateVenueHandler(venueRepo, new(mockOutboxRepo), uow, nil)

		ctx := context.Background()
		stored := storedVenue("Grand Ballroom")

		uow.On("Begin", ctx).Return(ctx, nil)
		uow.On("Rollback", ctx).Return(nil)
		venueRepo.On("IsNameUnique", ctx, "Grand Ballroom", mock.Anything).Return(true, nil)
		venueRepo.On("GetByID", ctx, stored.ID()).Return(stored, nil)

		_, err := handler.Handle(ctx, UpdateVenueCommand{ID: stored.ID(), Name: "Grand Ballroom"})

		assert.ErrorIs(t, err, sharedDomain.ErrConflict)
	})

	t.Run("matches entity tag case-insensitively", func(t *testing.T) {
		venueRepo := new(mockVenueRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewUpdateVenueHandler(venueRepo, outboxRepo, uow, nil)

		ctx := context.Background()
		stored := storedVenue("Grand Ballroom")
		lower := strings.ToLower(stored.EntityTag())

		uow.On("Begin", ctx).Return(ctx, nil)
		uow.On("Commit", ctx).Return(nil)
		venueRepo.On("IsNameUnique", ctx, "Grand Ballroom", mock.Anything).Return(true, nil)
		venueRepo.On("GetByID", ctx, stored.ID()).Return(stored, nil)
		venueRepo.On("Update", ctx, stored).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.Anything).Return(nil)

		_, err := handler.Handle(ctx, UpdateVenueCommand{ID: stored.ID(), EntityTag: lower, Name: "Grand Ballroom"})

		assert.NoError(t, err)
	})

	t.Run("does not invalidate cache when commit fails", func(t *testing.T) {
		venueRepo := new(mockVenueRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		cache := new(mockInvalidator)
		handler := NewUpdateVenueHandler(venueRepo, outboxRepo, uow, cache)

		ctx := context.Background()
		stored := storedVenue("Grand Ballroom")
		commitErr := errors.New("commit failed")

		uow.On("Begin", ctx).Return(ctx, nil)
		uow.On("Commit", ctx).Return(commitErr)
		venueRepo.On("IsNameUnique", ctx, "Grand Ballroom East", mock.Anything).Return(true, nil)
		venueRepo.On("GetByID", ctx, stored.ID()).Return(stored, nil)
		venueRepo.On("Update", ctx, stored).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.Anything).Return(nil)

		_, err := handler.Handle(ctx, UpdateVenueCommand{ID: stored.ID(), EntityTag: stored.EntityTag(), Name: "Grand Ballroom East"})

		assert.ErrorIs(t, err, commitErr)
		cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})
}
