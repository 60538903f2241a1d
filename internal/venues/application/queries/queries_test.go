package queries

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	sharedDomain "github.com/felixgeelhaar/venues/internal/shared/domain"
	"github.com/felixgeelhaar/venues/internal/venues/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockVenueRepo is a mock implementation of domain.Repository.
type mockVenueRepo struct {
	mock.Mock
}

func (m *mockVenueRepo) GetAll(ctx context.Context) ([]*domain.Venue, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Venue), args.Error(1)
}

func (m *mockVenueRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Venue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Venue), args.Error(1)
}

func (m *mockVenueRepo) Create(ctx context.Context, v *domain.Venue) error {
	return m.Called(ctx, v).Error(0)
}

func (m *mockVenueRepo) Update(ctx context.Context, v *domain.Venue) error {
	return m.Called(ctx, v).Error(0)
}

func (m *mockVenueRepo) Remove(ctx context.Context, v *domain.Venue) error {
	return m.Called(ctx, v).Error(0)
}

func (m *mockVenueRepo) IsNameUnique(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

// mapCache is an in-memory VenueCache.
type mapCache struct {
	items map[uuid.UUID]VenueDTO
	sets  int
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[uuid.UUID]VenueDTO)}
}

func (c *mapCache) Get(_ context.Context, id uuid.UUID) (*VenueDTO, bool) {
	dto, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return &dto, true
}

func (c *mapCache) Set(_ context.Context, dto VenueDTO) {
	c.sets++
	c.items[dto.ID] = dto
}

func venueAt(name string, created time.Time) *domain.Venue {
	return domain.Rehydrate(uuid.New(), name, created, created.Add(time.Minute), false)
}

func TestGetVenueHandler_Handle(t *testing.T) {
	created := time.Date(2024, 2, 3, 4, 5, 6, 789000, time.UTC)

	t.Run("successfully returns venue", func(t *testing.T) {
		repo := new(mockVenueRepo)
		handler := NewGetVenueHandler(repo, nil)
		v := venueAt("Grand Ballroom", created)

		repo.On("GetByID", mock.Anything, v.ID()).Return(v, nil)

		dto, err := handler.Handle(context.Background(), GetVenueQuery{ID: v.ID()})

		require.NoError(t, err)
		assert.Equal(t, v.ID(), dto.ID)
		assert.Equal(t, "Grand Ballroom", dto.Name)
		assert.Equal(t, v.CreatedAt(), dto.CreatedDate)
		assert.Equal(t, v.ModifiedAt(), dto.ModifiedDate)
		assert.Equal(t, v.EntityTag(), dto.EntityTag())
		repo.AssertExpectations(t)
	})

	t.Run("returns not found", func(t *testing.T) {
		repo := new(mockVenueRepo)
		handler := NewGetVenueHandler(repo, nil)
		id := uuid.New()

		repo.On("GetByID", mock.Anything, id).Return(nil, sharedDomain.NewNotFoundError(domain.ResourceType, id))

		dto, err := handler.Handle(context.Background(), GetVenueQuery{ID: id})

		assert.Nil(t, dto)
		assert.ErrorIs(t, err, sharedDomain.ErrNotFound)
	})

	t.Run("reads through the cache", func(t *testing.T) {
		repo := new(mockVenueRepo)
		cache := newMapCache()
		handler := NewGetVenueHandler(repo, cache)
		v := venueAt("Grand Ballroom", created)

		repo.On("GetByID", mock.Anything, v.ID()).Return(v, nil).Once()

		first, err := handler.Handle(context.Background(), GetVenueQuery{ID: v.ID()})
		require.NoError(t, err)
		second, err := handler.Handle(context.Background(), GetVenueQuery{ID: v.ID()})
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, cache.sets)
		repo.AssertNumberOfCalls(t, "GetByID", 1)
	})

	t.Run("does not cache failures", func(t *testing.T) {
		repo := new(mockVenueRepo)
		cache := newMapCache()
		handler := NewGetVenueHandler(repo, cache)
		id := uuid.New()

		repo.On("GetByID", mock.Anything, id).Return(nil, errors.New("boom"))

		_, err := handler.Handle(context.Background(), GetVenueQuery{ID: id})

		assert.Error(t, err)
		assert.Zero(t, cache.sets)
	})
}

func TestListVenuesHandler_Handle(t *testing.T) {
	t.Run("returns venues in repository order", func(t *testing.T) {
		repo := new(mockVenueRepo)
		handler := NewListVenuesHandler(repo)
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		a := venueAt("Alpha Arena", base)
		b := venueAt("Bravo Bandstand", base.Add(time.Hour))

		repo.On("GetAll", mock.Anything).Return([]*domain.Venue{a, b}, nil)

		dtos, err := handler.Handle(context.Background(), ListVenuesQuery{})

		require.NoError(t, err)
		require.Len(t, dtos, 2)
		assert.Equal(t, a.ID(), dtos[0].ID)
		assert.Equal(t, b.ID(), dtos[1].ID)
	})

	t.Run("returns empty slice when none exist", func(t *testing.T) {
		repo := new(mockVenueRepo)
		handler := NewListVenuesHandler(repo)

		repo.On("GetAll", mock.Anything).Return([]*domain.Venue{}, nil)

		dtos, err := handler.Handle(context.Background(), ListVenuesQuery{})

		require.NoError(t, err)
		assert.NotNil(t, dtos)
		assert.Empty(t, dtos)
	})

	t.Run("returns repository error", func(t *testing.T) {
		repo := new(mockVenueRepo)
		handler := NewListVenuesHandler(repo)

		repo.On("GetAll", mock.Anything).Return(nil, errors.New("db down"))

		_, err := handler.Handle(context.Background(), ListVenuesQuery{})

		assert.EqualError(t, err, "db down")
	})
}

func TestVenueDTO_JSON(t *testing.T) {
	v := venueAt("Grand Ballroom", time.Date(2024, 2, 3, 4, 5, 6, 789000, time.UTC))
	dto := ToVenueDTO(v)

	raw, err := json.Marshal(dto)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.ElementsMatch(t, []string{"id", "name", "createdDate", "modifiedDate"}, keys(fields))

	var decoded VenueDTO
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, dto.EntityTag(), decoded.EntityTag())
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
