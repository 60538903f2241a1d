package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/venues/internal/venues/application/commands"
	"github.com/felixgeelhaar/venues/internal/venues/application/queries"
	"github.com/felixgeelhaar/venues/pkg/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ queries.VenueCache             = (*MemoryVenueCache)(nil)
	_ commands.VenueCacheInvalidator = (*MemoryVenueCache)(nil)
	_ queries.VenueCache             = (*RedisVenueCache)(nil)
	_ commands.VenueCacheInvalidator = (*RedisVenueCache)(nil)
)

func sampleVenue() queries.VenueDTO {
	created := time.Date(2024, 7, 1, 8, 30, 0, 120000, time.UTC)
	return queries.VenueDTO{
		ID:           uuid.New(),
		Name:         "Grand Ballroom",
		CreatedDate:  created,
		ModifiedDate: created.Add(time.Hour),
	}
}

func TestMemoryVenueCache(t *testing.T) {
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	ctx := clock.WithTime(context.Background(), now)
	c := NewMemoryVenueCache(time.Minute)
	venue := sampleVenue()

	_, ok := c.Get(ctx, venue.ID)
	assert.False(t, ok)

	c.Set(ctx, venue)
	got, ok := c.Get(ctx, venue.ID)
	require.True(t, ok)
	assert.Equal(t, venue, *got)

	c.Invalidate(ctx, venue.ID)
	_, ok = c.Get(ctx, venue.ID)
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestMemoryVenueCache_Expiry(t *testing.T) {
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	c := NewMemoryVenueCache(time.Minute)
	venue := sampleVenue()

	c.Set(clock.WithTime(context.Background(), now), venue)

	_, ok := c.Get(clock.WithTime(context.Background(), now.Add(59*time.Second)), venue.ID)
	assert.True(t, ok)
	_, ok = c.Get(clock.WithTime(context.Background(), now.Add(time.Minute)), venue.ID)
	assert.False(t, ok)
}

func TestMemoryVenueCache_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryVenueCache(0)
	venue := sampleVenue()
	c.Set(ctx, venue)

	got, ok := c.Get(ctx, venue.ID)
	require.True(t, ok)
	got.Name = "Changed Name"

	again, _ := c.Get(ctx, venue.ID)
	assert.Equal(t, "Grand Ballroom", again.Name)
}

// TestRedisVenueCache needs a reachable server in REDIS_URL.
func TestRedisVenueCache(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()

	client, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisVenueCache(client, time.Minute, nil)
	venue := sampleVenue()

	_, ok := c.Get(ctx, venue.ID)
	assert.False(t, ok)

	c.Set(ctx, venue)
	got, ok := c.Get(ctx, venue.ID)
	require.True(t, ok)
	assert.Equal(t, venue.ID, got.ID)
	assert.Equal(t, venue.EntityTag(), got.EntityTag())

	ttl, err := client.TTL(ctx, venueKey(venue.ID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	c.Invalidate(ctx, venue.ID)
	_, ok = c.Get(ctx, venue.ID)
	assert.False(t, ok)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), "not a url")
	assert.Error(t, err)
}
