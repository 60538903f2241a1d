package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/venues/internal/venues/application/queries"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a stale entry can survive a missed invalidation.
const DefaultTTL = 5 * time.Minute

// RedisVenueCache stores venue read models in Redis under venues:venue:{id}.
type RedisVenueCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisVenueCache creates a Redis-backed venue cache.
func NewRedisVenueCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisVenueCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisVenueCache{client: client, ttl: ttl, logger: logger}
}

func venueKey(id uuid.UUID) string {
	return fmt.Sprintf("venues:venue:%s", id)
}

// Get returns the cached venue, treating any Redis failure as a miss.
func (c *RedisVenueCache) Get(ctx context.Context, id uuid.UUID) (*queries.VenueDTO, bool) {
	raw, err := c.client.Get(ctx, venueKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("venue cache read failed", "venue_id", id, "error", err)
		return nil, false
	}

	var dto queries.VenueDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		c.logger.Warn("venue cache entry unreadable", "venue_id", id, "error", err)
		c.Invalidate(ctx, id)
		return nil, false
	}
	return &dto, true
}

// Set stores the venue with the configured TTL.
func (c *RedisVenueCache) Set(ctx context.Context, venue queries.VenueDTO) {
	raw, err := json.Marshal(venue)
	if err != nil {
		c.logger.Warn("venue cache encode failed", "venue_id", venue.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, venueKey(venue.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("venue cache write failed", "venue_id", venue.ID, "error", err)
	}
}

// Invalidate removes the cached venue.
func (c *RedisVenueCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, venueKey(id)).Err(); err != nil {
		c.logger.Warn("venue cache invalidation failed", "venue_id", id, "error", err)
	}
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}
