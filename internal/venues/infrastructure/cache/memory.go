package cache

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/venues/internal/venues/application/queries"
	"github.com/felixgeelhaar/venues/pkg/clock"
	"github.com/google/uuid"
)

type memoryEntry struct {
	venue     queries.VenueDTO
	expiresAt time.Time
}

// MemoryVenueCache is the in-process fallback used when Redis is not configured.
// It is only coherent for a single server process.
type MemoryVenueCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]memoryEntry
	ttl     time.Duration
}

// NewMemoryVenueCache creates an in-memory venue cache.
func NewMemoryVenueCache(ttl time.Duration) *MemoryVenueCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryVenueCache{entries: make(map[uuid.UUID]memoryEntry), ttl: ttl}
}

// Get returns the cached venue unless it has expired.
func (c *MemoryVenueCache) Get(ctx context.Context, id uuid.UUID) (*queries.VenueDTO, bool) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()

	if !ok || !clock.Now(ctx).Before(entry.expiresAt) {
		return nil, false
	}
	venue := entry.venue
	return &venue, true
}

// Set stores the venue.
func (c *MemoryVenueCache) Set(ctx context.Context, venue queries.VenueDTO) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[venue.ID] = memoryEntry{venue: venue, expiresAt: clock.Now(ctx).Add(c.ttl)}
}

// Invalidate removes the cached venue.
func (c *MemoryVenueCache) Invalidate(_ context.Context, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryVenueCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
