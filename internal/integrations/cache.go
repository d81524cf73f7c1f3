package integrations

import (
	"context"
	"sync"
	"time"

	"github.com/aria-assistant/aria/internal/metrics"
)

// Cache keeps each user's integration list in memory for a short TTL so
// repeated resolutions during one conversation do not hammer the cloud
// store. Writes to an integration invalidate the owning user's entry.
type Cache struct {
	repo Repository
	ttl  time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	integrations []Integration
	fetchedAt    time.Time
}

const DefaultCacheTTL = 30 * time.Second

func NewCache(repo Repository, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		repo:    repo,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// List returns the user's integrations, from cache when fresh.
func (c *Cache) List(ctx context.Context, userID string) ([]Integration, error) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < c.ttl {
		metrics.IntegrationCacheHits.WithLabelValues("hit").Inc()
		return entry.integrations, nil
	}

	metrics.IntegrationCacheHits.WithLabelValues("miss").Inc()
	integrations, err := c.repo.List(ctx, userID)
	if err != nil {
		// A stale entry beats an error for read paths.
		if ok {
			return entry.integrations, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.entries[userID] = cacheEntry{integrations: integrations, fetchedAt: time.Now()}
	c.mu.Unlock()
	return integrations, nil
}

// Invalidate drops the user's cached list. Called after every write so the
// next resolution sees the change immediately.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}
