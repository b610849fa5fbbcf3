package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/suraksha-edu/risk-assessment-service/internal/models"
)

// Cache is the advisory report cache capability. Implementations must treat
// failures as non-fatal: the service layer logs and continues, it never
// fails a request because of the cache. GetStale serves the fallback path
// when upstream is down, returning expired entries up to maxStaleAge old.
type Cache interface {
	Get(ctx context.Context, key string) (models.RiskReport, bool, error)
	GetStale(ctx context.Context, key string, maxStaleAge time.Duration) (models.RiskReport, bool, error)
	Set(ctx context.Context, key string, value models.RiskReport, ttl time.Duration) error
}

// InMemoryCache implements Cache with a TTL map. The clock is injected so
// expiry is testable without sleeping.
type InMemoryCache struct {
	mu    sync.Mutex
	clock clockwork.Clock
	data  map[string]cacheEntry
}

type cacheEntry struct {
	value     models.RiskReport
	storedAt  time.Time
	expiresAt time.Time
}

// NewInMemoryCache creates an in-memory cache on the real clock.
func NewInMemoryCache() *InMemoryCache {
	return NewInMemoryCacheWithClock(clockwork.NewRealClock())
}

// NewInMemoryCacheWithClock creates an in-memory cache on the given clock.
func NewInMemoryCacheWithClock(clock clockwork.Clock) *InMemoryCache {
	return &InMemoryCache{
		clock: clock,
		data:  make(map[string]cacheEntry),
	}
}

// Get returns the cached report if present and not expired. Expired entries
// are kept for GetStale rather than deleted on access.
func (c *InMemoryCache) Get(ctx context.Context, key string) (models.RiskReport, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return models.RiskReport{}, false, nil
	}
	if c.clock.Now().After(entry.expiresAt) {
		return models.RiskReport{}, false, nil
	}
	return entry.value, true, nil
}

// GetStale returns the cached report even when expired, as long as it was
// stored no more than maxStaleAge ago.
func (c *InMemoryCache) GetStale(ctx context.Context, key string, maxStaleAge time.Duration) (models.RiskReport, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return models.RiskReport{}, false, nil
	}
	if c.clock.Now().Sub(entry.storedAt) > maxStaleAge {
		delete(c.data, key)
		return models.RiskReport{}, false, nil
	}
	return entry.value, true, nil
}

// Set stores the report with the given TTL.
func (c *InMemoryCache) Set(ctx context.Context, key string, value models.RiskReport, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.data[key] = cacheEntry{
		value:     value,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
	return nil
}
