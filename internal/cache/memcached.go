package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/suraksha-edu/risk-assessment-service/internal/models"
)

const keyPrefix = "risk:"

// memcachedEntry is the stored envelope. Logical expiry lives here so that
// entries can outlive their TTL inside memcached and still serve the stale
// fallback path.
type memcachedEntry struct {
	Report    models.RiskReport `json:"report"`
	StoredAt  time.Time         `json:"stored_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// MemcachedCache implements Cache on memcached.
type MemcachedCache struct {
	client         *memcache.Client
	staleRetention time.Duration
}

// NewMemcachedCache creates a MemcachedCache. addrs is a comma-separated
// server list. staleRetention is how long past the logical TTL entries stay
// retrievable via GetStale; it should be at least the service's stale TTL.
func NewMemcachedCache(addrs string, timeout time.Duration, maxIdleConns int, staleRetention time.Duration) (*MemcachedCache, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	if staleRetention <= 0 {
		staleRetention = time.Hour
	}
	return &MemcachedCache{client: client, staleRetention: staleRetention}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (c *MemcachedCache) key(k string) string {
	return keyPrefix + k
}

// Get returns a cached report that has not passed its logical expiry.
func (c *MemcachedCache) Get(ctx context.Context, key string) (models.RiskReport, bool, error) {
	entry, ok, err := c.fetch(ctx, key)
	if err != nil || !ok {
		return models.RiskReport{}, false, err
	}
	if time.Now().After(entry.ExpiresAt) {
		return models.RiskReport{}, false, nil
	}
	return entry.Report, true, nil
}

// GetStale returns a cached report regardless of logical expiry, as long as
// it was stored no more than maxStaleAge ago.
func (c *MemcachedCache) GetStale(ctx context.Context, key string, maxStaleAge time.Duration) (models.RiskReport, bool, error) {
	entry, ok, err := c.fetch(ctx, key)
	if err != nil || !ok {
		return models.RiskReport{}, false, err
	}
	if time.Since(entry.StoredAt) > maxStaleAge {
		return models.RiskReport{}, false, nil
	}
	return entry.Report, true, nil
}

func (c *MemcachedCache) fetch(ctx context.Context, key string) (memcachedEntry, bool, error) {
	if ctx.Err() != nil {
		return memcachedEntry{}, false, ctx.Err()
	}
	item, err := c.client.Get(c.key(key))
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return memcachedEntry{}, false, nil
		}
		return memcachedEntry{}, false, err
	}
	var entry memcachedEntry
	if err := json.Unmarshal(item.Value, &entry); err != nil {
		return memcachedEntry{}, false, err
	}
	return entry, true, nil
}

// Set stores the report. The memcached expiration covers TTL plus the stale
// retention window so expired entries remain available to GetStale.
func (c *MemcachedCache) Set(ctx context.Context, key string, value models.RiskReport, ttl time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	now := time.Now()
	raw, err := json.Marshal(memcachedEntry{
		Report:    value,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return err
	}

	expSec := int32((ttl + c.staleRetention).Seconds())
	const maxRelativeExp = 30 * 24 * 60 * 60 // memcached treats larger values as unix timestamps
	if expSec <= 0 || expSec > maxRelativeExp {
		expSec = 3600
	}
	return c.client.Set(&memcache.Item{
		Key:        c.key(key),
		Value:      raw,
		Expiration: expSec,
	})
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *MemcachedCache) Ping() error {
	return c.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (c *MemcachedCache) Close() error {
	return c.client.Close()
}
