package cache

import (
	"context"
	"time"

	"github.com/suraksha-edu/risk-assessment-service/internal/models"
)

// NoopCache is the Cache implementation used when no storage backend is
// available. Every read misses and every write succeeds without storing, so
// the service layer never has to branch on cache availability.
type NoopCache struct{}

// NewNoopCache returns the no-op cache.
func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

func (NoopCache) Get(ctx context.Context, key string) (models.RiskReport, bool, error) {
	return models.RiskReport{}, false, nil
}

func (NoopCache) GetStale(ctx context.Context, key string, maxStaleAge time.Duration) (models.RiskReport, bool, error) {
	return models.RiskReport{}, false, nil
}

func (NoopCache) Set(ctx context.Context, key string, value models.RiskReport, ttl time.Duration) error {
	return nil
}
