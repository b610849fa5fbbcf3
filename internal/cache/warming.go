package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/suraksha-edu/risk-assessment-service/internal/models"
	"github.com/suraksha-edu/risk-assessment-service/internal/observability"
)

// ReportFetcher is implemented by the service layer. Declared here so the
// warmer does not depend on the service package.
type ReportFetcher interface {
	AssessRisk(ctx context.Context, location string) (models.RiskReport, error)
}

// Warmer prefetches risk reports for a list of tracked locations so the
// first real request for each hits the cache.
type Warmer struct {
	fetcher ReportFetcher
	logger  *zap.Logger
}

// NewWarmer creates a Warmer over the given fetcher.
func NewWarmer(fetcher ReportFetcher, logger *zap.Logger) *Warmer {
	return &Warmer{fetcher: fetcher, logger: logger}
}

// Warm computes a report for each location concurrently; the fetcher's
// cache-aside path populates the cache as a side effect. Failed locations
// are aggregated into one error.
func (w *Warmer) Warm(ctx context.Context, locations []string) error {
	start := time.Now()
	observability.CacheWarmingTotal.Inc()
	if w.logger != nil {
		w.logger.Info("warming report cache", zap.Int("locations", len(locations)))
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(locations))
	for _, loc := range locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := w.fetcher.AssessRisk(ctx, loc); err != nil {
				errCh <- fmt.Errorf("warm %s: %w", loc, err)
			}
		}()
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	duration := time.Since(start).Seconds()
	observability.CacheWarmingDurationSeconds.Observe(duration)
	if w.logger != nil {
		w.logger.Info("report cache warming complete",
			zap.Int("locations", len(locations)),
			zap.Int("errors", len(errs)),
			zap.Float64("duration_seconds", duration))
	}
	if len(errs) > 0 {
		observability.CacheWarmingErrorsTotal.Inc()
		return fmt.Errorf("cache warming: %v", errs)
	}
	return nil
}

// WarmPeriodic runs an initial Warm, then refreshes at the given interval
// until ctx is done.
func (w *Warmer) WarmPeriodic(ctx context.Context, locations []string, interval time.Duration) error {
	if err := w.Warm(ctx, locations); err != nil && w.logger != nil {
		w.logger.Warn("initial cache warm failed", zap.Error(err))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Warm(ctx, locations); err != nil && w.logger != nil {
				w.logger.Warn("periodic cache warm failed", zap.Error(err))
			}
		}
	}
}
