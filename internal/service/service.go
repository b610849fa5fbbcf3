package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/suraksha-edu/risk-assessment-service/internal/cache"
	"github.com/suraksha-edu/risk-assessment-service/internal/client"
	"github.com/suraksha-edu/risk-assessment-service/internal/models"
	"github.com/suraksha-edu/risk-assessment-service/internal/observability"
	"github.com/suraksha-edu/risk-assessment-service/internal/risk"
)

// ErrUpstreamUnavailable is returned when every upstream section of a risk
// report failed and no stale cache entry could cover for it.
var ErrUpstreamUnavailable = errors.New("all upstream sections failed")

// Section names used in a report's partial-failure list.
const (
	sectionCurrent  = "current_conditions"
	sectionForecast = "forecast"
	sectionAlerts   = "alerts"
)

// RiskService orchestrates risk report generation: cache-aside over the
// advisory report cache, fan-out to the three upstream sections, the pure
// risk engine, and stale-cache fallback when upstream is down entirely.
type RiskService struct {
	client          client.ProviderClient
	cache           cache.Cache
	ttl             time.Duration
	staleCacheTTL   time.Duration // max age for stale fallback (0 = disabled)
	forecastDays    int
	stampedeTracker *stampedeTracker
	coalescer       *reportCoalescer // nil when coalescing disabled
}

// NewRiskService creates a RiskService. forecastDays is the forecast depth
// requested upstream; coalescing is disabled when coalesceTimeout is 0.
func NewRiskService(providerClient client.ProviderClient, reportCache cache.Cache, ttl, staleCacheTTL time.Duration, forecastDays int, coalesceEnabled bool, coalesceTimeout time.Duration) *RiskService {
	var coalescer *reportCoalescer
	if coalesceEnabled && coalesceTimeout > 0 {
		coalescer = newReportCoalescer(coalesceTimeout)
	}
	if forecastDays <= 0 {
		forecastDays = 3
	}
	return &RiskService{
		client:          providerClient,
		cache:           reportCache,
		ttl:             ttl,
		staleCacheTTL:   staleCacheTTL,
		forecastDays:    forecastDays,
		stampedeTracker: newStampedeTracker(),
		coalescer:       coalescer,
	}
}

// loggerFromContext extracts the request-scoped zap.Logger if present.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// AssessRisk returns the risk report for a location using the cache-aside
// pattern. On a miss it fans out the three upstream fetches, runs the risk
// engine over whatever succeeded, and caches the result best-effort. When
// every section fails it serves a stale cached report if one is young
// enough, else returns ErrUpstreamUnavailable wrapped with context.
func (s *RiskService) AssessRisk(ctx context.Context, location string) (models.RiskReport, error) {
	key := normalizeLocation(location)
	start := time.Now()
	logger := loggerFromContext(ctx)
	observability.RecordRiskQuery(key)

	getStart := time.Now()
	cached, ok, err := s.cache.Get(ctx, key)
	getDuration := time.Since(getStart).Seconds()
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get", categorizeCacheError(err)).Inc()
		observability.CacheOperationDurationSeconds.WithLabelValues("get", "error").Observe(getDuration)
	} else if ok {
		observability.CacheOperationDurationSeconds.WithLabelValues("get", "success").Observe(getDuration)
		observability.CacheHitsTotal.WithLabelValues("risk_report").Inc()
		if logger != nil {
			logger.Debug("report cache hit", zap.String("location", key))
		}
		return cached, nil
	}

	concurrentMisses := s.stampedeTracker.RecordMiss(key)
	defer s.stampedeTracker.RecordHit(key)
	locLabel := observability.MetricLocationLabel(key)
	if concurrentMisses > 1 {
		observability.CacheStampedeDetectedTotal.WithLabelValues(locLabel).Inc()
		observability.CacheStampedeConcurrency.WithLabelValues(locLabel).Observe(float64(concurrentMisses))
	}

	if logger != nil {
		logger.Debug("report cache miss, fetching upstream", zap.String("location", key))
	}

	var report models.RiskReport
	var buildErr error
	if s.coalescer != nil {
		coalesceStart := time.Now()
		report, buildErr = s.coalescer.GetOrDo(ctx, key, func() (models.RiskReport, error) {
			return s.buildReport(ctx, key)
		})
		coalesceWait := time.Since(coalesceStart)
		if buildErr == nil {
			if coalesceWait > 10*time.Millisecond {
				observability.RequestCoalescingHitsTotal.WithLabelValues(locLabel).Inc()
			}
			observability.RequestCoalescingWaitSeconds.Observe(coalesceWait.Seconds())
		}
	} else {
		report, buildErr = s.buildReport(ctx, key)
	}
	if buildErr != nil {
		// A stale report cannot answer for a location the provider does not
		// recognize.
		if s.staleCacheTTL > 0 && !errors.Is(buildErr, client.ErrLocationNotFound) {
			stale, ok, staleErr := s.cache.GetStale(ctx, key, s.staleCacheTTL)
			if staleErr == nil && ok {
				staleAge := time.Since(stale.LastUpdated)
				observability.StaleReportServesTotal.WithLabelValues(locLabel).Inc()
				observability.StaleReportAgeSeconds.Observe(staleAge.Seconds())
				stale.Stale = true
				if logger != nil {
					logger.Info("serving stale report", zap.String("location", key), zap.Duration("age", staleAge))
				}
				return stale, nil
			}
		}
		return models.RiskReport{}, fmt.Errorf("assess risk for %s: %w", key, buildErr)
	}

	setStart := time.Now()
	if setErr := s.cache.Set(ctx, key, report, s.ttl); setErr != nil {
		// Advisory cache: the write failure is recorded and the fresh
		// report is served regardless.
		observability.CacheErrorsTotal.WithLabelValues("set", categorizeCacheError(setErr)).Inc()
		observability.CacheOperationDurationSeconds.WithLabelValues("set", "error").Observe(time.Since(setStart).Seconds())
		if logger != nil {
			logger.Warn("report cache set failed", zap.String("location", key), zap.Error(setErr))
		}
	} else {
		observability.CacheOperationDurationSeconds.WithLabelValues("set", "success").Observe(time.Since(setStart).Seconds())
	}
	if logger != nil {
		logger.Debug("risk report served",
			zap.String("location", key),
			zap.String("overall_risk", string(report.RiskAssessment.OverallRisk)),
			zap.Int("failed_sections", len(report.Errors)),
			zap.Duration("duration", time.Since(start)))
	}
	return report, nil
}

// buildReport fans out the three upstream fetches, settles all of them, and
// runs the risk engine over whatever arrived. Individual failures become
// entries in the report's Errors list; only the loss of all three sections
// is an error.
func (s *RiskService) buildReport(ctx context.Context, key string) (models.RiskReport, error) {
	var (
		current     *models.CurrentConditions
		forecast    []models.ForecastDay
		rawAlerts   []models.RawAlert
		errCurrent  error
		errForecast error
		errAlerts   error
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		c, err := s.client.GetCurrentConditions(ctx, key)
		if err != nil {
			errCurrent = err
			return
		}
		current = &c
	}()
	go func() {
		defer wg.Done()
		forecast, errForecast = s.client.GetForecast(ctx, key, s.forecastDays)
	}()
	go func() {
		defer wg.Done()
		rawAlerts, errAlerts = s.client.GetAlerts(ctx, key)
	}()
	wg.Wait()

	var sectionErrs []string
	for _, fe := range []struct {
		section string
		err     error
	}{
		{sectionCurrent, errCurrent},
		{sectionForecast, errForecast},
		{sectionAlerts, errAlerts},
	} {
		if fe.err != nil {
			// An unknown location fails every section the same way; keep
			// the sentinel identity so the handler can answer 404.
			if errors.Is(fe.err, client.ErrLocationNotFound) {
				return models.RiskReport{}, fmt.Errorf("location %q: %w", key, client.ErrLocationNotFound)
			}
			sectionErrs = append(sectionErrs, fmt.Sprintf("%s: %v", fe.section, fe.err))
		}
	}
	if len(sectionErrs) == 3 {
		return models.RiskReport{}, fmt.Errorf("%w: %s", ErrUpstreamUnavailable, strings.Join(sectionErrs, "; "))
	}

	classified := risk.ClassifyAlerts(rawAlerts)
	for _, a := range classified {
		observability.AlertsClassifiedTotal.WithLabelValues(string(a.SeverityLevel)).Inc()
	}
	forecastRisks := risk.ExtractForecastRisks(forecast)
	assessment := risk.GenerateRiskAssessment(current, classified, forecastRisks)
	observability.RiskAssessmentsTotal.WithLabelValues(string(assessment.OverallRisk)).Inc()

	return models.RiskReport{
		Location:          key,
		CurrentConditions: current,
		ActiveAlerts:      classified,
		ForecastAlerts:    forecastRisks,
		RiskAssessment:    &assessment,
		LastUpdated:       time.Now().UTC(),
		Errors:            sectionErrs,
	}, nil
}

// GetDisasterAlerts fetches and classifies the active alerts for a
// location. Unlike the report path, an upstream failure here is terminal:
// the caller owns fallback policy.
func (s *RiskService) GetDisasterAlerts(ctx context.Context, location string) (models.AlertSummary, error) {
	key := normalizeLocation(location)
	rawAlerts, err := s.client.GetAlerts(ctx, key)
	if err != nil {
		return models.AlertSummary{}, fmt.Errorf("fetch alerts for %s: %w", key, err)
	}

	classified := risk.ClassifyAlerts(rawAlerts)
	for _, a := range classified {
		observability.AlertsClassifiedTotal.WithLabelValues(string(a.SeverityLevel)).Inc()
	}
	return models.AlertSummary{
		Location:        key,
		Alerts:          classified,
		AlertCount:      len(classified),
		HighestSeverity: risk.HighestSeverity(classified),
		HasActiveAlerts: len(classified) > 0,
		LastUpdated:     time.Now().UTC(),
	}, nil
}

// GetSafety fetches current conditions and assesses them against the
// instantaneous safety thresholds.
func (s *RiskService) GetSafety(ctx context.Context, location string) (models.SafetyReport, error) {
	key := normalizeLocation(location)
	current, err := s.client.GetCurrentConditions(ctx, key)
	if err != nil {
		return models.SafetyReport{}, fmt.Errorf("fetch conditions for %s: %w", key, err)
	}

	assessment := risk.AssessWeatherSafety(&current)
	observability.SafetyAssessmentsTotal.WithLabelValues(string(assessment.OverallSafety)).Inc()
	return models.SafetyReport{
		Location:          key,
		CurrentConditions: &current,
		SafetyAssessment:  assessment,
		LastUpdated:       time.Now().UTC(),
	}, nil
}

// categorizeCacheError returns a stable label for cache error metrics.
func categorizeCacheError(err error) string {
	if err == nil {
		return "unknown"
	}
	errStr := err.Error()
	if strings.Contains(errStr, "timeout") {
		return "timeout"
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") {
		return "connection"
	}
	return "unknown"
}

// normalizeLocation trims and lower-cases the location so cache keys and
// provider requests are consistent regardless of input format.
func normalizeLocation(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}
