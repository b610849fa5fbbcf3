package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/suraksha-edu/risk-assessment-service/internal/health"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency. Watch for: p95/p99 increases, SLO breaches.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation.
	HTTPRequestsInFlight prometheus.Gauge

	// Provider call rate per endpoint (current/forecast/alerts).
	ProviderCallsTotal *prometheus.CounterVec

	// Provider latency per endpoint. Watch for: p95 > 2s (upstream degradation).
	ProviderCallDuration *prometheus.HistogramVec

	// Retry attempts for provider calls. High retries = unstable upstream.
	ProviderRetriesTotal prometheus.Counter

	// Cache hits per cache type.
	CacheHitsTotal *prometheus.CounterVec

	// Cache operation failures by operation and error category.
	CacheErrorsTotal *prometheus.CounterVec

	// Cache operation latency.
	CacheOperationDurationSeconds *prometheus.HistogramVec

	// Reports served from stale cache after total upstream failure.
	StaleReportServesTotal *prometheus.CounterVec

	// Age of stale reports at serve time.
	StaleReportAgeSeconds prometheus.Histogram

	// Risk assessments produced, by resulting overall risk level.
	RiskAssessmentsTotal *prometheus.CounterVec

	// Alerts classified, by normalized severity.
	AlertsClassifiedTotal *prometheus.CounterVec

	// Safety assessments produced, by overall safety level.
	SafetyAssessmentsTotal *prometheus.CounterVec

	// Total risk lookups. rate() for QPS.
	RiskQueriesTotal prometheus.Counter

	// Per-location query count (allow-list; others go to "other").
	RiskQueriesByLocationTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Cache warming runs, failures and duration.
	CacheWarmingTotal           prometheus.Counter
	CacheWarmingErrorsTotal     prometheus.Counter
	CacheWarmingDurationSeconds prometheus.Histogram

	// Circuit breaker transitions and current state per component.
	circuitBreakerTransitionsTotal *prometheus.CounterVec
	circuitBreakerState            *prometheus.GaugeVec

	// Request coalescing effectiveness.
	RequestCoalescingHitsTotal   *prometheus.CounterVec
	RequestCoalescingWaitSeconds prometheus.Histogram

	// Cache stampede detection: concurrent misses for one key.
	CacheStampedeDetectedTotal *prometheus.CounterVec
	CacheStampedeConcurrency   *prometheus.HistogramVec

	// In-flight requests observed at shutdown.
	shutdownInFlight prometheus.Gauge

	// trackedLocations is the allow-list for per-location metrics.
	trackedLocationsMu sync.RWMutex
	trackedLocations   map[string]struct{}

	rateLimitGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerCallsTotal",
			Help: "Total number of weather provider API calls",
		},
		[]string{"endpoint", "status"},
	)
	ProviderCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "providerCallDurationSeconds",
			Help:    "Weather provider API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "status"},
	)
	ProviderRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "providerRetriesTotal",
			Help: "Total number of retry attempts for provider API calls",
		},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of report cache hits",
		},
		[]string{"cacheType"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Cache operation failures by operation and error category",
		},
		[]string{"operation", "category"},
	)
	CacheOperationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cacheOperationDurationSeconds",
			Help:    "Cache operation latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"operation", "status"},
	)
	StaleReportServesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staleReportServesTotal",
			Help: "Reports served from stale cache after upstream failure",
		},
		[]string{"location"},
	)
	StaleReportAgeSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "staleReportAgeSeconds",
			Help:    "Age of stale reports at serve time",
			Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 14400},
		},
	)
	RiskAssessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskAssessmentsTotal",
			Help: "Risk assessments produced, by overall risk level",
		},
		[]string{"overallRisk"},
	)
	AlertsClassifiedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertsClassifiedTotal",
			Help: "Alerts classified, by normalized severity",
		},
		[]string{"severity"},
	)
	SafetyAssessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safetyAssessmentsTotal",
			Help: "Safety assessments produced, by overall safety level",
		},
		[]string{"overallSafety"},
	)
	RiskQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "riskQueriesTotal",
			Help: "Total number of risk lookups",
		},
	)
	RiskQueriesByLocationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskQueriesByLocationTotal",
			Help: "Risk queries by location (allow-list; others use location=other)",
		},
		[]string{"location"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	CacheWarmingTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingTotal",
			Help: "Cache warming runs",
		},
	)
	CacheWarmingErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingErrorsTotal",
			Help: "Cache warming runs with at least one failed location",
		},
	)
	CacheWarmingDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cacheWarmingDurationSeconds",
			Help:    "Cache warming run duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
	circuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions",
		},
		[]string{"component", "from", "to"},
	)
	circuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half_open)",
		},
		[]string{"component"},
	)
	RequestCoalescingHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requestCoalescingHitsTotal",
			Help: "Requests that piggybacked on an in-flight upstream fetch",
		},
		[]string{"location"},
	)
	RequestCoalescingWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "requestCoalescingWaitSeconds",
			Help:    "Time spent waiting on a coalesced upstream fetch",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)
	CacheStampedeDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheStampedeDetectedTotal",
			Help: "Cache misses that overlapped another miss for the same key",
		},
		[]string{"location"},
	)
	CacheStampedeConcurrency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cacheStampedeConcurrency",
			Help:    "Concurrent misses observed for one key",
			Buckets: []float64{2, 3, 5, 10, 25, 50},
		},
		[]string{"location"},
	)
	shutdownInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shutdownInFlightRequests",
			Help: "In-flight requests observed when graceful shutdown began",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		ProviderCallsTotal, ProviderCallDuration, ProviderRetriesTotal,
		CacheHitsTotal, CacheErrorsTotal, CacheOperationDurationSeconds,
		StaleReportServesTotal, StaleReportAgeSeconds,
		RiskAssessmentsTotal, AlertsClassifiedTotal, SafetyAssessmentsTotal,
		RiskQueriesTotal, RiskQueriesByLocationTotal,
		RateLimitDeniedTotal,
		CacheWarmingTotal, CacheWarmingErrorsTotal, CacheWarmingDurationSeconds,
		circuitBreakerTransitionsTotal, circuitBreakerState,
		RequestCoalescingHitsTotal, RequestCoalescingWaitSeconds,
		CacheStampedeDetectedTotal, CacheStampedeConcurrency,
		shutdownInFlight,
	)
}

// RegisterRateLimitGauges registers load and reject gauges over the health
// tracker's sliding window. Call once from main after config load.
func RegisterRateLimitGauges(window time.Duration) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting the rate-limited path in the sliding window",
				},
				func() float64 { return float64(health.TrafficCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in the sliding window",
				},
				func() float64 { return float64(health.DenialCount(window)) },
			),
		)
	})
}

// RecordCircuitBreakerTransition records a breaker state change.
func RecordCircuitBreakerTransition(component, from, to string) {
	circuitBreakerTransitionsTotal.WithLabelValues(component, from, to).Inc()
}

// SetCircuitBreakerStateGauge sets the breaker state gauge for a component.
func SetCircuitBreakerStateGauge(component string, state int) {
	circuitBreakerState.WithLabelValues(component).Set(float64(state))
}

// RecordShutdownInFlight records how many requests were in flight when
// shutdown began.
func RecordShutdownInFlight(count int64) {
	shutdownInFlight.Set(float64(count))
}

// SetTrackedLocations sets the allow-list for per-location metrics.
// Non-tracked locations increment "other".
func SetTrackedLocations(locations []string) {
	trackedLocationsMu.Lock()
	defer trackedLocationsMu.Unlock()
	trackedLocations = make(map[string]struct{}, len(locations))
	for _, loc := range locations {
		trackedLocations[normalizeLocationForMetrics(loc)] = struct{}{}
	}
}

// MetricLocationLabel resolves a location to its metric label: itself when
// tracked, "other" otherwise. Keeps label cardinality bounded.
func MetricLocationLabel(location string) string {
	loc := normalizeLocationForMetrics(location)
	trackedLocationsMu.RLock()
	_, ok := trackedLocations[loc]
	trackedLocationsMu.RUnlock()
	if ok {
		return loc
	}
	return "other"
}

// RecordRiskQuery records a risk lookup for the given location.
func RecordRiskQuery(location string) {
	RiskQueriesTotal.Inc()
	RiskQueriesByLocationTotal.WithLabelValues(MetricLocationLabel(location)).Inc()
}

func normalizeLocationForMetrics(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MetricsHandler returns an http.Handler serving application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
