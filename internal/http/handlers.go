package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/suraksha-edu/risk-assessment-service/internal/client"
	"github.com/suraksha-edu/risk-assessment-service/internal/health"
	"github.com/suraksha-edu/risk-assessment-service/internal/service"
	"github.com/suraksha-edu/risk-assessment-service/internal/validation"
)

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	OverloadWindow         time.Duration
	OverloadThresholdPct   int
	RateLimitRPS           int
	RateLimitBurst         int // 0 when rate limiter disabled
	DegradedWindow         time.Duration
	DegradedErrorPct       int
	IdleWindow             time.Duration
	IdleThresholdReqPerMin int
	MinimumLifespan        time.Duration
	StartTime              time.Time
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	riskService      *service.RiskService
	client           client.ProviderClient
	healthConfig     *HealthConfig
	logger           *zap.Logger
	rateLimiter      *rate.Limiter
	locationMinLen   int
	locationMaxLen   int
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. locationMinLen/locationMaxLen bound the
// location path variable before it reaches the service.
func NewHandler(
	riskService *service.RiskService,
	providerClient client.ProviderClient,
	healthConfig *HealthConfig,
	logger *zap.Logger,
	rateLimiter *rate.Limiter,
	locationMinLen, locationMaxLen int,
) *Handler {
	return &Handler{
		riskService:    riskService,
		client:         providerClient,
		healthConfig:   healthConfig,
		logger:         logger,
		rateLimiter:    rateLimiter,
		locationMinLen: locationMinLen,
		locationMaxLen: locationMaxLen,
	}
}

// location validates the {location} path variable and writes the 400
// response itself on failure.
func (h *Handler) location(w http.ResponseWriter, r *http.Request) (string, bool) {
	loc, err := validation.ValidateLocation(mux.Vars(r)["location"], h.locationMinLen, h.locationMaxLen)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
		return "", false
	}
	return loc, true
}

// GetRisk handles GET /risk/{location}.
func (h *Handler) GetRisk(w http.ResponseWriter, r *http.Request) {
	location, ok := h.location(w, r)
	if !ok {
		return
	}

	health.RecordRequest()
	report, err := h.riskService.AssessRisk(r.Context(), location)
	if err != nil {
		health.RecordError()
		writeServiceError(w, r, err)
		return
	}
	health.RecordSuccess()
	writeEnvelope(w, http.StatusOK, report, report.Errors)
}

// GetAlerts handles GET /alerts/{location}.
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	location, ok := h.location(w, r)
	if !ok {
		return
	}

	health.RecordRequest()
	summary, err := h.riskService.GetDisasterAlerts(r.Context(), location)
	if err != nil {
		health.RecordError()
		writeServiceError(w, r, err)
		return
	}
	health.RecordSuccess()
	writeEnvelope(w, http.StatusOK, summary, nil)
}

// GetSafety handles GET /safety/{location}.
func (h *Handler) GetSafety(w http.ResponseWriter, r *http.Request) {
	location, ok := h.location(w, r)
	if !ok {
		return
	}

	health.RecordRequest()
	report, err := h.riskService.GetSafety(r.Context(), location)
	if err != nil {
		health.RecordError()
		writeServiceError(w, r, err)
		return
	}
	health.RecordSuccess()
	writeEnvelope(w, http.StatusOK, report, nil)
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if result.status == "degraded" {
		checks["weatherProvider"] = "unhealthy"
	} else {
		checks["weatherProvider"] = "healthy"
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "risk-assessment-service",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus determines the current health status by evaluating
// lifecycle conditions in priority order:
// shutting-down > API key invalid > overloaded > idle > degraded > healthy.
func (h *Handler) computeHealthStatus(ctx context.Context) healthResult {
	if health.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if err := h.client.ValidateAPIKey(ctx); err != nil {
		return healthResult{"degraded", http.StatusServiceUnavailable, "api_key_invalid"}
	}
	if h.healthConfig == nil {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	threshold := float64(h.healthConfig.RateLimitRPS) * h.healthConfig.OverloadWindow.Seconds() * float64(h.healthConfig.OverloadThresholdPct) / 100
	if threshold > 0 && float64(health.TrafficCount(h.healthConfig.OverloadWindow)) > threshold {
		return healthResult{"overloaded", http.StatusServiceUnavailable, "overload_threshold"}
	}
	if h.healthConfig.IdleWindow > 0 && h.healthConfig.MinimumLifespan > 0 && time.Since(h.healthConfig.StartTime) >= h.healthConfig.MinimumLifespan {
		if health.RequestCount(h.healthConfig.IdleWindow) < h.healthConfig.IdleThresholdReqPerMin {
			return healthResult{"idle", http.StatusOK, "low_traffic"}
		}
	}
	if h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		errCount, total := health.ErrorRate(h.healthConfig.DegradedWindow)
		if total > 0 {
			pct := float64(errCount) * 100 / float64(total)
			if pct >= float64(h.healthConfig.DegradedErrorPct) {
				return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
			}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeEnvelope writes a success envelope. sectionErrs carries per-section
// upstream failures for partial reports; omitted when empty.
func writeEnvelope(w http.ResponseWriter, status int, data interface{}, sectionErrs []string) {
	resp := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	if len(sectionErrs) > 0 {
		resp["errors"] = sectionErrs
	}
	writeJSON(w, status, resp)
}

// writeError writes an error response with code, message and requestId
// (correlation ID) if present in the request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// writeServiceError maps service errors to HTTP responses. Unknown
// locations get 404; everything else is a 503 with a generic message so
// provider details never leak to clients.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, client.ErrLocationNotFound) {
		writeError(w, r, http.StatusNotFound, "LOCATION_NOT_FOUND", "location not found")
	} else {
		writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Unable to fetch risk data")
	}
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Debug("upstream error", zap.Error(err))
	}
}
