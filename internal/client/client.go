package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/suraksha-edu/risk-assessment-service/internal/circuitbreaker"
	"github.com/suraksha-edu/risk-assessment-service/internal/models"
	"github.com/suraksha-edu/risk-assessment-service/internal/observability"
)

// ProviderClient is the upstream weather/alert provider surface consumed by
// the service layer. All three data sections come from the same provider but
// are independent calls, so the service can fan them out and tolerate
// partial failure.
type ProviderClient interface {
	GetCurrentConditions(ctx context.Context, location string) (models.CurrentConditions, error)
	GetForecast(ctx context.Context, location string, days int) ([]models.ForecastDay, error)
	GetAlerts(ctx context.Context, location string) ([]models.RawAlert, error)
	ValidateAPIKey(ctx context.Context) error
}

var (
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrLocationNotFound = errors.New("location not found")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrRateLimited      = errors.New("rate limited")
)

// MaxForecastDays is the provider-side cap on forecast length; requests for
// more days are clamped, not rejected.
const MaxForecastDays = 14

// alertsWindowDays bounds the alert fetch to a one-day window.
const alertsWindowDays = 1

// Metric endpoint labels.
const (
	endpointCurrent  = "current"
	endpointForecast = "forecast"
	endpointAlerts   = "alerts"
)

// WeatherAPIClient talks to a WeatherAPI.com-compatible provider. Calls are
// retried with exponential backoff and jitter; an optional circuit breaker
// wraps every request.
type WeatherAPIClient struct {
	apiKey         string
	apiURL         string
	timeout        time.Duration
	client         *http.Client
	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
	breaker        *circuitbreaker.CircuitBreaker
}

// NewWeatherAPIClient creates a client with default retry settings.
func NewWeatherAPIClient(apiKey, apiURL string, timeout time.Duration) (*WeatherAPIClient, error) {
	return NewWeatherAPIClientWithRetry(apiKey, apiURL, timeout, 3, 100*time.Millisecond, 2*time.Second)
}

// NewWeatherAPIClientWithRetry creates a client with explicit retry settings.
func NewWeatherAPIClientWithRetry(apiKey, apiURL string, timeout time.Duration, retryAttempts int, retryBaseDelay, retryMaxDelay time.Duration) (*WeatherAPIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(apiKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}
	return &WeatherAPIClient{
		apiKey:         apiKey,
		apiURL:         strings.TrimRight(apiURL, "/"),
		timeout:        timeout,
		retryAttempts:  retryAttempts,
		retryBaseDelay: retryBaseDelay,
		retryMaxDelay:  retryMaxDelay,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SetCircuitBreaker installs a breaker around all provider calls.
func (c *WeatherAPIClient) SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	c.breaker = cb
}

// Wire format of the provider responses. Only the fields the engine reads
// are declared.

type apiCondition struct {
	Text string `json:"text"`
}

type apiCurrent struct {
	LastUpdatedEpoch int64        `json:"last_updated_epoch"`
	TempC            float64      `json:"temp_c"`
	FeelsLikeC       float64      `json:"feelslike_c"`
	Humidity         int          `json:"humidity"`
	WindKph          float64      `json:"wind_kph"`
	VisKm            float64      `json:"vis_km"`
	UV               float64      `json:"uv"`
	PrecipMm         float64      `json:"precip_mm"`
	Condition        apiCondition `json:"condition"`
	AirQuality       struct {
		USEPAIndex int `json:"us-epa-index"`
	} `json:"air_quality"`
}

type apiForecastDay struct {
	Date string `json:"date"`
	Day  struct {
		MaxTempC      float64      `json:"maxtemp_c"`
		MinTempC      float64      `json:"mintemp_c"`
		TotalPrecipMm float64      `json:"totalprecip_mm"`
		MaxWindKph    float64      `json:"maxwind_kph"`
		ChanceOfRain  int          `json:"daily_chance_of_rain"`
		Condition     apiCondition `json:"condition"`
	} `json:"day"`
}

type apiResponse struct {
	Current  *apiCurrent `json:"current"`
	Forecast struct {
		ForecastDay []apiForecastDay `json:"forecastday"`
	} `json:"forecast"`
	Alerts struct {
		Alert []models.RawAlert `json:"alert"`
	} `json:"alerts"`
}

// GetCurrentConditions fetches the live readings for a location, including
// air quality when the provider reports it.
func (c *WeatherAPIClient) GetCurrentConditions(ctx context.Context, location string) (models.CurrentConditions, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("aqi", "yes")

	var resp apiResponse
	if err := c.callWithRetry(ctx, endpointCurrent, "current.json", params, &resp); err != nil {
		return models.CurrentConditions{}, err
	}
	if resp.Current == nil {
		return models.CurrentConditions{}, fmt.Errorf("parse response: missing current block")
	}
	return mapCurrent(resp.Current), nil
}

// GetForecast fetches up to days of daily forecast records. days is clamped
// to [1, MaxForecastDays].
func (c *WeatherAPIClient) GetForecast(ctx context.Context, location string, days int) ([]models.ForecastDay, error) {
	if days < 1 {
		days = 1
	}
	if days > MaxForecastDays {
		days = MaxForecastDays
	}
	params := url.Values{}
	params.Set("q", location)
	params.Set("days", strconv.Itoa(days))

	var resp apiResponse
	if err := c.callWithRetry(ctx, endpointForecast, "forecast.json", params, &resp); err != nil {
		return nil, err
	}

	out := make([]models.ForecastDay, 0, len(resp.Forecast.ForecastDay))
	for _, fd := range resp.Forecast.ForecastDay {
		out = append(out, models.ForecastDay{
			Date:          fd.Date,
			MaxTempC:      fd.Day.MaxTempC,
			MinTempC:      fd.Day.MinTempC,
			TotalPrecipMm: fd.Day.TotalPrecipMm,
			MaxWindKph:    fd.Day.MaxWindKph,
			Condition:     fd.Day.Condition.Text,
			ChanceOfRain:  fd.Day.ChanceOfRain,
		})
	}
	return out, nil
}

// GetAlerts fetches the CAP alerts active for a location within a one-day
// window. The provider only exposes alerts on the forecast endpoint.
func (c *WeatherAPIClient) GetAlerts(ctx context.Context, location string) ([]models.RawAlert, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("days", strconv.Itoa(alertsWindowDays))
	params.Set("alerts", "yes")

	var resp apiResponse
	if err := c.callWithRetry(ctx, endpointAlerts, "forecast.json", params, &resp); err != nil {
		return nil, err
	}
	return resp.Alerts.Alert, nil
}

// ValidateAPIKey issues a minimal current-conditions request to confirm the
// key is accepted. Used by the health handler.
func (c *WeatherAPIClient) ValidateAPIKey(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	params := url.Values{}
	params.Set("q", "London")
	req, err := c.buildRequest(ctx, "current.json", params)
	if err != nil {
		return fmt.Errorf("build validation request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("validation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: API key is invalid or not activated", ErrInvalidAPIKey)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("validation failed: HTTP %d", resp.StatusCode)
	}
	return nil
}

// callWithRetry runs one provider call through the retry loop and the
// breaker, decoding the JSON body into out on success.
func (c *WeatherAPIClient) callWithRetry(ctx context.Context, endpoint, path string, params url.Values, out *apiResponse) error {
	var lastErr error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			observability.ProviderRetriesTotal.Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.calculateBackoff(attempt)):
			}
		}

		var err error
		if c.breaker != nil {
			err = c.breaker.Call(ctx, func() error {
				return c.callAPI(ctx, endpoint, path, params, out)
			})
		} else {
			err = c.callAPI(ctx, endpoint, path, params, out)
		}
		if err == nil {
			return nil
		}

		lastErr = err
		if !isRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("exhausted retries: %w", lastErr)
}

func (c *WeatherAPIClient) callAPI(ctx context.Context, endpoint, path string, params url.Values, out *apiResponse) error {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, path, params)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("build request: %w", err)
	}

	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.ProviderCallsTotal.WithLabelValues(endpoint, "error").Inc()
		observability.ProviderCallDuration.WithLabelValues(endpoint, "error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("request timeout: %w", err)
		}
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.ProviderCallsTotal.WithLabelValues(endpoint, status).Inc()
	observability.ProviderCallDuration.WithLabelValues(endpoint, status).Observe(duration)

	if err := c.handleErrorResponse(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *WeatherAPIClient) buildRequest(ctx context.Context, path string, params url.Values) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL + "/" + path)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	params.Set("key", c.apiKey)
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// handleErrorResponse maps provider HTTP statuses to sentinel errors. The
// provider reports unknown locations as 400.
func (c *WeatherAPIClient) handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w", ErrLocationNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: invalid API key", ErrInvalidAPIKey)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}
	return nil
}

func (c *WeatherAPIClient) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.retryMaxDelay) {
		delay = float64(c.retryMaxDelay)
	}
	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamFailure) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "context canceled")
}

func mapCurrent(cur *apiCurrent) models.CurrentConditions {
	observed := time.Now()
	if cur.LastUpdatedEpoch > 0 {
		observed = time.Unix(cur.LastUpdatedEpoch, 0).UTC()
	}
	return models.CurrentConditions{
		TempC:           cur.TempC,
		FeelsLikeC:      cur.FeelsLikeC,
		Humidity:        cur.Humidity,
		WindKph:         cur.WindKph,
		VisKm:           cur.VisKm,
		UV:              cur.UV,
		PrecipMm:        cur.PrecipMm,
		Condition:       cur.Condition.Text,
		AirQualityIndex: cur.AirQuality.USEPAIndex,
		ObservedAt:      observed,
	}
}

func extractCorrelationID(ctx context.Context) string {
	if v := ctx.Value("correlation_id"); v != nil {
		if corrID, ok := v.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
