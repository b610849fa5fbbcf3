package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/suraksha-edu/risk-assessment-service/internal/circuitbreaker"
)

func TestNewWeatherAPIClient_APIKeyValidation(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		wantErr error
	}{
		{
			name:    "empty API key",
			apiKey:  "",
			wantErr: ErrInvalidAPIKey,
		},
		{
			name:    "too short API key",
			apiKey:  "short",
			wantErr: ErrInvalidAPIKey,
		},
		{
			name:    "valid API key",
			apiKey:  "valid-api-key-12345",
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewWeatherAPIClient(tt.apiKey, "https://api.test.com", 2*time.Second)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("NewWeatherAPIClient() expected error, got nil")
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewWeatherAPIClient() error = %v, want %v", err, tt.wantErr)
				}
				if client != nil {
					t.Errorf("NewWeatherAPIClient() expected nil client on error")
				}
			} else {
				if err != nil {
					t.Fatalf("NewWeatherAPIClient() unexpected error: %v", err)
				}
				if client == nil {
					t.Fatalf("NewWeatherAPIClient() expected client, got nil")
				}
			}
		})
	}
}

func TestGetCurrentConditions_Success(t *testing.T) {
	apiResp := map[string]interface{}{
		"current": map[string]interface{}{
			"last_updated_epoch": 1756425600,
			"temp_c":             31.5,
			"feelslike_c":        35.0,
			"humidity":           70,
			"wind_kph":           12.2,
			"vis_km":             10.0,
			"uv":                 7.0,
			"precip_mm":          0.4,
			"condition":          map[string]interface{}{"text": "Partly cloudy"},
			"air_quality":        map[string]interface{}{"us-epa-index": 2},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/current.json") {
			t.Errorf("expected current.json path, got %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "delhi" {
			t.Errorf("q = %q, want delhi", q.Get("q"))
		}
		if q.Get("aqi") != "yes" {
			t.Errorf("expected aqi=yes, got %q", q.Get("aqi"))
		}
		if q.Get("key") == "" {
			t.Errorf("expected API key in query")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(apiResp)
	}))
	defer server.Close()

	client, err := NewWeatherAPIClient("test-api-key-12345", server.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("NewWeatherAPIClient() error = %v", err)
	}

	got, err := client.GetCurrentConditions(context.Background(), "delhi")
	if err != nil {
		t.Fatalf("GetCurrentConditions() error = %v", err)
	}
	if got.TempC != 31.5 {
		t.Errorf("TempC = %f, want 31.5", got.TempC)
	}
	if got.Condition != "Partly cloudy" {
		t.Errorf("Condition = %q, want %q", got.Condition, "Partly cloudy")
	}
	if got.AirQualityIndex != 2 {
		t.Errorf("AirQualityIndex = %d, want 2", got.AirQualityIndex)
	}
	wantObserved := time.Unix(1756425600, 0).UTC()
	if !got.ObservedAt.Equal(wantObserved) {
		t.Errorf("ObservedAt = %v, want %v", got.ObservedAt, wantObserved)
	}
}

func TestGetCurrentConditions_MissingCurrentBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, _ := NewWeatherAPIClient("test-api-key-12345", server.URL, 2*time.Second)
	_, err := client.GetCurrentConditions(context.Background(), "delhi")
	if err == nil {
		t.Fatal("expected error for missing current block")
	}
	if !strings.Contains(err.Error(), "missing current block") {
		t.Errorf("error = %v, want missing current block", err)
	}
}

func TestGetForecast_ClampsDays(t *testing.T) {
	var gotDays atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDays.Store(r.URL.Query().Get("days"))
		_, _ = w.Write([]byte(`{"forecast":{"forecastday":[]}}`))
	}))
	defer server.Close()

	client, _ := NewWeatherAPIClient("test-api-key-12345", server.URL, 2*time.Second)

	tests := []struct {
		days int
		want string
	}{
		{0, "1"},
		{-5, "1"},
		{3, "3"},
		{50, "14"},
	}
	for _, tt := range tests {
		if _, err := client.GetForecast(context.Background(), "delhi", tt.days); err != nil {
			t.Fatalf("GetForecast(%d) error = %v", tt.days, err)
		}
		if got := gotDays.Load().(string); got != tt.want {
			t.Errorf("GetForecast(%d) sent days=%s, want %s", tt.days, got, tt.want)
		}
	}
}

func TestGetForecast_MapsDays(t *testing.T) {
	body := `{"forecast":{"forecastday":[
		{"date":"2026-09-01","day":{"maxtemp_c":42.0,"mintemp_c":28.0,"totalprecip_mm":0.0,"maxwind_kph":18.0,"daily_chance_of_rain":5,"condition":{"text":"Sunny"}}},
		{"date":"2026-09-02","day":{"maxtemp_c":33.0,"mintemp_c":24.0,"totalprecip_mm":65.0,"maxwind_kph":70.0,"daily_chance_of_rain":90,"condition":{"text":"Heavy rain"}}}
	]}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client, _ := NewWeatherAPIClient("test-api-key-12345", server.URL, 2*time.Second)
	got, err := client.GetForecast(context.Background(), "delhi", 2)
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Date != "2026-09-01" || got[0].MaxTempC != 42.0 {
		t.Errorf("day 0 = %+v", got[0])
	}
	if got[1].TotalPrecipMm != 65.0 || got[1].MaxWindKph != 70.0 || got[1].ChanceOfRain != 90 {
		t.Errorf("day 1 = %+v", got[1])
	}
	if got[1].Condition != "Heavy rain" {
		t.Errorf("day 1 condition = %q", got[1].Condition)
	}
}

func TestGetAlerts_Success(t *testing.T) {
	body := `{"alerts":{"alert":[
		{"headline":"Flood Warning","event":"Flood Warning","severity":"Severe","urgency":"Immediate","areas":"District A; District B"}
	]}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("alerts") != "yes" {
			t.Errorf("expected alerts=yes, got %q", q.Get("alerts"))
		}
		if q.Get("days") != "1" {
			t.Errorf("expected days=1, got %q", q.Get("days"))
		}
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client, _ := NewWeatherAPIClient("test-api-key-12345", server.URL, 2*time.Second)
	got, err := client.GetAlerts(context.Background(), "delhi")
	if err != nil {
		t.Fatalf("GetAlerts() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Event != "Flood Warning" || got[0].Severity != "Severe" {
		t.Errorf("alert = %+v", got[0])
	}
}

func TestErrorResponseMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{"400 maps to location not found", http.StatusBadRequest, ErrLocationNotFound},
		{"401 maps to invalid API key", http.StatusUnauthorized, ErrInvalidAPIKey},
		{"403 maps to invalid API key", http.StatusForbidden, ErrInvalidAPIKey},
		{"429 maps to rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"500 maps to upstream failure", http.StatusInternalServerError, ErrUpstreamFailure},
		{"503 maps to upstream failure", http.StatusServiceUnavailable, ErrUpstreamFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client, _ := NewWeatherAPIClientWithRetry("test-api-key-12345", server.URL, 2*time.Second, 1, time.Millisecond, time.Millisecond)
			_, err := client.GetCurrentConditions(context.Background(), "nowhere")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCallWithRetry_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"current":{"temp_c":20.0,"condition":{"text":"Clear"}}}`))
	}))
	defer server.Close()

	client, _ := NewWeatherAPIClientWithRetry("test-api-key-12345", server.URL, 2*time.Second, 3, time.Millisecond, 5*time.Millisecond)
	got, err := client.GetCurrentConditions(context.Background(), "delhi")
	if err != nil {
		t.Fatalf("GetCurrentConditions() error = %v", err)
	}
	if got.TempC != 20.0 {
		t.Errorf("TempC = %f, want 20.0", got.TempC)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestCallWithRetry_NoRetryOnLocationNotFound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client, _ := NewWeatherAPIClientWithRetry("test-api-key-12345", server.URL, 2*time.Second, 3, time.Millisecond, 5*time.Millisecond)
	_, err := client.GetCurrentConditions(context.Background(), "nowhere")
	if !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("error = %v, want ErrLocationNotFound", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no retries)", calls.Load())
	}
}

func TestCallWithRetry_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, _ := NewWeatherAPIClientWithRetry("test-api-key-12345", server.URL, 2*time.Second, 2, time.Millisecond, 5*time.Millisecond)
	_, err := client.GetCurrentConditions(context.Background(), "delhi")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !errors.Is(err, ErrUpstreamFailure) {
		t.Errorf("error = %v, want ErrUpstreamFailure", err)
	}
	if !strings.Contains(err.Error(), "exhausted retries") {
		t.Errorf("error = %v, want exhausted retries wrapper", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestCircuitBreakerIntegration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, _ := NewWeatherAPIClientWithRetry("test-api-key-12345", server.URL, 2*time.Second, 1, time.Millisecond, time.Millisecond)
	cb := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
	})
	client.SetCircuitBreaker(cb)

	ctx := context.Background()
	_, _ = client.GetCurrentConditions(ctx, "delhi")
	_, _ = client.GetCurrentConditions(ctx, "delhi")

	if cb.State() != circuitbreaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", cb.State())
	}
	_, err := client.GetCurrentConditions(ctx, "delhi")
	if !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Errorf("error = %v, want ErrOpen", err)
	}
}

func TestCorrelationIDPropagation(t *testing.T) {
	var gotHeader atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader.Store(r.Header.Get("X-Correlation-ID"))
		_, _ = w.Write([]byte(`{"current":{"temp_c":20.0,"condition":{"text":"Clear"}}}`))
	}))
	defer server.Close()

	client, _ := NewWeatherAPIClient("test-api-key-12345", server.URL, 2*time.Second)
	ctx := context.WithValue(context.Background(), "correlation_id", "corr-123")
	if _, err := client.GetCurrentConditions(ctx, "delhi"); err != nil {
		t.Fatalf("GetCurrentConditions() error = %v", err)
	}
	if got := gotHeader.Load().(string); got != "corr-123" {
		t.Errorf("X-Correlation-ID = %q, want corr-123", got)
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{"200 is valid", http.StatusOK, nil},
		{"401 is invalid key", http.StatusUnauthorized, ErrInvalidAPIKey},
		{"403 is invalid key", http.StatusForbidden, ErrInvalidAPIKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				if tt.statusCode == http.StatusOK {
					_, _ = w.Write([]byte(`{}`))
				}
			}))
			defer server.Close()

			client, _ := NewWeatherAPIClient("test-api-key-12345", server.URL, 2*time.Second)
			err := client.ValidateAPIKey(context.Background())
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateAPIKey() error = %v, want nil", err)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAPIKey() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", ErrRateLimited, true},
		{"upstream failure", ErrUpstreamFailure, true},
		{"location not found", ErrLocationNotFound, false},
		{"invalid key", ErrInvalidAPIKey, false},
		{"timeout text", errors.New("request timeout: deadline"), true},
		{"context deadline", context.DeadlineExceeded, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
