package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricLocationLabel(t *testing.T) {
	SetTrackedLocations([]string{"Delhi", "mumbai"})
	t.Cleanup(func() { SetTrackedLocations(nil) })

	tests := []struct {
		in   string
		want string
	}{
		{"delhi", "delhi"},
		{"DELHI", "delhi"},
		{"  mumbai ", "mumbai"},
		{"chennai", "other"},
		{"", "other"},
	}
	for _, tt := range tests {
		if got := MetricLocationLabel(tt.in); got != tt.want {
			t.Errorf("MetricLocationLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMetricLocationLabel_NoAllowList(t *testing.T) {
	SetTrackedLocations(nil)
	if got := MetricLocationLabel("delhi"); got != "other" {
		t.Errorf("MetricLocationLabel = %q, want other with empty allow-list", got)
	}
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	RecordRiskQuery("delhi")

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "riskQueriesTotal") {
		t.Error("riskQueriesTotal missing from exposition")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"DEBUG", "debug"},
		{"debug", "debug"},
		{"WARN", "warn"},
		{"ERROR", "error"},
		{"", "info"},
		{"bogus", "info"},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in).String(); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
