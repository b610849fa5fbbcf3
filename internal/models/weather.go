package models

import "time"

// CurrentConditions is a snapshot of live readings from the weather provider.
// AirQualityIndex uses the US EPA scale (1-6); 0 means the provider did not
// report air quality for this location.
type CurrentConditions struct {
	TempC           float64   `json:"temp_c"`
	FeelsLikeC      float64   `json:"feelslike_c"`
	Humidity        int       `json:"humidity"`
	WindKph         float64   `json:"wind_kph"`
	VisKm           float64   `json:"vis_km"`
	UV              float64   `json:"uv"`
	PrecipMm        float64   `json:"precip_mm"`
	Condition       string    `json:"condition"`
	AirQualityIndex int       `json:"air_quality_index,omitempty"`
	ObservedAt      time.Time `json:"observed_at"`
}

// ForecastDay is one calendar day of the provider's multi-day forecast.
type ForecastDay struct {
	Date          string  `json:"date"`
	MaxTempC      float64 `json:"maxtemp_c"`
	MinTempC      float64 `json:"mintemp_c"`
	TotalPrecipMm float64 `json:"totalprecip_mm"`
	MaxWindKph    float64 `json:"maxwind_kph"`
	Condition     string  `json:"condition"`
	ChanceOfRain  int     `json:"daily_chance_of_rain"`
}

// AlertSummary is the classified view of a location's active alerts.
type AlertSummary struct {
	Location        string            `json:"location"`
	Alerts          []ClassifiedAlert `json:"alerts"`
	AlertCount      int               `json:"alert_count"`
	HighestSeverity SeverityLevel     `json:"highest_severity"`
	HasActiveAlerts bool              `json:"has_active_alerts"`
	LastUpdated     time.Time         `json:"last_updated"`
}

// RiskReport is the full per-location risk document served to clients and
// held in the advisory cache. Each of the three upstream sections may be
// absent when its fetch failed; Errors then names the failed sections.
// Errors is not serialized: partial-failure detail is per-response, the
// handler lifts it into the envelope instead.
type RiskReport struct {
	Location          string             `json:"location"`
	CurrentConditions *CurrentConditions `json:"current_conditions"`
	ActiveAlerts      []ClassifiedAlert  `json:"active_alerts"`
	ForecastAlerts    []ForecastDayRisk  `json:"forecast_alerts"`
	RiskAssessment    *RiskAssessment    `json:"risk_assessment"`
	LastUpdated       time.Time          `json:"last_updated"`
	Stale             bool               `json:"stale,omitempty"`
	Errors            []string           `json:"-"`
}

// SafetyReport embeds the live conditions alongside their safety assessment.
// The embedded pointer flattens the raw condition fields into the document.
type SafetyReport struct {
	Location string `json:"location"`
	*CurrentConditions
	SafetyAssessment SafetyAssessment `json:"safety_assessment"`
	LastUpdated      time.Time        `json:"last_updated"`
}
