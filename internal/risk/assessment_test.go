package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suraksha-edu/risk-assessment-service/internal/models"
)

func alertWith(severity models.SeverityLevel, alertType models.AlertType, headline string) models.ClassifiedAlert {
	return models.ClassifiedAlert{
		RawAlert:      models.RawAlert{Headline: headline},
		SeverityLevel: severity,
		AlertType:     alertType,
		UrgencyLevel:  models.UrgencyImmediate,
	}
}

func TestGenerateRiskAssessment_NoInput(t *testing.T) {
	got := GenerateRiskAssessment(nil, nil, nil)

	assert.Equal(t, models.RiskLow, got.OverallRisk)
	assert.NotNil(t, got.ImmediateRisks)
	assert.Empty(t, got.ImmediateRisks)
	assert.NotNil(t, got.UpcomingRisks)
	assert.Empty(t, got.UpcomingRisks)
	// The low-risk block is exactly two lines and no general preparedness
	// lines are appended at low.
	assert.Equal(t, []string{
		"Conditions are generally safe",
		"Continue normal activities with standard awareness",
	}, got.SafetyRecommendations)
}

func TestGenerateRiskAssessment_OverallFromAlerts(t *testing.T) {
	tests := []struct {
		name     string
		severity models.SeverityLevel
		want     models.RiskLevel
	}{
		{"extreme maps to critical", models.SeverityExtreme, models.RiskCritical},
		{"major maps to high", models.SeverityMajor, models.RiskHigh},
		{"moderate maps to medium", models.SeverityModerate, models.RiskMedium},
		{"minor maps to medium", models.SeverityMinor, models.RiskMedium},
		{"unknown maps to medium", models.SeverityUnknown, models.RiskMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := []models.ClassifiedAlert{alertWith(tt.severity, models.AlertTypeStorm, "headline")}
			got := GenerateRiskAssessment(nil, alerts, nil)
			assert.Equal(t, tt.want, got.OverallRisk)
		})
	}
}

func TestGenerateRiskAssessment_ExtremeDominates(t *testing.T) {
	alerts := []models.ClassifiedAlert{
		alertWith(models.SeverityMinor, models.AlertTypeFog, "fog"),
		alertWith(models.SeverityExtreme, models.AlertTypeFlood, "flood"),
	}
	got := GenerateRiskAssessment(nil, alerts, nil)
	assert.Equal(t, models.RiskCritical, got.OverallRisk)
}

func TestGenerateRiskAssessment_ImmediateRiskProjection(t *testing.T) {
	alerts := []models.ClassifiedAlert{
		alertWith(models.SeverityExtreme, models.AlertTypeFlood, "Flash Flood Warning"),
		alertWith(models.SeverityMinor, models.AlertTypeHeat, "Heat Advisory"),
	}
	got := GenerateRiskAssessment(nil, alerts, nil)

	require.Len(t, got.ImmediateRisks, 2)
	assert.Equal(t, models.ImmediateRisk{
		Type:        models.AlertTypeFlood,
		Severity:    models.SeverityExtreme,
		Description: "Flash Flood Warning",
		Urgency:     models.UrgencyImmediate,
	}, got.ImmediateRisks[0])
	assert.Equal(t, models.AlertTypeHeat, got.ImmediateRisks[1].Type)
}

func TestGenerateRiskAssessment_UpcomingRisksFlattened(t *testing.T) {
	forecastRisks := []models.ForecastDayRisk{
		{
			Date:     "2026-09-02",
			DayIndex: 1,
			Risks: []models.RiskItem{
				{Type: models.RiskExtremeHeat, Severity: models.RiskSeverityHigh, Description: "Extreme heat expected: 41.0°C"},
				{Type: models.RiskHighWinds, Severity: models.RiskSeverityMedium, Description: "Strong winds expected: 70.0 km/h"},
			},
		},
		{
			Date:     "2026-09-04",
			DayIndex: 3,
			Risks: []models.RiskItem{
				{Type: models.RiskHeavyRain, Severity: models.RiskSeverityMedium, Description: "Heavy rainfall expected: 60.0mm"},
			},
		},
	}
	got := GenerateRiskAssessment(nil, nil, forecastRisks)

	require.Len(t, got.UpcomingRisks, 3)
	assert.Equal(t, models.UpcomingRisk{
		Type:        models.RiskExtremeHeat,
		Severity:    models.RiskSeverityHigh,
		Description: "Extreme heat expected: 41.0°C",
		Date:        "2026-09-02",
		DayIndex:    1,
	}, got.UpcomingRisks[0])
	assert.Equal(t, "2026-09-04", got.UpcomingRisks[2].Date)
	assert.Equal(t, 3, got.UpcomingRisks[2].DayIndex)
}

func TestGenerateRiskAssessment_ForecastBumpsLowToMedium(t *testing.T) {
	forecastRisks := []models.ForecastDayRisk{{
		Date:     "2026-09-02",
		DayIndex: 1,
		Risks:    []models.RiskItem{{Type: models.RiskHeavyRain, Severity: models.RiskSeverityHigh}},
	}}
	got := GenerateRiskAssessment(nil, nil, forecastRisks)
	assert.Equal(t, models.RiskMedium, got.OverallRisk)
}

func TestGenerateRiskAssessment_ForecastMediumDoesNotBump(t *testing.T) {
	forecastRisks := []models.ForecastDayRisk{{
		Date:     "2026-09-02",
		DayIndex: 1,
		Risks:    []models.RiskItem{{Type: models.RiskHighWinds, Severity: models.RiskSeverityMedium}},
	}}
	got := GenerateRiskAssessment(nil, nil, forecastRisks)
	assert.Equal(t, models.RiskLow, got.OverallRisk)
}

func TestGenerateRiskAssessment_ForecastNeverEscalatesAlertLevel(t *testing.T) {
	alerts := []models.ClassifiedAlert{alertWith(models.SeverityMajor, models.AlertTypeStorm, "storm")}
	forecastRisks := []models.ForecastDayRisk{{
		Risks: []models.RiskItem{{Type: models.RiskExtremeHeat, Severity: models.RiskSeverityHigh}},
	}}
	got := GenerateRiskAssessment(nil, alerts, forecastRisks)
	// Major alert already set high; the high-severity forecast risk must not
	// change it in either direction.
	assert.Equal(t, models.RiskHigh, got.OverallRisk)
}

func TestBuildRecommendations_Ordering(t *testing.T) {
	immediate := []models.ImmediateRisk{
		{Type: models.AlertTypeFlood},
		{Type: models.AlertTypeTornado}, // no mapped line
		{Type: models.AlertTypeWind},
	}
	upcoming := []models.UpcomingRisk{
		{Type: models.RiskHeavyRain},
		{Type: models.RiskHeavyRain}, // deduplicated
		{Type: models.RiskExtremeHeat},
		{Type: models.RiskFreezing}, // no mapped line
	}
	got := buildRecommendations(models.RiskCritical, immediate, upcoming)

	want := []string{
		"Take immediate action to protect yourself and others",
		"Follow official evacuation orders if issued",
		"Keep emergency contacts and supplies within reach",
		"Avoid low-lying areas and never drive through flood water",
		"Stay away from trees, power lines and unsecured structures",
		"Prepare for upcoming weather changes over the coming days",
		"Clear drains and gutters before the rain arrives",
		"Plan indoor activities during peak heat hours",
		"Keep an emergency kit stocked and accessible",
		"Ensure backup power and communication devices are charged",
	}
	assert.Equal(t, want, got)
}

func TestBuildRecommendations_MediumLevel(t *testing.T) {
	got := buildRecommendations(models.RiskMedium, nil, nil)
	assert.Equal(t, []string{
		"Stay informed about changing conditions",
		"Check weather updates regularly",
		"Keep an emergency kit stocked and accessible",
		"Ensure backup power and communication devices are charged",
	}, got)
}

func TestBuildRecommendations_StormSharesHurricaneLine(t *testing.T) {
	gotStorm := buildRecommendations(models.RiskMedium, []models.ImmediateRisk{{Type: models.AlertTypeStorm}}, nil)
	gotHurricane := buildRecommendations(models.RiskMedium, []models.ImmediateRisk{{Type: models.AlertTypeHurricane}}, nil)
	assert.Contains(t, gotStorm, "Secure loose outdoor items and stay indoors during the storm")
	assert.Equal(t, gotStorm, gotHurricane)
}
