package risk

import (
	"github.com/suraksha-edu/risk-assessment-service/internal/models"
)

// GenerateRiskAssessment combines classified active alerts and extracted
// forecast risks into one overall risk level and an ordered recommendation
// list. The overall level never regresses within one call: active alerts set
// it outright from their highest severity, and forecast data can only bump a
// still-low level to medium.
//
// current is accepted for interface symmetry with AssessWeatherSafety; the
// aggregation itself is driven entirely by alerts and forecast risks.
func GenerateRiskAssessment(current *models.CurrentConditions, activeAlerts []models.ClassifiedAlert, forecastRisks []models.ForecastDayRisk) models.RiskAssessment {
	assessment := models.RiskAssessment{
		OverallRisk:    models.RiskLow,
		ImmediateRisks: []models.ImmediateRisk{},
		UpcomingRisks:  []models.UpcomingRisk{},
	}

	if len(activeAlerts) > 0 {
		switch HighestSeverity(activeAlerts) {
		case models.SeverityExtreme:
			assessment.OverallRisk = models.RiskCritical
		case models.SeverityMajor:
			assessment.OverallRisk = models.RiskHigh
		default:
			assessment.OverallRisk = models.RiskMedium
		}
	}

	for _, alert := range activeAlerts {
		assessment.ImmediateRisks = append(assessment.ImmediateRisks, models.ImmediateRisk{
			Type:        alert.AlertType,
			Severity:    alert.SeverityLevel,
			Description: alert.Headline,
			Urgency:     alert.UrgencyLevel,
		})
	}

	for _, day := range forecastRisks {
		for _, item := range day.Risks {
			assessment.UpcomingRisks = append(assessment.UpcomingRisks, models.UpcomingRisk{
				Type:        item.Type,
				Severity:    item.Severity,
				Description: item.Description,
				Date:        day.Date,
				DayIndex:    day.DayIndex,
			})
		}
	}

	// Forecast severity alone never escalates past medium, and active-alert
	// levels are never downgraded by forecast data.
	if assessment.OverallRisk == models.RiskLow {
		for _, up := range assessment.UpcomingRisks {
			if up.Severity == models.RiskSeverityHigh {
				assessment.OverallRisk = models.RiskMedium
				break
			}
		}
	}

	assessment.SafetyRecommendations = buildRecommendations(
		assessment.OverallRisk, assessment.ImmediateRisks, assessment.UpcomingRisks)
	return assessment
}
