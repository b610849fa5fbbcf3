package risk

import (
	"fmt"

	"github.com/suraksha-edu/risk-assessment-service/internal/models"
)

// Forecast risk thresholds. All comparisons are strict: a day at exactly
// 40.0°C does not register extreme heat.
const (
	extremeHeatThresholdC = 40.0
	freezingThresholdC    = 0.0
	heavyRainHighMm       = 100.0
	heavyRainMediumMm     = 50.0
	highWindHighKph       = 100.0
	highWindMediumKph     = 60.0
)

// ExtractForecastRisks scans a multi-day forecast for readings crossing the
// fixed thresholds above. The rules are evaluated independently per day, so
// one day can carry several risks. Days with no qualifying reading are
// omitted; input order and day indexes are preserved.
func ExtractForecastRisks(days []models.ForecastDay) []models.ForecastDayRisk {
	var out []models.ForecastDayRisk
	for i, day := range days {
		risks := extractDayRisks(day)
		if len(risks) == 0 {
			continue
		}
		out = append(out, models.ForecastDayRisk{
			Date:     day.Date,
			DayIndex: i,
			Risks:    risks,
		})
	}
	return out
}

func extractDayRisks(day models.ForecastDay) []models.RiskItem {
	var risks []models.RiskItem

	if day.MaxTempC > extremeHeatThresholdC {
		risks = append(risks, models.RiskItem{
			Type:        models.RiskExtremeHeat,
			Severity:    models.RiskSeverityHigh,
			Description: fmt.Sprintf("Extreme heat expected: %.1f°C", day.MaxTempC),
		})
	}

	if day.MinTempC < freezingThresholdC {
		risks = append(risks, models.RiskItem{
			Type:        models.RiskFreezing,
			Severity:    models.RiskSeverityMedium,
			Description: fmt.Sprintf("Freezing temperatures expected: %.1f°C", day.MinTempC),
		})
	}

	switch {
	case day.TotalPrecipMm > heavyRainHighMm:
		risks = append(risks, models.RiskItem{
			Type:        models.RiskHeavyRain,
			Severity:    models.RiskSeverityHigh,
			Description: fmt.Sprintf("Very heavy rainfall expected: %.1fmm", day.TotalPrecipMm),
		})
	case day.TotalPrecipMm > heavyRainMediumMm:
		risks = append(risks, models.RiskItem{
			Type:        models.RiskHeavyRain,
			Severity:    models.RiskSeverityMedium,
			Description: fmt.Sprintf("Heavy rainfall expected: %.1fmm", day.TotalPrecipMm),
		})
	}

	switch {
	case day.MaxWindKph > highWindHighKph:
		risks = append(risks, models.RiskItem{
			Type:        models.RiskHighWinds,
			Severity:    models.RiskSeverityHigh,
			Description: fmt.Sprintf("Dangerous winds expected: %.1f km/h", day.MaxWindKph),
		})
	case day.MaxWindKph > highWindMediumKph:
		risks = append(risks, models.RiskItem{
			Type:        models.RiskHighWinds,
			Severity:    models.RiskSeverityMedium,
			Description: fmt.Sprintf("Strong winds expected: %.1f km/h", day.MaxWindKph),
		})
	}

	return risks
}
