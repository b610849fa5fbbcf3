package risk

import "github.com/suraksha-edu/risk-assessment-service/internal/models"

// Live-conditions safety thresholds.
const (
	safetyExtremeHeatC        = 40.0
	safetyVeryHotC            = 35.0
	safetyFreezingC           = 0.0
	safetyDangerousWindKph    = 60.0
	safetyStrongWindKph       = 40.0
	safetyLowVisibilityKm     = 1.0
	safetyReducedVisibilityKm = 3.0
	safetyVeryHighUV          = 8.0
	safetyPoorAirQualityIndex = 4 // US EPA scale: 4 = unhealthy
	safetyHumidHeatHumidity   = 80
	safetyHumidHeatTempC      = 30.0
)

// AssessWeatherSafety classifies live readings into an overall safety level
// with per-check warnings and recommendations. Checks are independent, so a
// single set of readings can trigger several of them. Extreme heat,
// dangerous wind and very low visibility force dangerous outright; every
// other triggered check raises safe to caution and never touches a level
// already above it. A nil input degrades to unknown, never an error.
func AssessWeatherSafety(current *models.CurrentConditions) models.SafetyAssessment {
	if current == nil {
		return models.SafetyAssessment{
			OverallSafety:   models.SafetyUnknown,
			Warnings:        []string{"Current conditions unavailable"},
			Recommendations: []string{"Check an official weather source before heading out"},
		}
	}

	a := models.SafetyAssessment{
		OverallSafety:   models.SafetySafe,
		Warnings:        []string{},
		Recommendations: []string{},
	}

	if current.TempC > safetyExtremeHeatC {
		a.OverallSafety = models.SafetyDangerous
		addCheck(&a, "Extreme heat conditions", "Stay indoors and drink water frequently")
	} else if current.TempC > safetyVeryHotC {
		raiseCaution(&a)
		addCheck(&a, "Very hot conditions", "Limit outdoor activity during midday")
	}

	if current.TempC < safetyFreezingC {
		raiseCaution(&a)
		addCheck(&a, "Freezing conditions", "Dress warmly and watch for ice")
	}

	if current.WindKph > safetyDangerousWindKph {
		a.OverallSafety = models.SafetyDangerous
		addCheck(&a, "Dangerously strong winds", "Avoid travel and stay away from windows")
	} else if current.WindKph > safetyStrongWindKph {
		raiseCaution(&a)
		addCheck(&a, "Strong winds", "Secure loose objects outdoors")
	}

	if current.VisKm < safetyLowVisibilityKm {
		a.OverallSafety = models.SafetyDangerous
		addCheck(&a, "Very low visibility", "Avoid driving until visibility improves")
	} else if current.VisKm < safetyReducedVisibilityKm {
		raiseCaution(&a)
		addCheck(&a, "Reduced visibility", "Drive slowly with headlights on")
	}

	if current.UV >= safetyVeryHighUV {
		raiseCaution(&a)
		addCheck(&a, "Very high UV index", "Use sunscreen and wear protective clothing")
	}

	// AirQualityIndex is 0 when the provider omitted air quality; the check
	// is skipped rather than treated as clean air.
	if current.AirQualityIndex >= safetyPoorAirQualityIndex {
		raiseCaution(&a)
		addCheck(&a, "Poor air quality", "Limit outdoor exertion and consider wearing a mask")
	}

	if current.Humidity > safetyHumidHeatHumidity && current.TempC > safetyHumidHeatTempC {
		raiseCaution(&a)
		addCheck(&a, "High heat and humidity", "Take frequent breaks and stay hydrated")
	}

	return a
}

// raiseCaution promotes safe to caution; it never downgrades dangerous.
func raiseCaution(a *models.SafetyAssessment) {
	if a.OverallSafety == models.SafetySafe {
		a.OverallSafety = models.SafetyCaution
	}
}

func addCheck(a *models.SafetyAssessment, warning, recommendation string) {
	a.Warnings = append(a.Warnings, warning)
	a.Recommendations = append(a.Recommendations, recommendation)
}
