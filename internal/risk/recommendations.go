package risk

import "github.com/suraksha-edu/risk-assessment-service/internal/models"

// Fixed recommendation text. The concatenation order is part of the response
// contract: level block first, then one line per immediate risk, then the
// upcoming-risk block, then the general preparedness lines.

var levelRecommendations = map[models.RiskLevel][]string{
	models.RiskCritical: {
		"Take immediate action to protect yourself and others",
		"Follow official evacuation orders if issued",
		"Keep emergency contacts and supplies within reach",
	},
	models.RiskHigh: {
		"Stay alert and monitor official advisories closely",
		"Review your family emergency plan",
		"Prepare for disruption to daily activities",
	},
	models.RiskMedium: {
		"Stay informed about changing conditions",
		"Check weather updates regularly",
	},
	models.RiskLow: {
		"Conditions are generally safe",
		"Continue normal activities with standard awareness",
	},
}

var immediateRiskRecommendations = map[models.AlertType]string{
	models.AlertTypeFlood:     "Avoid low-lying areas and never drive through flood water",
	models.AlertTypeHurricane: "Secure loose outdoor items and stay indoors during the storm",
	models.AlertTypeStorm:     "Secure loose outdoor items and stay indoors during the storm",
	models.AlertTypeHeat:      "Stay hydrated and avoid prolonged sun exposure",
	models.AlertTypeCold:      "Dress in warm layers and limit time outdoors",
	models.AlertTypeWind:      "Stay away from trees, power lines and unsecured structures",
}

var upcomingRiskRecommendations = map[models.RiskType]string{
	models.RiskHeavyRain:   "Clear drains and gutters before the rain arrives",
	models.RiskExtremeHeat: "Plan indoor activities during peak heat hours",
	models.RiskHighWinds:   "Secure outdoor furniture and equipment in advance",
}

const upcomingGeneralRecommendation = "Prepare for upcoming weather changes over the coming days"

var generalPreparednessRecommendations = []string{
	"Keep an emergency kit stocked and accessible",
	"Ensure backup power and communication devices are charged",
}

// buildRecommendations assembles the ordered recommendation list for an
// assessment. Immediate risks contribute one line each in input order; alert
// types with no mapped message contribute nothing. Upcoming risks contribute
// at most one line per distinct type, in order of first appearance.
func buildRecommendations(level models.RiskLevel, immediate []models.ImmediateRisk, upcoming []models.UpcomingRisk) []string {
	recs := append([]string{}, levelRecommendations[level]...)

	for _, r := range immediate {
		if msg, ok := immediateRiskRecommendations[r.Type]; ok {
			recs = append(recs, msg)
		}
	}

	if len(upcoming) > 0 {
		recs = append(recs, upcomingGeneralRecommendation)
		seen := make(map[models.RiskType]bool, len(upcoming))
		for _, r := range upcoming {
			if seen[r.Type] {
				continue
			}
			seen[r.Type] = true
			if msg, ok := upcomingRiskRecommendations[r.Type]; ok {
				recs = append(recs, msg)
			}
		}
	}

	if level != models.RiskLow {
		recs = append(recs, generalPreparednessRecommendations...)
	}
	return recs
}
