package risk

import (
	"strings"

	"github.com/suraksha-edu/risk-assessment-service/internal/models"
)

// The classifiers in this file are total functions: any input, including
// empty strings and arbitrary provider vocabulary, maps to a category.
// Unexpected input degrades to the lowest-information category, never an
// error. Rules are ordered tables so the priority of each keyword is
// auditable; the first matching rule wins.

// severityRule pairs match keywords with the normalized severity they yield.
type severityRule struct {
	keywords []string
	level    models.SeverityLevel
}

var severityRules = []severityRule{
	{[]string{"extreme", "severe"}, models.SeverityExtreme},
	{[]string{"major", "moderate"}, models.SeverityMajor},
	{[]string{"minor", "low"}, models.SeverityMinor},
}

// alertTypeRule pairs match keywords with the hazard category they yield.
type alertTypeRule struct {
	keywords  []string
	alertType models.AlertType
}

var alertTypeRules = []alertTypeRule{
	{[]string{"flood", "water"}, models.AlertTypeFlood},
	{[]string{"hurricane", "cyclone", "typhoon"}, models.AlertTypeHurricane},
	{[]string{"tornado"}, models.AlertTypeTornado},
	{[]string{"thunderstorm", "storm"}, models.AlertTypeStorm},
	{[]string{"heat", "hot"}, models.AlertTypeHeat},
	{[]string{"cold", "freeze", "frost"}, models.AlertTypeCold},
	{[]string{"snow", "blizzard"}, models.AlertTypeSnow},
	{[]string{"wind"}, models.AlertTypeWind},
	{[]string{"fog"}, models.AlertTypeFog},
	{[]string{"fire"}, models.AlertTypeFire},
	{[]string{"earthquake"}, models.AlertTypeEarthquake},
}

var urgencyLevels = []models.UrgencyLevel{
	models.UrgencyImmediate,
	models.UrgencyExpected,
	models.UrgencyFuture,
	models.UrgencyPast,
}

// severityOrdinals ranks the normalized severities. Pass-through values
// outside the known vocabulary rank as 0, same as unknown.
var severityOrdinals = map[models.SeverityLevel]int{
	models.SeverityExtreme:  4,
	models.SeverityMajor:    3,
	models.SeverityModerate: 2,
	models.SeverityMinor:    1,
	models.SeverityUnknown:  0,
}

// CategorizeSeverity maps a provider severity string onto the normalized
// vocabulary. Non-empty input that matches no keyword passes through
// lower-cased; empty input yields unknown.
func CategorizeSeverity(raw string) models.SeverityLevel {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return models.SeverityUnknown
	}
	for _, rule := range severityRules {
		for _, kw := range rule.keywords {
			if strings.Contains(s, kw) {
				return rule.level
			}
		}
	}
	return models.SeverityLevel(s)
}

// CategorizeAlertType maps alert event/headline text onto a hazard category.
// Empty text yields general; non-empty text that matches no keyword yields
// weather. "thunderstorm" is checked before "wind" and before the weather
// fallback, so "Severe Thunderstorm Warning" classifies as storm.
func CategorizeAlertType(text string) models.AlertType {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return models.AlertTypeGeneral
	}
	for _, rule := range alertTypeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(s, kw) {
				return rule.alertType
			}
		}
	}
	return models.AlertTypeWeather
}

// CategorizeUrgency maps a provider urgency string onto the CAP urgency
// vocabulary, with the same pass-through and unknown fallback behavior as
// CategorizeSeverity.
func CategorizeUrgency(raw string) models.UrgencyLevel {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return models.UrgencyUnknown
	}
	for _, level := range urgencyLevels {
		if strings.Contains(s, string(level)) {
			return level
		}
	}
	return models.UrgencyLevel(s)
}

// HighestSeverity folds over the alerts and returns the highest-ranked
// severity seen, or none for an empty slice. The fold is stable: only a
// strictly greater ordinal replaces the current candidate, so when two
// alerts tie at the maximum the first one in provider order wins.
func HighestSeverity(alerts []models.ClassifiedAlert) models.SeverityLevel {
	if len(alerts) == 0 {
		return models.SeverityNone
	}
	best := alerts[0].SeverityLevel
	bestOrd := severityOrdinals[best]
	for _, a := range alerts[1:] {
		if ord := severityOrdinals[a.SeverityLevel]; ord > bestOrd {
			best = a.SeverityLevel
			bestOrd = ord
		}
	}
	return best
}

// ClassifyAlert derives the normalized fields for one raw alert. The hazard
// category comes from the event text, falling back to the headline when the
// event is empty.
func ClassifyAlert(raw models.RawAlert) models.ClassifiedAlert {
	text := raw.Event
	if strings.TrimSpace(text) == "" {
		text = raw.Headline
	}
	return models.ClassifiedAlert{
		RawAlert:      raw,
		SeverityLevel: CategorizeSeverity(raw.Severity),
		AlertType:     CategorizeAlertType(text),
		UrgencyLevel:  CategorizeUrgency(raw.Urgency),
		AffectedAreas: SplitAreas(raw.Areas),
	}
}

// ClassifyAlerts classifies each raw alert, preserving provider order.
func ClassifyAlerts(raw []models.RawAlert) []models.ClassifiedAlert {
	out := make([]models.ClassifiedAlert, 0, len(raw))
	for _, a := range raw {
		out = append(out, ClassifyAlert(a))
	}
	return out
}

// SplitAreas splits the provider's semicolon-delimited area list into
// trimmed segments, dropping empty ones.
func SplitAreas(areas string) []string {
	parts := strings.Split(areas, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
