package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suraksha-edu/risk-assessment-service/internal/models"
)

func TestCategorizeSeverity(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.SeverityLevel
	}{
		{"extreme keyword", "Extreme", models.SeverityExtreme},
		{"severe maps to extreme", "Severe", models.SeverityExtreme},
		{"severe inside phrase", "Severe Weather Statement", models.SeverityExtreme},
		{"major", "Major", models.SeverityMajor},
		{"moderate maps to major", "Moderate", models.SeverityMajor},
		{"minor", "Minor", models.SeverityMinor},
		{"low maps to minor", "Low", models.SeverityMinor},
		{"mixed case with spaces", "  eXtReMe  ", models.SeverityExtreme},
		{"unmatched passes through lowered", "Elevated", models.SeverityLevel("elevated")},
		{"empty yields unknown", "", models.SeverityUnknown},
		{"whitespace yields unknown", "   ", models.SeverityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeSeverity(tt.raw))
		})
	}
}

func TestCategorizeAlertType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.AlertType
	}{
		{"flood warning", "Flood Warning", models.AlertTypeFlood},
		{"water keyword", "Coastal Water Advisory", models.AlertTypeFlood},
		{"hurricane", "Hurricane Watch", models.AlertTypeHurricane},
		{"cyclone maps to hurricane", "Tropical Cyclone Alert", models.AlertTypeHurricane},
		{"typhoon maps to hurricane", "Typhoon Warning", models.AlertTypeHurricane},
		{"tornado", "Tornado Warning", models.AlertTypeTornado},
		// "thunderstorm" is checked before "wind", so a thunderstorm with
		// damaging winds still classifies as storm.
		{"severe thunderstorm", "Severe Thunderstorm Warning", models.AlertTypeStorm},
		{"bare storm", "Winter Storm Watch", models.AlertTypeStorm},
		{"heat", "Excessive Heat Warning", models.AlertTypeHeat},
		{"hot maps to heat", "Dangerously Hot Conditions", models.AlertTypeHeat},
		{"cold", "Extreme Cold Warning", models.AlertTypeCold},
		{"freeze maps to cold", "Freeze Watch", models.AlertTypeCold},
		{"frost maps to cold", "Frost Advisory", models.AlertTypeCold},
		{"blizzard maps to snow", "Blizzard Warning", models.AlertTypeSnow},
		{"wind", "High Wind Warning", models.AlertTypeWind},
		{"fog", "Dense Fog Advisory", models.AlertTypeFog},
		{"fire", "Fire Weather Watch", models.AlertTypeFire},
		{"earthquake", "Earthquake Advisory", models.AlertTypeEarthquake},
		{"unmatched falls back to weather", "Special Marine Statement", models.AlertTypeWeather},
		{"empty falls back to general", "", models.AlertTypeGeneral},
		{"whitespace falls back to general", "  ", models.AlertTypeGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeAlertType(tt.text))
		})
	}
}

func TestCategorizeUrgency(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.UrgencyLevel
	}{
		{"immediate", "Immediate", models.UrgencyImmediate},
		{"expected", "Expected", models.UrgencyExpected},
		{"future", "Future", models.UrgencyFuture},
		{"past", "Past", models.UrgencyPast},
		{"unmatched passes through lowered", "Unknown-Urgency", models.UrgencyLevel("unknown-urgency")},
		{"empty yields unknown", "", models.UrgencyUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeUrgency(tt.raw))
		})
	}
}

func TestHighestSeverity(t *testing.T) {
	mk := func(levels ...models.SeverityLevel) []models.ClassifiedAlert {
		out := make([]models.ClassifiedAlert, len(levels))
		for i, l := range levels {
			out[i].SeverityLevel = l
		}
		return out
	}

	tests := []struct {
		name   string
		alerts []models.ClassifiedAlert
		want   models.SeverityLevel
	}{
		{"empty yields none", nil, models.SeverityNone},
		{"single", mk(models.SeverityMinor), models.SeverityMinor},
		{"extreme dominates", mk(models.SeverityMinor, models.SeverityExtreme, models.SeverityMajor), models.SeverityExtreme},
		{"major over moderate", mk(models.SeverityModerate, models.SeverityMajor), models.SeverityMajor},
		{"unknown ranks lowest", mk(models.SeverityUnknown, models.SeverityMinor), models.SeverityMinor},
		{"pass-through ranks as unknown", mk(models.SeverityLevel("elevated"), models.SeverityMinor), models.SeverityMinor},
		{"all unknown stays unknown", mk(models.SeverityUnknown, models.SeverityUnknown), models.SeverityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HighestSeverity(tt.alerts))
		})
	}
}

func TestHighestSeverity_StableOnTies(t *testing.T) {
	// Both alerts rank equally; the first in provider order must win even
	// though the second carries a different string.
	alerts := []models.ClassifiedAlert{
		{SeverityLevel: models.SeverityLevel("elevated")},
		{SeverityLevel: models.SeverityUnknown},
	}
	assert.Equal(t, models.SeverityLevel("elevated"), HighestSeverity(alerts))
}

func TestClassifyAlert(t *testing.T) {
	raw := models.RawAlert{
		Headline: "Flash Flood Warning for Riverside County",
		Event:    "Flash Flood Warning",
		Severity: "Severe",
		Urgency:  "Immediate",
		Areas:    "Riverside; San Bernardino ; ",
	}
	got := ClassifyAlert(raw)

	assert.Equal(t, raw, got.RawAlert)
	assert.Equal(t, models.SeverityExtreme, got.SeverityLevel)
	assert.Equal(t, models.AlertTypeFlood, got.AlertType)
	assert.Equal(t, models.UrgencyImmediate, got.UrgencyLevel)
	assert.Equal(t, []string{"Riverside", "San Bernardino"}, got.AffectedAreas)
}

func TestClassifyAlert_HeadlineFallback(t *testing.T) {
	got := ClassifyAlert(models.RawAlert{
		Headline: "Tornado Warning issued for downtown",
		Event:    "  ",
	})
	assert.Equal(t, models.AlertTypeTornado, got.AlertType)
}

func TestClassifyAlerts_PreservesOrder(t *testing.T) {
	raw := []models.RawAlert{
		{Event: "Flood Warning"},
		{Event: "Heat Advisory"},
	}
	got := ClassifyAlerts(raw)
	assert.Len(t, got, 2)
	assert.Equal(t, models.AlertTypeFlood, got[0].AlertType)
	assert.Equal(t, models.AlertTypeHeat, got[1].AlertType)
}

func TestSplitAreas(t *testing.T) {
	tests := []struct {
		name  string
		areas string
		want  []string
	}{
		{"simple", "A; B; C", []string{"A", "B", "C"}},
		{"drops empties", "A;; ;B", []string{"A", "B"}},
		{"single no delimiter", "Whole State", []string{"Whole State"}},
		{"empty input", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitAreas(tt.areas))
		})
	}
}
