package models

// SeverityLevel is the normalized alert severity vocabulary. The provider's
// severity field is free text; strings that match no known keyword pass
// through lower-cased, so values outside the constants below can occur.
type SeverityLevel string

const (
	SeverityExtreme  SeverityLevel = "extreme"
	SeverityMajor    SeverityLevel = "major"
	SeverityModerate SeverityLevel = "moderate"
	SeverityMinor    SeverityLevel = "minor"
	SeverityUnknown  SeverityLevel = "unknown"
	// SeverityNone is reported when no alerts are present at all.
	SeverityNone SeverityLevel = "none"
)

// AlertType is the closed hazard category derived from alert event/headline text.
type AlertType string

const (
	AlertTypeFlood      AlertType = "flood"
	AlertTypeHurricane  AlertType = "hurricane"
	AlertTypeTornado    AlertType = "tornado"
	AlertTypeStorm      AlertType = "storm"
	AlertTypeHeat       AlertType = "heat"
	AlertTypeCold       AlertType = "cold"
	AlertTypeSnow       AlertType = "snow"
	AlertTypeWind       AlertType = "wind"
	AlertTypeFog        AlertType = "fog"
	AlertTypeFire       AlertType = "fire"
	AlertTypeEarthquake AlertType = "earthquake"
	// AlertTypeWeather is the fallback for alert text that matches no hazard keyword.
	AlertTypeWeather AlertType = "weather"
	// AlertTypeGeneral is the fallback when the alert carries no usable text.
	AlertTypeGeneral AlertType = "general"
)

// UrgencyLevel is the normalized CAP urgency vocabulary.
type UrgencyLevel string

const (
	UrgencyImmediate UrgencyLevel = "immediate"
	UrgencyExpected  UrgencyLevel = "expected"
	UrgencyFuture    UrgencyLevel = "future"
	UrgencyPast      UrgencyLevel = "past"
	UrgencyUnknown   UrgencyLevel = "unknown"
)

// RiskLevel is the overall assessed risk for a location.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskType labels a forecast-derived risk.
type RiskType string

const (
	RiskExtremeHeat RiskType = "extreme_heat"
	RiskFreezing    RiskType = "freezing_conditions"
	RiskHeavyRain   RiskType = "heavy_rain"
	RiskHighWinds   RiskType = "high_winds"
)

// RiskSeverity is the coarse severity bucket for forecast risks.
type RiskSeverity string

const (
	RiskSeverityHigh   RiskSeverity = "high"
	RiskSeverityMedium RiskSeverity = "medium"
)

// SafetyLevel is the outcome of the live-conditions safety assessment.
type SafetyLevel string

const (
	SafetySafe      SafetyLevel = "safe"
	SafetyCaution   SafetyLevel = "caution"
	SafetyDangerous SafetyLevel = "dangerous"
	// SafetyUnknown is reported when current conditions are unavailable.
	SafetyUnknown SafetyLevel = "unknown"
)

// RawAlert is a CAP-style alert exactly as the provider sends it.
// All fields are free text owned by the provider; read-only input.
type RawAlert struct {
	Headline    string `json:"headline"`
	Event       string `json:"event"`
	Severity    string `json:"severity"`
	Urgency     string `json:"urgency"`
	Areas       string `json:"areas"`
	Effective   string `json:"effective"`
	Expires     string `json:"expires"`
	Desc        string `json:"desc"`
	Instruction string `json:"instruction"`
}

// ClassifiedAlert is a RawAlert plus the normalized fields derived by the
// risk classifiers. Built fresh per request, never persisted on its own.
type ClassifiedAlert struct {
	RawAlert
	SeverityLevel SeverityLevel `json:"severity_level"`
	AlertType     AlertType     `json:"alert_type"`
	UrgencyLevel  UrgencyLevel  `json:"urgency_level"`
	AffectedAreas []string      `json:"affected_areas"`
}

// RiskItem is one threshold crossing on a single forecast day.
type RiskItem struct {
	Type        RiskType     `json:"type"`
	Severity    RiskSeverity `json:"severity"`
	Description string       `json:"description"`
}

// ForecastDayRisk holds the risks found on one forecast day. Days with no
// qualifying readings produce no entry, so the sequence is sparse.
type ForecastDayRisk struct {
	Date     string     `json:"date"`
	DayIndex int        `json:"day_index"`
	Risks    []RiskItem `json:"risks"`
}

// ImmediateRisk projects one active alert into the assessment.
type ImmediateRisk struct {
	Type        AlertType     `json:"type"`
	Severity    SeverityLevel `json:"severity"`
	Description string        `json:"description"`
	Urgency     UrgencyLevel  `json:"urgency"`
}

// UpcomingRisk is a forecast risk annotated with its source day.
type UpcomingRisk struct {
	Type        RiskType     `json:"type"`
	Severity    RiskSeverity `json:"severity"`
	Description string       `json:"description"`
	Date        string       `json:"date"`
	DayIndex    int          `json:"day_index"`
}

// RiskAssessment is the aggregate risk judgment for a location.
// OverallRisk never regresses within one assessment pass.
type RiskAssessment struct {
	OverallRisk           RiskLevel       `json:"overall_risk"`
	ImmediateRisks        []ImmediateRisk `json:"immediate_risks"`
	UpcomingRisks         []UpcomingRisk  `json:"upcoming_risks"`
	SafetyRecommendations []string        `json:"safety_recommendations"`
}

// SafetyAssessment is the outcome of checking live readings against the
// instantaneous safety thresholds.
type SafetyAssessment struct {
	OverallSafety   SafetyLevel `json:"overall_safety"`
	Warnings        []string    `json:"warnings"`
	Recommendations []string    `json:"recommendations"`
}
