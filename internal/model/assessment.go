package model

import "time"

// RiskTier buckets a combined risk score.
type RiskTier string

const (
	RiskLow      RiskTier = "Low"
	RiskModerate RiskTier = "Moderate"
	RiskHigh     RiskTier = "High"
	RiskCritical RiskTier = "Critical"
)

// TierForScore maps a combined score to its risk tier. Boundaries are exact:
// 70 is Critical, 50 is High, 30 is Moderate.
func TierForScore(score int) RiskTier {
	switch {
	case score >= 70:
		return RiskCritical
	case score >= 50:
		return RiskHigh
	case score >= 30:
		return RiskModerate
	default:
		return RiskLow
	}
}

// Valid reports whether t is a recognized tier.
func (t RiskTier) Valid() bool {
	switch t {
	case RiskLow, RiskModerate, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// AssessmentSource tags which scorer produced a result so consumers can
// distinguish authoritative output from degraded output.
type AssessmentSource string

const (
	SourceAI       AssessmentSource = "ai"
	SourceFallback AssessmentSource = "fallback"
)

// RiskAssessment is the product of one analysis run. It is created fresh on
// every invocation, never mutated, and superseded by the next run.
type RiskAssessment struct {
	OverallRisk           RiskTier         `json:"overall_risk"`
	SuspensionRecommended bool             `json:"suspension_recommended"`
	WeatherScore          int              `json:"weather_score"`
	ReportsScore          int              `json:"reports_score"`
	CombinedScore         int              `json:"combined_score"`
	AffectedCities        []string         `json:"affected_cities"`
	RiskFactors           []string         `json:"risk_factors"`
	Advisory              string           `json:"advisory"`
	PriorityActions       []string         `json:"priority_actions"`
	ExpectedConditions    string           `json:"expected_conditions"`
	Source                AssessmentSource `json:"source"`
	GeneratedAt           time.Time        `json:"generated_at"`
}

// ReportClassification is the product of classifying a batch of reports into
// priority buckets.
type ReportClassification struct {
	TotalReports      int              `json:"total_reports"`
	CriticalCount     int              `json:"critical_count"`
	MediumCount       int              `json:"medium_count"`
	LowCount          int              `json:"low_count"`
	CityCounts        map[string]int   `json:"city_counts"`
	Threats           []string         `json:"threats"`
	Priority          RiskTier         `json:"priority"`
	SuspensionAdvised bool             `json:"suspension_advised"`
	Summary           string           `json:"summary"`
	Source            AssessmentSource `json:"source"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

// CredibilityResult is the verifier's verdict on a single report. Confidence
// is the ground truth for sorting and filtering; IsCredible is a threshold
// view for display convenience.
type CredibilityResult struct {
	IsCredible bool             `json:"is_credible"`
	Confidence int              `json:"confidence"` // 0-100
	Reason     string           `json:"reason"`
	Suggestion string           `json:"suggestion,omitempty"`
	Weather    *WeatherSnapshot `json:"weather_conditions_used,omitempty"`
}

// SuspensionCandidate is a city ranked as eligible for a suspension decision.
// RiskScore is intentionally unclamped: report volume can push it past 100.
type SuspensionCandidate struct {
	City             string  `json:"city"`
	CriticalReports  int     `json:"critical_reports"`
	HighReports      int     `json:"high_reports"`
	TotalReports     int     `json:"total_reports"`
	Rainfall         float64 `json:"rainfall"`
	WindSpeed        float64 `json:"wind_speed"`
	RiskScore        int     `json:"risk_score"`
	HasWeatherRisk   bool    `json:"has_weather_risk"`
	AlreadySuspended bool    `json:"already_suspended"`
}
