package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bantay-panahon/stormwatch/internal/config"
	"github.com/bantay-panahon/stormwatch/internal/model"
)

// FallbackScorer is the deterministic, rule-based scorer. It is the source
// of record whenever the AI service is unreachable or returns unusable
// output, and both entry points are pure functions over their inputs apart
// from the final timestamp.
type FallbackScorer struct {
	cfg config.EngineConfig
	now func() time.Time
}

// NewFallbackScorer creates a scorer with the given engine config. Missing
// config fields fall back to defaults.
func NewFallbackScorer(cfg config.EngineConfig) *FallbackScorer {
	return &FallbackScorer{cfg: Normalized(cfg), now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (s *FallbackScorer) WithNow(t time.Time) *FallbackScorer {
	s.now = func() time.Time { return t }
	return s
}

// ClassifyReports classifies a batch of reports into priority buckets using
// severity and keyword scans, and aggregates per-city counts.
func (s *FallbackScorer) ClassifyReports(reports []model.Report) model.ReportClassification {
	c := model.ReportClassification{
		TotalReports: len(reports),
		CityCounts:   make(map[string]int),
		Source:       model.SourceFallback,
		GeneratedAt:  s.now().UTC(),
	}

	threatSeen := make(map[string]bool)
	for _, r := range reports {
		if r.City != "" {
			c.CityCounts[r.City]++
		}

		switch {
		case r.Severity.CriticalOrHigh():
			c.CriticalCount++
		default:
			text := r.SearchText()
			if hits := matchKeywords(s.cfg.CriticalKeywords, text); len(hits) > 0 {
				c.CriticalCount++
				for _, h := range hits {
					threatSeen[h] = true
				}
			} else if hits := matchKeywords(s.cfg.MediumKeywords, text); len(hits) > 0 {
				c.MediumCount++
				for _, h := range hits {
					threatSeen[h] = true
				}
			} else {
				c.LowCount++
			}
		}
	}

	// Threats in keyword-table order so output is deterministic.
	for _, kw := range s.cfg.CriticalKeywords {
		if threatSeen[kw] {
			c.Threats = append(c.Threats, kw)
		}
	}
	for _, kw := range s.cfg.MediumKeywords {
		if threatSeen[kw] {
			c.Threats = append(c.Threats, kw)
		}
	}

	switch {
	case c.CriticalCount >= s.cfg.CriticalCountForCritical:
		c.Priority = model.RiskCritical
	case c.CriticalCount >= s.cfg.CriticalCountForMedium || c.MediumCount >= s.cfg.MediumCountForMedium:
		c.Priority = model.RiskModerate
	default:
		c.Priority = model.RiskLow
	}
	c.SuspensionAdvised = c.Priority == model.RiskCritical

	c.Summary = classificationSummary(c)

	zap.L().Info("engine: classified report batch",
		zap.Int("total", c.TotalReports),
		zap.Int("critical", c.CriticalCount),
		zap.Int("medium", c.MediumCount),
		zap.String("priority", string(c.Priority)),
	)
	return c
}

// classificationSummary builds the summary line: total count, critical
// count, and up to three observed threats (truncated deterministically).
func classificationSummary(c model.ReportClassification) string {
	threats := c.Threats
	if len(threats) > 3 {
		threats = threats[:3]
	}
	summary := fmt.Sprintf("%d reports analyzed: %d critical, %d medium, %d low.",
		c.TotalReports, c.CriticalCount, c.MediumCount, c.LowCount)
	if len(threats) > 0 {
		summary += " Observed threats: " + strings.Join(threats, ", ") + "."
	}
	return summary
}

// AssessRisk combines per-city telemetry and report severities into a single
// bounded risk assessment. The combined score is the unconditional average
// of the weather and report scores, even when one signal is absent.
func (s *FallbackScorer) AssessRisk(snapshots []model.WeatherSnapshot, reports []model.Report) model.RiskAssessment {
	weatherScore, riskFactors, affected := scoreWeather(snapshots)

	critHigh := 0
	for _, r := range reports {
		if r.Severity.CriticalOrHigh() {
			critHigh++
			if r.City != "" {
				affected[r.City] = true
			}
		}
	}
	reportsScore := int(math.Min(float64(critHigh)*10, 100))

	combined := int(math.Min(math.Round(float64(weatherScore+reportsScore)/2), 100))
	tier := model.TierForScore(combined)

	a := model.RiskAssessment{
		OverallRisk:           tier,
		SuspensionRecommended: tier == model.RiskCritical || tier == model.RiskHigh,
		WeatherScore:          clampInt(weatherScore, 0, 100),
		ReportsScore:          reportsScore,
		CombinedScore:         combined,
		AffectedCities:        sortedCities(affected),
		RiskFactors:           boundFactors(riskFactors, s.cfg.MaxRiskFactors),
		Advisory:              advisoryForTier(tier),
		PriorityActions:       actionsForTier(tier),
		ExpectedConditions:    conditionsForTier(tier),
		Source:                model.SourceFallback,
		GeneratedAt:           s.now().UTC(),
	}

	zap.L().Info("engine: fallback risk assessment",
		zap.Int("weather_score", a.WeatherScore),
		zap.Int("reports_score", a.ReportsScore),
		zap.Int("combined_score", a.CombinedScore),
		zap.String("tier", string(a.OverallRisk)),
		zap.Bool("suspend", a.SuspensionRecommended),
	)
	return a
}

// scoreWeather accumulates tiered additions per city. The raw sum is not
// capped here; capping happens at combination.
func scoreWeather(snapshots []model.WeatherSnapshot) (int, []string, map[string]bool) {
	score := 0
	var factors []string
	affected := make(map[string]bool)

	for _, w := range snapshots {
		cityHit := false

		switch {
		case w.Rainfall > 20:
			score += 40
			factors = append(factors, fmt.Sprintf("Intense rainfall in %s (%.1f mm/h)", w.City, w.Rainfall))
			cityHit = true
		case w.Rainfall > 10:
			score += 25
			factors = append(factors, fmt.Sprintf("Heavy rainfall in %s (%.1f mm/h)", w.City, w.Rainfall))
			cityHit = true
		}

		switch {
		case w.WindSpeed > 60:
			score += 35
			factors = append(factors, fmt.Sprintf("Damaging winds in %s (%.0f km/h)", w.City, w.WindSpeed))
			cityHit = true
		case w.WindSpeed > 40:
			score += 20
			factors = append(factors, fmt.Sprintf("Strong winds in %s (%.0f km/h)", w.City, w.WindSpeed))
			cityHit = true
		}

		if w.Temperature > 38 {
			score += 15
			factors = append(factors, fmt.Sprintf("Extreme heat in %s (%.1f °C)", w.City, w.Temperature))
			cityHit = true
		}

		if cityHit && w.City != "" {
			affected[w.City] = true
		}
	}

	return score, factors, affected
}

// boundFactors dedupes risk factors preserving order and caps the count.
func boundFactors(factors []string, max int) []string {
	seen := make(map[string]bool, len(factors))
	var out []string
	for _, f := range factors {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
		if len(out) == max {
			break
		}
	}
	return out
}

func sortedCities(set map[string]bool) []string {
	cities := make([]string, 0, len(set))
	for c := range set {
		cities = append(cities, c)
	}
	sort.Strings(cities)
	return cities
}

func advisoryForTier(t model.RiskTier) string {
	switch t {
	case model.RiskCritical:
		return "Critical weather risk. Class suspension is strongly recommended for affected cities. Residents should avoid unnecessary travel and monitor official advisories."
	case model.RiskHigh:
		return "High weather risk. Class suspension is recommended. Conditions may deteriorate quickly; keep emergency supplies ready."
	case model.RiskModerate:
		return "Moderate weather risk. Classes may proceed, but schools and parents should stay alert for rapidly changing conditions."
	default:
		return "Low weather risk. No suspension warranted. Continue routine monitoring of reports and telemetry."
	}
}

func actionsForTier(t model.RiskTier) []string {
	switch t {
	case model.RiskCritical:
		return []string{
			"Issue suspension notices for affected cities immediately",
			"Activate local disaster response coordination",
			"Broadcast evacuation routes for flood-prone barangays",
			"Pre-position rescue teams near high-report areas",
		}
	case model.RiskHigh:
		return []string{
			"Prepare suspension notices for likely-affected cities",
			"Alert school administrators to stand by for announcements",
			"Verify drainage and road conditions in high-report areas",
		}
	case model.RiskModerate:
		return []string{
			"Continue monitoring telemetry at increased frequency",
			"Triage incoming community reports for verification",
			"Remind schools of suspension decision protocols",
		}
	default:
		return []string{
			"Maintain routine telemetry monitoring",
			"Process community reports through standard verification",
			"Review suspension readiness checklists",
		}
	}
}

func conditionsForTier(t model.RiskTier) string {
	switch t {
	case model.RiskCritical:
		return "Severe conditions expected to persist or worsen over the next several hours; flooding and wind damage likely in affected cities."
	case model.RiskHigh:
		return "Adverse conditions likely to continue; localized flooding and strong gusts possible in affected cities."
	case model.RiskModerate:
		return "Unsettled conditions with intermittent rain or gusts possible; no widespread impact expected."
	default:
		return "Generally stable conditions expected; no significant weather impact anticipated."
	}
}

// matchKeywords returns the keywords present in the given lowercased text,
// in table order.
func matchKeywords(keywords []string, text string) []string {
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched
}
