// Package engine implements the suspension decision engine: heat index,
// report credibility verification, deterministic risk scoring, AI advisory
// with fallback, and suspension candidate ranking.
package engine

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/bantay-panahon/stormwatch/internal/config"
)

// DefaultEngineConfig returns an EngineConfig with the stock keyword tables
// and thresholds.
func DefaultEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		CriticalKeywords: []string{
			"flood", "landslide", "strong wind", "typhoon", "severe",
			"emergency", "impassable", "evacuation", "danger",
		},
		MediumKeywords: []string{
			"rain", "wind", "weather", "storm", "warning", "alert", "slippery",
		},

		CriticalCountForCritical: 5,
		CriticalCountForMedium:   2,
		MediumCountForMedium:     10,

		MaxPromptReports: 30,
		MaxRiskFactors:   10,
	}
}

// ValidateConfig checks that an EngineConfig is internally consistent.
func ValidateConfig(c config.EngineConfig) error {
	var errs []string

	if len(c.CriticalKeywords) == 0 {
		errs = append(errs, "critical_keywords must not be empty")
	}
	if len(c.MediumKeywords) == 0 {
		errs = append(errs, "medium_keywords must not be empty")
	}

	counts := map[string]int{
		"critical_count_for_critical": c.CriticalCountForCritical,
		"critical_count_for_medium":   c.CriticalCountForMedium,
		"medium_count_for_medium":     c.MediumCountForMedium,
		"max_prompt_reports":          c.MaxPromptReports,
		"max_risk_factors":            c.MaxRiskFactors,
	}
	for name, n := range counts {
		if n <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be > 0", name))
		}
	}

	if c.CriticalCountForMedium > c.CriticalCountForCritical {
		errs = append(errs, "critical_count_for_medium must be <= critical_count_for_critical")
	}

	if len(errs) > 0 {
		return eris.Errorf("engine: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Normalized returns cfg with zero-valued fields replaced by defaults, so a
// partially-populated config (e.g. from a sparse YAML file) still scores.
func Normalized(c config.EngineConfig) config.EngineConfig {
	def := DefaultEngineConfig()
	if len(c.CriticalKeywords) == 0 {
		c.CriticalKeywords = def.CriticalKeywords
	}
	if len(c.MediumKeywords) == 0 {
		c.MediumKeywords = def.MediumKeywords
	}
	if c.CriticalCountForCritical <= 0 {
		c.CriticalCountForCritical = def.CriticalCountForCritical
	}
	if c.CriticalCountForMedium <= 0 {
		c.CriticalCountForMedium = def.CriticalCountForMedium
	}
	if c.MediumCountForMedium <= 0 {
		c.MediumCountForMedium = def.MediumCountForMedium
	}
	if c.MaxPromptReports <= 0 {
		c.MaxPromptReports = def.MaxPromptReports
	}
	if c.MaxRiskFactors <= 0 {
		c.MaxRiskFactors = def.MaxRiskFactors
	}
	return c
}
