package model

import (
	"strings"
	"time"
)

// ReportCategory is the hazard category claimed by a community report.
type ReportCategory string

const (
	CategoryFlooding       ReportCategory = "flooding"
	CategoryHeavyRain      ReportCategory = "heavy_rain"
	CategoryStorm          ReportCategory = "storm"
	CategoryStrongWind     ReportCategory = "strong_wind"
	CategoryLandslide      ReportCategory = "landslide"
	CategoryRoadBlockage   ReportCategory = "road_blockage"
	CategoryPowerOutage    ReportCategory = "power_outage"
	CategoryInfrastructure ReportCategory = "infrastructure"
	CategoryOther          ReportCategory = "other"
)

// AllCategories returns every recognized report category.
func AllCategories() []ReportCategory {
	return []ReportCategory{
		CategoryFlooding,
		CategoryHeavyRain,
		CategoryStorm,
		CategoryStrongWind,
		CategoryLandslide,
		CategoryRoadBlockage,
		CategoryPowerOutage,
		CategoryInfrastructure,
		CategoryOther,
	}
}

// Valid reports whether c is a recognized category.
func (c ReportCategory) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// WeatherSensitive reports whether the category's claim can be cross-checked
// against live telemetry. Infrastructure-type categories cannot.
func (c ReportCategory) WeatherSensitive() bool {
	switch c {
	case CategoryFlooding, CategoryHeavyRain, CategoryStorm, CategoryStrongWind, CategoryLandslide:
		return true
	}
	return false
}

// Severity is the advisory severity assigned to a report. Once assigned by
// analysis it remains advisory; a human reviewer may override it.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// CriticalOrHigh reports whether s is one of the two top severities.
func (s Severity) CriticalOrHigh() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// ReportStatus is the review lifecycle state of a report.
type ReportStatus string

const (
	StatusPending       ReportStatus = "pending"
	StatusVerified      ReportStatus = "verified"
	StatusInvestigating ReportStatus = "investigating"
	StatusResolved      ReportStatus = "resolved"
)

// Report is a free-text, categorized hazard submission from a community
// member. Barangay and UserID are optional.
type Report struct {
	ID          string         `json:"id"`
	City        string         `json:"city"`
	Barangay    string         `json:"barangay,omitempty"`
	Category    ReportCategory `json:"category"`
	Description string         `json:"description"`
	Severity    Severity       `json:"severity,omitempty"`
	Status      ReportStatus   `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UserID      string         `json:"user_id,omitempty"`
}

// ApplyDefaults substitutes defaults for optional fields at the boundary so
// downstream code never probes for missing values.
func (r *Report) ApplyDefaults() {
	r.City = strings.TrimSpace(r.City)
	r.Description = strings.TrimSpace(r.Description)
	if r.Status == "" {
		r.Status = StatusPending
	}
	if !r.Category.Valid() {
		r.Category = CategoryOther
	}
}

// SearchText returns the lowercased text scanned by keyword classification.
func (r Report) SearchText() string {
	return strings.ToLower(r.Description + " " + string(r.Category))
}
