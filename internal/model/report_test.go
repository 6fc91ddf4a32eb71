package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportCategoryValid(t *testing.T) {
	for _, c := range AllCategories() {
		assert.True(t, c.Valid(), string(c))
	}
	assert.False(t, ReportCategory("tsunami").Valid())
	assert.False(t, ReportCategory("").Valid())
}

func TestWeatherSensitive(t *testing.T) {
	tests := []struct {
		category ReportCategory
		want     bool
	}{
		{CategoryFlooding, true},
		{CategoryHeavyRain, true},
		{CategoryStorm, true},
		{CategoryStrongWind, true},
		{CategoryLandslide, true},
		{CategoryRoadBlockage, false},
		{CategoryPowerOutage, false},
		{CategoryInfrastructure, false},
		{CategoryOther, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.WeatherSensitive())
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	r := Report{City: "  Quezon City ", Category: "not-a-category", Description: " flooded "}
	r.ApplyDefaults()

	assert.Equal(t, "Quezon City", r.City)
	assert.Equal(t, "flooded", r.Description)
	assert.Equal(t, CategoryOther, r.Category)
	assert.Equal(t, StatusPending, r.Status)

	// Explicit values survive.
	r2 := Report{Category: CategoryStorm, Status: StatusVerified}
	r2.ApplyDefaults()
	assert.Equal(t, CategoryStorm, r2.Category)
	assert.Equal(t, StatusVerified, r2.Status)
}

func TestSeverityCriticalOrHigh(t *testing.T) {
	assert.True(t, SeverityCritical.CriticalOrHigh())
	assert.True(t, SeverityHigh.CriticalOrHigh())
	assert.False(t, SeverityMedium.CriticalOrHigh())
	assert.False(t, SeverityLow.CriticalOrHigh())
	assert.False(t, Severity("").CriticalOrHigh())
}
