package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bantay-panahon/stormwatch/internal/model"
)

func critReports(city string, critical, high int) []model.Report {
	var out []model.Report
	for i := 0; i < critical; i++ {
		out = append(out, model.Report{City: city, Severity: model.SeverityCritical})
	}
	for i := 0; i < high; i++ {
		out = append(out, model.Report{City: city, Severity: model.SeverityHigh})
	}
	return out
}

func TestRankCandidatesEmpty(t *testing.T) {
	assert.Empty(t, RankCandidates(nil, nil, nil))
}

func TestRankCandidatesWeatherAloneQualifies(t *testing.T) {
	// Rainfall just past the band with no reports at all.
	got := RankCandidates(nil, []model.WeatherSnapshot{{City: "Marikina", Rainfall: 22, WindSpeed: 10}}, nil)

	require.Len(t, got, 1)
	c := got[0]
	assert.Equal(t, "Marikina", c.City)
	assert.Equal(t, 50, c.RiskScore)
	assert.True(t, c.HasWeatherRisk)
	assert.Equal(t, 0, c.TotalReports)
	assert.False(t, c.AlreadySuspended)
}

func TestRankCandidatesBelowThresholdsExcluded(t *testing.T) {
	// Moderate weather plus two critical reports stays under both gates.
	got := RankCandidates(
		critReports("Pasig", 2, 0),
		[]model.WeatherSnapshot{{City: "Pasig", Rainfall: 15, WindSpeed: 30}},
		nil,
	)
	assert.Empty(t, got)
}

func TestRankCandidatesCriticalMassAloneQualifies(t *testing.T) {
	// Three critical reports qualify even with a sub-50 risk score.
	got := RankCandidates(critReports("Manila", 3, 0), nil, nil)

	require.Len(t, got, 1)
	assert.Equal(t, 45, got[0].RiskScore)
	assert.Equal(t, 3, got[0].CriticalReports)
	assert.False(t, got[0].HasWeatherRisk)
}

func TestWeatherRiskScoreTiers(t *testing.T) {
	tests := []struct {
		name     string
		rainfall float64
		wind     float64
		want     int
	}{
		{"calm", 10, 20, 0},
		{"band edge rain", 20, 0, 0},
		{"band edge wind", 0, 60, 0},
		{"base rain", 22, 10, 50},
		{"escalated rain", 30, 10, 60},
		{"severe rain", 35, 10, 70},
		{"wind entry escalates fully", 0, 61, 70},
		{"rain entry with moderate wind", 25, 52, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, weatherRiskScore(tt.rainfall, tt.wind))
		})
	}
}

func TestRankCandidatesRiskScoreNotClamped(t *testing.T) {
	// Report risk stacks on weather risk without an upper bound.
	reports := critReports("Marikina", 6, 2)
	got := RankCandidates(reports, []model.WeatherSnapshot{{City: "Marikina", Rainfall: 40}}, nil)

	require.Len(t, got, 1)
	assert.Equal(t, 70+6*15+2*10, got[0].RiskScore)
}

func TestRankCandidatesOrdering(t *testing.T) {
	reports := append(critReports("Aurora", 3, 0), critReports("Baguio", 3, 0)...)
	reports = append(reports, model.Report{City: "Baguio", Severity: model.SeverityLow})
	reports = append(reports, critReports("Caloocan", 4, 0)...)

	got := RankCandidates(reports, nil, nil)

	require.Len(t, got, 3)
	// Caloocan leads on score; Baguio beats Aurora on total reports at
	// equal score.
	assert.Equal(t, "Caloocan", got[0].City)
	assert.Equal(t, "Baguio", got[1].City)
	assert.Equal(t, "Aurora", got[2].City)
}

func TestRankCandidatesTieBreakByCityName(t *testing.T) {
	reports := append(critReports("Quezon City", 3, 0), critReports("Pasig", 3, 0)...)

	first := RankCandidates(reports, nil, nil)
	second := RankCandidates(reports, nil, nil)

	require.Len(t, first, 2)
	assert.Equal(t, "Pasig", first[0].City)
	assert.Equal(t, first, second)
}

func TestRankCandidatesSuspendedMarkedNotExcluded(t *testing.T) {
	got := RankCandidates(
		critReports("Marikina", 4, 0),
		nil,
		map[string]bool{"Marikina": true},
	)

	require.Len(t, got, 1)
	assert.True(t, got[0].AlreadySuspended)
}

func TestRankCandidatesUnionOfInputs(t *testing.T) {
	// One city appears only in reports, another only in telemetry.
	got := RankCandidates(
		critReports("Manila", 3, 0),
		[]model.WeatherSnapshot{{City: "Taguig", Rainfall: 36}},
		nil,
	)

	require.Len(t, got, 2)
	assert.Equal(t, "Taguig", got[0].City)
	assert.Equal(t, "Manila", got[1].City)
}
