package engine

import (
	"sort"

	"go.uber.org/zap"

	"github.com/bantay-panahon/stormwatch/internal/model"
)

// cityTally accumulates per-city report counts while ranking.
type cityTally struct {
	critical int
	high     int
	total    int
}

// RankCandidates merges per-city telemetry and report aggregates into a
// sorted list of suspension candidates. Already-suspended cities are marked,
// not excluded. The ranking only justifies candidates; issuing a suspension
// is an explicit external action.
func RankCandidates(reports []model.Report, snapshots []model.WeatherSnapshot, suspended map[string]bool) []model.SuspensionCandidate {
	tallies := make(map[string]*cityTally)
	for _, r := range reports {
		if r.City == "" {
			continue
		}
		t := tallies[r.City]
		if t == nil {
			t = &cityTally{}
			tallies[r.City] = t
		}
		t.total++
		switch r.Severity {
		case model.SeverityCritical:
			t.critical++
		case model.SeverityHigh:
			t.high++
		}
	}

	weather := make(map[string]model.WeatherSnapshot)
	for _, w := range snapshots {
		if w.City != "" {
			weather[w.City] = w
		}
	}

	// Every city present in either input is considered.
	cities := make(map[string]bool)
	for c := range tallies {
		cities[c] = true
	}
	for c := range weather {
		cities[c] = true
	}

	var candidates []model.SuspensionCandidate
	for city := range cities {
		t := tallies[city]
		if t == nil {
			t = &cityTally{}
		}
		w := weather[city] // zero snapshot contributes zero weather risk

		weatherRisk := weatherRiskScore(w.Rainfall, w.WindSpeed)
		reportRisk := t.critical*15 + t.high*10
		totalRisk := weatherRisk + reportRisk

		if totalRisk < 50 && t.critical < 3 {
			continue
		}

		candidates = append(candidates, model.SuspensionCandidate{
			City:             city,
			CriticalReports:  t.critical,
			HighReports:      t.high,
			TotalReports:     t.total,
			Rainfall:         w.Rainfall,
			WindSpeed:        w.WindSpeed,
			RiskScore:        totalRisk,
			HasWeatherRisk:   weatherRisk > 0,
			AlreadySuspended: suspended[city],
		})
	}

	// Descending by risk score; ties broken by report count then city name
	// so the ordering is deterministic.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.RiskScore != b.RiskScore {
			return a.RiskScore > b.RiskScore
		}
		if a.TotalReports != b.TotalReports {
			return a.TotalReports > b.TotalReports
		}
		return a.City < b.City
	})

	zap.L().Info("engine: ranked suspension candidates",
		zap.Int("cities_considered", len(cities)),
		zap.Int("candidates", len(candidates)),
	)
	return candidates
}

// weatherRiskScore maps rainfall and wind to a tiered base risk. A city only
// enters the risk band past 20 mm/h rain or 60 km/h wind; inside the band
// lower escalation thresholds apply.
func weatherRiskScore(rainfall, windSpeed float64) int {
	if rainfall <= 20 && windSpeed <= 60 {
		return 0
	}
	risk := 50
	if rainfall >= 30 || windSpeed >= 50 {
		risk = 60
	}
	if rainfall >= 35 || windSpeed >= 55 {
		risk = 70
	}
	return risk
}
