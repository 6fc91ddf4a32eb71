package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/bantay-panahon/stormwatch/internal/model"
)

// credibleThreshold is the confidence below which a report is flagged as not
// credible. The numeric confidence remains the ground truth for consumers.
const credibleThreshold = 40

// VerifyReport cross-checks a report's claimed hazard against the current
// telemetry for its city. A nil snapshot never rejects the report: absence
// of evidence defaults to credible at confidence 50.
func VerifyReport(r model.Report, w *model.WeatherSnapshot) model.CredibilityResult {
	if w == nil {
		return model.CredibilityResult{
			IsCredible: true,
			Confidence: 50,
			Reason:     "weather data unavailable for this city; report accepted without telemetry cross-check",
		}
	}

	res := verifyAgainstWeather(r, *w)
	res.Weather = w

	zap.L().Debug("engine: verified report",
		zap.String("city", r.City),
		zap.String("category", string(r.Category)),
		zap.Int("confidence", res.Confidence),
		zap.Bool("credible", res.IsCredible),
	)
	return res
}

func verifyAgainstWeather(r model.Report, w model.WeatherSnapshot) model.CredibilityResult {
	switch r.Category {
	case model.CategoryFlooding:
		return verifyFlooding(w)
	case model.CategoryHeavyRain:
		return verifyHeavyRain(w)
	case model.CategoryStorm:
		return verifyStorm(w)
	case model.CategoryStrongWind:
		return verifyStrongWind(w)
	case model.CategoryLandslide:
		return verifyLandslide(w)
	case model.CategoryRoadBlockage:
		return result(75, "road blockage reports are not weather-checked; accepted for ground verification")
	case model.CategoryPowerOutage:
		return result(80, "power outage reports are not weather-checked; accepted for utility follow-up")
	case model.CategoryInfrastructure:
		return result(80, "infrastructure reports are not weather-checked; accepted for inspection")
	case model.CategoryOther:
		return result(70, "uncategorized hazard; accepted without telemetry cross-check")
	default:
		// Unrecognized categories never hard-fail a submission.
		return result(70, fmt.Sprintf("unrecognized category %q; accepted by default", r.Category))
	}
}

func verifyFlooding(w model.WeatherSnapshot) model.CredibilityResult {
	switch {
	case w.Rainfall > 5:
		return result(95, fmt.Sprintf("active rainfall of %.1f mm/h supports a flooding report", w.Rainfall))
	case w.Rainfall == 0 && w.Clear():
		r := result(30, "no rainfall recorded and conditions are clear; flooding claim is implausible right now")
		r.Suggestion = "If flood water is residual from earlier rain, mention when the flooding started in the description."
		return r
	case w.Rainfall > 0:
		return result(75, fmt.Sprintf("light rainfall of %.1f mm/h partially supports the report", w.Rainfall))
	default:
		return result(60, fmt.Sprintf("no active rainfall but conditions are %q; flooding may be residual", w.Condition))
	}
}

func verifyHeavyRain(w model.WeatherSnapshot) model.CredibilityResult {
	switch {
	case w.Rainfall > 10:
		return result(95, fmt.Sprintf("rainfall of %.1f mm/h confirms heavy rain", w.Rainfall))
	case w.Rainfall > 2.5:
		return result(85, fmt.Sprintf("moderate rainfall of %.1f mm/h supports the report", w.Rainfall))
	case w.Rainfall == 0 && w.Clear():
		r := result(25, "no rainfall recorded and conditions are clear; heavy rain claim does not match telemetry")
		r.Suggestion = "Check that the correct city was selected for this report."
		return r
	default:
		return result(60, fmt.Sprintf("light or no rainfall under %q conditions; rain may be localized", w.Condition))
	}
}

func verifyStorm(w model.WeatherSnapshot) model.CredibilityResult {
	switch {
	case (w.Rainfall > 10 && w.WindSpeed > 40) || w.Condition == "Thunderstorm" || w.WindSpeed > 60:
		return result(95, "storm conditions confirmed by rainfall, wind speed, or thunderstorm telemetry")
	case w.Rainfall < 2 && w.WindSpeed < 20 && w.Clear():
		r := result(20, "calm, clear conditions contradict a storm report")
		r.Suggestion = "Verify the city and consider the strong_wind or heavy_rain category if conditions were brief."
		return r
	default:
		return result(65, fmt.Sprintf("mixed conditions (%.1f mm/h rain, %.0f km/h wind); storm activity possible", w.Rainfall, w.WindSpeed))
	}
}

func verifyStrongWind(w model.WeatherSnapshot) model.CredibilityResult {
	switch {
	case w.WindSpeed > 50:
		return result(95, fmt.Sprintf("wind speed of %.0f km/h confirms strong winds", w.WindSpeed))
	case w.WindSpeed > 30:
		return result(85, fmt.Sprintf("elevated wind speed of %.0f km/h supports the report", w.WindSpeed))
	case w.WindSpeed < 15:
		r := result(30, fmt.Sprintf("wind speed of only %.0f km/h does not support a strong wind report", w.WindSpeed))
		r.Suggestion = "Gusts can be brief; if winds have since calmed, note the time of the event."
		return r
	default:
		return result(70, fmt.Sprintf("moderate wind speed of %.0f km/h; strong gusts are plausible", w.WindSpeed))
	}
}

// verifyLandslide is deliberately lenient: slides can lag rainfall by hours
// or days, so clear weather never rejects the report.
func verifyLandslide(w model.WeatherSnapshot) model.CredibilityResult {
	switch {
	case w.Rainfall > 10:
		return result(90, fmt.Sprintf("heavy rainfall of %.1f mm/h raises landslide likelihood", w.Rainfall))
	case w.Rainfall > 0:
		return result(75, "active rainfall supports landslide conditions")
	default:
		return result(60, "no active rainfall, but landslides can follow earlier saturation; report accepted")
	}
}

func result(confidence int, reason string) model.CredibilityResult {
	return model.CredibilityResult{
		IsCredible: confidence >= credibleThreshold,
		Confidence: clampInt(confidence, 0, 100),
		Reason:     reason,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
