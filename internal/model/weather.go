package model

import "time"

// WeatherSnapshot holds per-city telemetry at a point in time. Rainfall and
// WindSpeed are never negative; a missing city simply contributes nothing to
// weather scoring.
type WeatherSnapshot struct {
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"` // °C
	Humidity    float64   `json:"humidity"`    // %
	Rainfall    float64   `json:"rainfall"`    // mm/h
	WindSpeed   float64   `json:"wind_speed"`  // km/h
	Condition   string    `json:"condition"`   // e.g. "Clear", "Rain", "Thunderstorm"
	ObservedAt  time.Time `json:"observed_at"`
}

// Clear reports whether the snapshot describes clear weather.
func (w WeatherSnapshot) Clear() bool {
	return w.Condition == "Clear"
}
