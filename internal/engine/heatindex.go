package engine

import "math"

// HeatIndexCategory buckets a heat index value.
type HeatIndexCategory string

const (
	HeatNormal         HeatIndexCategory = "Normal"
	HeatCaution        HeatIndexCategory = "Caution"
	HeatExtremeCaution HeatIndexCategory = "Extreme Caution"
	HeatDanger         HeatIndexCategory = "Danger"
	HeatExtremeDanger  HeatIndexCategory = "Extreme Danger"
)

// HeatIndex is the computed apparent temperature for a temperature/humidity
// pair. Only the two highest categories recommend suspension.
type HeatIndex struct {
	Value                 int               `json:"value"` // °C, rounded
	Category              HeatIndexCategory `json:"category"`
	SuspensionRecommended bool              `json:"suspension_recommended"`
}

// CalculateHeatIndex computes the heat index for a temperature in °C and a
// relative humidity in percent. Both inputs are required; the caller
// validates ranges before calling (garbage in, garbage out).
//
// The simplified linear approximation is used first; when it reaches 80°F
// the full Rothfusz regression replaces it, with the NWS low-humidity and
// high-humidity boundary corrections.
func CalculateHeatIndex(tempC, humidity float64) HeatIndex {
	t := tempC*9/5 + 32 // °F
	rh := humidity

	hi := 0.5 * (t + 61.0 + (t-68.0)*1.2 + rh*0.094)

	if hi >= 80 {
		hi = -42.379 +
			2.04901523*t +
			10.14333127*rh -
			0.22475541*t*rh -
			0.00683783*t*t -
			0.05481717*rh*rh +
			0.00122874*t*t*rh +
			0.00085282*t*rh*rh -
			0.00000199*t*t*rh*rh

		if rh < 13 && t >= 80 && t <= 112 {
			hi -= ((13 - rh) / 4) * math.Sqrt((17-math.Abs(t-95))/17)
		}
		if rh > 85 && t >= 80 && t <= 87 {
			hi += ((rh - 85) / 10) * ((87 - t) / 5)
		}
	}

	valueC := int(math.Round((hi - 32) * 5 / 9))
	category := heatCategory(valueC)

	return HeatIndex{
		Value:                 valueC,
		Category:              category,
		SuspensionRecommended: category == HeatDanger || category == HeatExtremeDanger,
	}
}

// heatCategory maps a heat index in °C to its category band.
func heatCategory(hiC int) HeatIndexCategory {
	switch {
	case hiC >= 52:
		return HeatExtremeDanger
	case hiC >= 42:
		return HeatDanger
	case hiC >= 33:
		return HeatExtremeCaution
	case hiC >= 27:
		return HeatCaution
	default:
		return HeatNormal
	}
}
