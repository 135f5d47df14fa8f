// Package normalize converts raw readings into display units.
package normalize

import (
	"math"

	"weatherrelay/backend/services/weather-relay/internal/models"
)

const kphToMph = 0.621371

// Normalize converts temperature to Fahrenheit and wind values to mph, rounded
// to one decimal. Absent values stay absent and other fields pass through.
func Normalize(r models.Reading) models.NormalizedReading {
	return models.NormalizedReading{
		Timestamp:                  r.Timestamp,
		Temperature:                convert(r.Temperature, CelsiusToFahrenheit),
		RelativeHumidity:           r.RelativeHumidity,
		WindSpeed:                  convert(r.WindSpeed, KphToMph),
		WindGust:                   convert(r.WindGust, KphToMph),
		WindDirection:              r.WindDirection,
		SkyCover:                   r.SkyCover,
		ProbabilityOfPrecipitation: r.ProbabilityOfPrecipitation,
	}
}

// NormalizeAll normalizes a batch preserving order.
func NormalizeAll(readings []models.Reading) []models.NormalizedReading {
	out := make([]models.NormalizedReading, 0, len(readings))
	for _, r := range readings {
		out = append(out, Normalize(r))
	}
	return out
}

// CelsiusToFahrenheit returns round(c*9/5+32, 1).
func CelsiusToFahrenheit(c float64) float64 {
	return roundTenth(c*9/5 + 32)
}

// KphToMph returns round(kph*0.621371, 1).
func KphToMph(kph float64) float64 {
	return roundTenth(kph * kphToMph)
}

// roundTenth rounds half up, like Math.round on the dashboard side.
func roundTenth(v float64) float64 {
	return math.Floor(float64(v*10)+0.5) / 10
}

func convert(v *float64, fn func(float64) float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	out := fn(*v)
	return &out
}
