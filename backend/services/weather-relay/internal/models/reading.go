package models

import (
	"math"
	"strconv"
	"strings"
)

// Reading is a single weather observation in source units (°C, km/h).
type Reading struct {
	Timestamp                  string   `json:"timestamp"`
	Temperature                *float64 `json:"temperature"`
	RelativeHumidity           *float64 `json:"relativeHumidity"`
	WindSpeed                  *float64 `json:"windSpeed"`
	WindGust                   *float64 `json:"windGust"`
	WindDirection              *float64 `json:"windDirection"`
	SkyCover                   *float64 `json:"skyCover"`
	ProbabilityOfPrecipitation *float64 `json:"probabilityOfPrecipitation"`
}

// NormalizedReading is a Reading converted to display units (°F, mph).
// It has the same JSON shape as Reading.
type NormalizedReading struct {
	Timestamp                  string   `json:"timestamp"`
	Temperature                *float64 `json:"temperature"`
	RelativeHumidity           *float64 `json:"relativeHumidity"`
	WindSpeed                  *float64 `json:"windSpeed"`
	WindGust                   *float64 `json:"windGust"`
	WindDirection              *float64 `json:"windDirection"`
	SkyCover                   *float64 `json:"skyCover"`
	ProbabilityOfPrecipitation *float64 `json:"probabilityOfPrecipitation"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// ParseOptional parses a numeric field. Empty, malformed and non-finite input yields nil.
func ParseOptional(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
