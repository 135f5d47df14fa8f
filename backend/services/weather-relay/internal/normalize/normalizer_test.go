package normalize

import (
	"testing"

	"weatherrelay/backend/services/weather-relay/internal/models"
)

func TestNormalizeScenario(t *testing.T) {
	raw := models.Reading{
		Timestamp:   "T1",
		Temperature: models.Float(20),
		WindSpeed:   models.Float(10),
	}

	got := Normalize(raw)

	if got.Timestamp != "T1" {
		t.Fatalf("timestamp changed: %q", got.Timestamp)
	}
	if got.Temperature == nil || *got.Temperature != 68.0 {
		t.Fatalf("expected 68.0F, got %v", got.Temperature)
	}
	if got.WindSpeed == nil || *got.WindSpeed != 6.2 {
		t.Fatalf("expected 6.2mph, got %v", got.WindSpeed)
	}
	if got.WindGust != nil {
		t.Fatalf("expected absent gust to stay absent, got %v", *got.WindGust)
	}
}

func TestCelsiusToFahrenheit(t *testing.T) {
	cases := map[float64]float64{
		0:     32,
		100:   212,
		-40:   -40,
		21.3:  70.3,
		-17.5: 0.5,
		36.6:  97.9,
	}
	for in, want := range cases {
		if got := CelsiusToFahrenheit(in); got != want {
			t.Errorf("CelsiusToFahrenheit(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestKphToMph(t *testing.T) {
	cases := map[float64]float64{
		0:     0,
		10:    6.2,
		100:   62.1,
		16.09: 10,
		55.5:  34.5,
	}
	for in, want := range cases {
		if got := KphToMph(in); got != want {
			t.Errorf("KphToMph(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestNormalizeKeepsNullsAndPassThroughFields(t *testing.T) {
	raw := models.Reading{
		Timestamp:                  "2024-05-01T10:00:00Z",
		RelativeHumidity:           models.Float(81),
		WindGust:                   models.Float(30),
		WindDirection:              models.Float(270),
		SkyCover:                   models.Float(0),
		ProbabilityOfPrecipitation: models.Float(15),
	}

	got := Normalize(raw)

	if got.Temperature != nil || got.WindSpeed != nil {
		t.Fatalf("expected absent temperature and wind speed, got %+v", got)
	}
	if got.WindGust == nil || *got.WindGust != 18.6 {
		t.Fatalf("expected gust 18.6, got %v", got.WindGust)
	}
	if *got.RelativeHumidity != 81 || *got.WindDirection != 270 || *got.ProbabilityOfPrecipitation != 15 {
		t.Fatalf("pass-through fields changed: %+v", got)
	}
	if got.SkyCover == nil || *got.SkyCover != 0 {
		t.Fatalf("zero sky cover must survive as zero, got %v", got.SkyCover)
	}
}

func TestNormalizeDoesNotAliasInput(t *testing.T) {
	raw := models.Reading{Timestamp: "T1", Temperature: models.Float(10)}
	got := Normalize(raw)
	*got.Temperature = 0
	if *raw.Temperature != 10 {
		t.Fatalf("normalized value aliases raw input")
	}
}

func TestNormalizeAllPreservesOrder(t *testing.T) {
	in := []models.Reading{{Timestamp: "T3"}, {Timestamp: "T2"}, {Timestamp: "T1"}}
	out := NormalizeAll(in)
	for i := range in {
		if out[i].Timestamp != in[i].Timestamp {
			t.Fatalf("order changed at %d: %q", i, out[i].Timestamp)
		}
	}
}
