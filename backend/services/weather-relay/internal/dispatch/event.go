package dispatch

import (
	"github.com/goccy/go-json"

	"weatherrelay/backend/services/weather-relay/internal/models"
)

// EventWeatherUpdate is emitted once per accepted new reading.
const EventWeatherUpdate = "weatherUpdate"

// Event is the frame written to live-update subscribers.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// EncodeWeatherUpdate builds the weatherUpdate frame for a reading.
func EncodeWeatherUpdate(reading models.NormalizedReading) ([]byte, error) {
	return json.Marshal(Event{Event: EventWeatherUpdate, Data: reading})
}
