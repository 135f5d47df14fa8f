package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"weatherrelay/backend/services/weather-relay/internal/models"
	"weatherrelay/backend/services/weather-relay/internal/normalize"
	"weatherrelay/backend/services/weather-relay/internal/repository"
)

// RecentReader returns the latest readings, newest first.
type RecentReader interface {
	Recent(ctx context.Context, limit int) ([]models.Reading, error)
}

// WeatherHandler serves the most recent readings in display units.
type WeatherHandler struct {
	reader RecentReader
	logger *zap.Logger
}

// NewWeatherHandler returns handler.
func NewWeatherHandler(reader RecentReader, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		reader: reader,
		logger: logger,
	}
}

// ServeHTTP handles GET /api/weather.
func (h *WeatherHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	readings, err := h.reader.Recent(r.Context(), repository.DefaultRecentLimit)
	if err != nil {
		h.logger.Error("failed to fetch readings", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "Error fetching data",
			"error":   err.Error(),
		})
		return
	}
	if len(readings) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "No data found"})
		return
	}
	writeJSON(w, http.StatusOK, normalize.NormalizeAll(readings))
}
