package repository

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"weatherrelay/backend/services/weather-relay/internal/models"
)

// DefaultRecentLimit is how many readings the query endpoint returns.
const DefaultRecentLimit = 24

const selectColumns = `
	recorded_at,
	temperature,
	relative_humidity,
	wind_speed,
	wind_gust,
	wind_direction,
	sky_cover,
	probability_of_precipitation
`

// ReadingRepository reads weather observations from Postgres.
type ReadingRepository struct {
	db *sql.DB
}

// NewReadingRepository returns repository.
func NewReadingRepository(db *sql.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// Latest returns the most recent reading, or nil when the table is empty.
func (r *ReadingRepository) Latest(ctx context.Context) (*models.Reading, error) {
	query := `SELECT ` + selectColumns + `
		FROM weather_readings
		ORDER BY recorded_at DESC
		LIMIT 1
	`
	reading, err := scanReading(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

// Recent returns up to limit readings ordered by timestamp descending.
func (r *ReadingRepository) Recent(ctx context.Context, limit int) ([]models.Reading, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	query := `SELECT ` + selectColumns + `
		FROM weather_readings
		ORDER BY recorded_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReading(row scanner) (models.Reading, error) {
	var (
		recordedAt time.Time
		temp       sql.NullFloat64
		humidity   sql.NullFloat64
		windSpeed  sql.NullFloat64
		windGust   sql.NullFloat64
		windDir    sql.NullFloat64
		skyCover   sql.NullFloat64
		precip     sql.NullFloat64
	)
	if err := row.Scan(&recordedAt, &temp, &humidity, &windSpeed, &windGust, &windDir, &skyCover, &precip); err != nil {
		return models.Reading{}, err
	}
	return models.Reading{
		Timestamp:                  FormatTimestamp(recordedAt),
		Temperature:                nullable(temp),
		RelativeHumidity:           nullable(humidity),
		WindSpeed:                  nullable(windSpeed),
		WindGust:                   nullable(windGust),
		WindDirection:              nullable(windDir),
		SkyCover:                   nullable(skyCover),
		ProbabilityOfPrecipitation: nullable(precip),
	}, nil
}

// FormatTimestamp renders a store timestamp as the reading identity key.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullable maps NULL and non-finite values (Postgres allows 'NaN') to absent.
func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return nil
	}
	return models.Float(v.Float64)
}
