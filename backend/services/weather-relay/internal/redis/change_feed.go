package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"weatherrelay/backend/services/weather-relay/internal/models"
)

const (
	// StreamStart is the position before the first entry of a stream.
	StreamStart = "0"

	defaultBatchSize = 100
	defaultBlock     = 5 * time.Second
)

// ChangeFeedOptions names the stream and checkpoint keys.
type ChangeFeedOptions struct {
	Stream        string
	CheckpointKey string
	BatchSize     int64
	Block         time.Duration
}

// ChangeFeed reads weather inserts from a redis stream and keeps the read
// position in a plain string key.
type ChangeFeed struct {
	client *redis.Client
	opts   ChangeFeedOptions
}

// NewChangeFeed returns redis-backed feed.
func NewChangeFeed(client *redis.Client, opts ChangeFeedOptions) *ChangeFeed {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Block <= 0 {
		opts.Block = defaultBlock
	}
	return &ChangeFeed{client: client, opts: opts}
}

// Checkpoint returns the stored position or StreamStart.
func (f *ChangeFeed) Checkpoint(ctx context.Context) (string, error) {
	id, err := f.client.Get(ctx, f.opts.CheckpointKey).Result()
	if errors.Is(err, redis.Nil) || (err == nil && id == "") {
		return StreamStart, nil
	}
	if err != nil {
		return "", fmt.Errorf("redis: get checkpoint %s: %w", f.opts.CheckpointKey, err)
	}
	return id, nil
}

// SaveCheckpoint stores the last processed entry id.
func (f *ChangeFeed) SaveCheckpoint(ctx context.Context, id string) error {
	return f.client.Set(ctx, f.opts.CheckpointKey, id, 0).Err()
}

// ReadBatch blocks on XREAD for entries after the given id.
func (f *ChangeFeed) ReadBatch(ctx context.Context, after string) ([]models.FeedEvent, error) {
	streams, err := f.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{f.opts.Stream, after},
		Count:   f.opts.BatchSize,
		Block:   f.opts.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: xread %s: %w", f.opts.Stream, err)
	}

	var events []models.FeedEvent
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			events = append(events, DecodeEvent(msg))
		}
	}
	return events, nil
}

// DecodeEvent maps a stream entry to a feed event. Missing op means insert;
// numeric fields that do not parse are left absent.
func DecodeEvent(msg redis.XMessage) models.FeedEvent {
	event := models.FeedEvent{ID: msg.ID, Op: field(msg.Values, "op")}
	if event.Op == "" {
		event.Op = models.OpInsert
	}

	ts := field(msg.Values, "timestamp")
	if ts == "" && event.Op == models.OpInsert {
		event.Err = errors.New("redis: stream entry without timestamp")
		return event
	}

	event.Reading = models.Reading{
		Timestamp:                  ts,
		Temperature:                models.ParseOptional(field(msg.Values, "temperature")),
		RelativeHumidity:           models.ParseOptional(field(msg.Values, "relativeHumidity")),
		WindSpeed:                  models.ParseOptional(field(msg.Values, "windSpeed")),
		WindGust:                   models.ParseOptional(field(msg.Values, "windGust")),
		WindDirection:              models.ParseOptional(field(msg.Values, "windDirection")),
		SkyCover:                   models.ParseOptional(field(msg.Values, "skyCover")),
		ProbabilityOfPrecipitation: models.ParseOptional(field(msg.Values, "probabilityOfPrecipitation")),
	}
	return event
}

func field(values map[string]interface{}, key string) string {
	switch v := values[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
