package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "weatherrelay/backend/libs/config"
	"weatherrelay/backend/services/weather-relay/internal/ingest"
)

const defaultPort = "3002"

// Config defines weather relay configuration.
type Config struct {
	HTTP struct {
		Port           string   `yaml:"port" env:"RELAY_HTTP_PORT"`
		AllowedOrigins []string `yaml:"allowedOrigins" env:"RELAY_ALLOWED_ORIGIN"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"RELAY_POSTGRES_DSN"`
	} `yaml:"database"`
	Ingest struct {
		Mode                string `yaml:"mode" env:"RELAY_INGEST_MODE"`
		PollIntervalMs      int    `yaml:"pollIntervalMs" env:"RELAY_POLL_INTERVAL_MS"`
		PollReadTimeoutMs   int    `yaml:"pollReadTimeoutMs" env:"RELAY_POLL_READ_TIMEOUT_MS"`
		MaxConsecutiveFails int    `yaml:"maxConsecutiveFailures" env:"RELAY_STREAM_MAX_FAILURES"`
	} `yaml:"ingest"`
	Redis struct {
		Addr     string `yaml:"addr" env:"RELAY_REDIS_ADDR"`
		Password string `yaml:"password" env:"RELAY_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"RELAY_REDIS_DB"`
	} `yaml:"redis"`
	Stream struct {
		Key           string `yaml:"key" env:"RELAY_STREAM_KEY"`
		CheckpointKey string `yaml:"checkpointKey" env:"RELAY_STREAM_CHECKPOINT_KEY"`
		BlockMs       int    `yaml:"blockMs" env:"RELAY_STREAM_BLOCK_MS"`
	} `yaml:"stream"`
	WebSocket struct {
		PingIntervalSeconds int `yaml:"pingIntervalSeconds" env:"RELAY_WS_PING_INTERVAL"`
		WriteTimeoutSeconds int `yaml:"writeTimeoutSeconds" env:"RELAY_WS_WRITE_TIMEOUT"`
	} `yaml:"websocket"`
}

// Load uses shared config loader and validates required fields.
func Load() (*Config, error) {
	return LoadWith(nil)
}

// LoadWith is Load with a custom environment lookup.
func LoadWith(lookup libconfig.LookupFunc) (*Config, error) {
	cfg := defaults()
	if err := libconfig.LoadConfigWith(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Port = defaultPort
	cfg.Ingest.Mode = ingest.ModePoll
	cfg.Ingest.PollIntervalMs = 2000
	cfg.Ingest.PollReadTimeoutMs = 5000
	cfg.Ingest.MaxConsecutiveFails = 3
	cfg.Redis.Addr = "localhost:6379"
	cfg.Stream.Key = "weather:readings"
	cfg.Stream.CheckpointKey = "weather:readings:checkpoint"
	cfg.Stream.BlockMs = 5000
	cfg.WebSocket.PingIntervalSeconds = 30
	cfg.WebSocket.WriteTimeoutSeconds = 10
	return cfg
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database DSN is required")
	}
	c.Ingest.Mode = strings.ToLower(strings.TrimSpace(c.Ingest.Mode))
	switch c.Ingest.Mode {
	case ingest.ModePoll:
	case ingest.ModeStream:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return errors.New("config: redis addr required in stream mode")
		}
		if strings.TrimSpace(c.Stream.Key) == "" {
			return errors.New("config: stream key required in stream mode")
		}
	default:
		return fmt.Errorf("config: unknown ingest mode %q", c.Ingest.Mode)
	}
	return nil
}

// HTTPAddress returns :port style address.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// PollInterval returns the poller interval.
func (c *Config) PollInterval() time.Duration {
	if c.Ingest.PollIntervalMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.Ingest.PollIntervalMs) * time.Millisecond
}

// PollReadTimeout bounds each store read made by the poller.
func (c *Config) PollReadTimeout() time.Duration {
	if c.Ingest.PollReadTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Ingest.PollReadTimeoutMs) * time.Millisecond
}

// StreamBlock returns the XREAD block duration.
func (c *Config) StreamBlock() time.Duration {
	if c.Stream.BlockMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Stream.BlockMs) * time.Millisecond
}

// PingInterval returns websocket ping interval.
func (c *Config) PingInterval() time.Duration {
	if c.WebSocket.PingIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.WebSocket.PingIntervalSeconds) * time.Second
}

// WriteTimeout returns websocket write timeout.
func (c *Config) WriteTimeout() time.Duration {
	if c.WebSocket.WriteTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.WebSocket.WriteTimeoutSeconds) * time.Second
}
