// Package config loads process configuration from the environment and,
// for ingestion sources and weight overrides, from an optional file.
package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	PostgresURL      string        `env:"POSTGRES_URL,required"`
	RedisAddr        string        `env:"REDIS_ADDR,required"`
	KafkaBrokers     []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic       string        `env:"KAFKA_TOPIC" envDefault:"coverage_events"`
	ServerAddr       string        `env:"SERVER_ADDR" envDefault:":8080"`
	AdminAddr        string        `env:"ADMIN_ADDR" envDefault:":9091"`
	WorkspaceID      string        `env:"WORKSPACE_ID" envDefault:"default"`
	PipelineInterval time.Duration `env:"PIPELINE_INTERVAL" envDefault:"5m"`
	SourceTimeout    time.Duration `env:"SOURCE_TIMEOUT" envDefault:"30s"`
	ConfigFile       string        `env:"CONFIG_FILE" envDefault:""`
	AlertLookback    time.Duration `env:"ALERT_LOOKBACK" envDefault:"24h"`
	AlertHistory     time.Duration `env:"ALERT_HISTORY" envDefault:"720h"` // 30 days
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
