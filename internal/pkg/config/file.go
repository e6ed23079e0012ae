package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileConfig is the optional YAML/TOML file configuration covering
// ingestion sources and per-type weight overrides. The environment
// carries connection and runtime settings; the file carries the parts
// operators edit.
type FileConfig struct {
	Sources []SourceConfig         `mapstructure:"sources"`
	Weights map[string]WeightEntry `mapstructure:"weights"`
	Rules   RulesConfig            `mapstructure:"rules"`
}

// SourceConfig describes one HTTP ingestion source.
type SourceConfig struct {
	Name    string        `mapstructure:"name"`
	URL     string        `mapstructure:"url"`
	RPS     float64       `mapstructure:"rps"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// WeightEntry overrides one event type's weight configuration. Only the
// fields an operator sets take effect; zero values leave the default in
// place.
type WeightEntry struct {
	BaseWeight float64  `mapstructure:"base_weight"`
	MinWeight  *float64 `mapstructure:"min_weight"`
	MaxWeight  *float64 `mapstructure:"max_weight"`
}

// RulesConfig tunes rules engine behavior.
type RulesConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadFile reads the file configuration. An empty path returns an empty
// config, which keeps the built-in weight table and no sources.
func LoadFile(path string) (*FileConfig, error) {
	if path == "" {
		return &FileConfig{Rules: RulesConfig{Enabled: true}}, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	setFileDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setFileDefaults(v *viper.Viper) {
	v.SetDefault("rules.enabled", true)
}

// Validate checks that all file configuration values are usable.
func (c *FileConfig) Validate() error {
	seen := make(map[string]struct{}, len(c.Sources))
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources[%d].name is required", i)
		}
		if src.URL == "" {
			return fmt.Errorf("sources[%d].url is required", i)
		}
		if src.RPS < 0 {
			return fmt.Errorf("sources[%d].rps must not be negative", i)
		}
		if _, dup := seen[src.Name]; dup {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		seen[src.Name] = struct{}{}
	}

	for name, entry := range c.Weights {
		if entry.BaseWeight < 0 {
			return fmt.Errorf("weights.%s.base_weight must not be negative", name)
		}
		if entry.MinWeight != nil && entry.MaxWeight != nil && *entry.MinWeight > *entry.MaxWeight {
			return fmt.Errorf("weights.%s: min_weight exceeds max_weight", name)
		}
	}
	return nil
}
