package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GAMESELECT_CONFIG is set
//  3. env (prefix GAMESELECT_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("GAMESELECT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: GAMESELECT_ADDR, GAMESELECT_DB_PATH, ...
	// Map env keys like GAMESELECT_QUEUE_SIZE -> queue_size (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("GAMESELECT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "gameselect_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.TopNMax <= 0 {
		return fmt.Errorf("%w: top_n_max must be positive", ErrInvalidConfig)
	}
	if c.RefreshDays <= 0 {
		return fmt.Errorf("%w: refresh_days must be positive", ErrInvalidConfig)
	}
	if c.ProviderRatePerSecond <= 0 {
		return fmt.Errorf("%w: provider_rate_per_second must be positive", ErrInvalidConfig)
	}
	if err := c.ExcitementWeights.Validate(); err != nil {
		return fmt.Errorf("%w: excitement_weights: %w", ErrInvalidConfig, err)
	}
	if err := c.SimilarityWeights.Validate(); err != nil {
		return fmt.Errorf("%w: similarity_weights: %w", ErrInvalidConfig, err)
	}
	return nil
}
