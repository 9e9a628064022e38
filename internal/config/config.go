// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer
//   file and environment overrides on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"github.com/okian/gameselect/internal/domain/scoring"
	"github.com/okian/gameselect/internal/domain/similarity"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file backing the game catalog.
	DBPath string `koanf:"db_path"`

	// ProviderBaseURL overrides the upstream stats API base URL.
	ProviderBaseURL string `koanf:"provider_base_url"`

	// ProviderRatePerSecond throttles upstream requests.
	ProviderRatePerSecond float64 `koanf:"provider_rate_per_second"`

	// WorkerCount sets the number of feature warm-up workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory warm-up queue.
	QueueSize int `koanf:"queue_size"`

	// TopNMax caps the games count a single recommendation request may ask for.
	TopNMax int `koanf:"top_n_max"`

	// RefreshDays sets how many trailing days of games the background
	// refresh keeps in the catalog.
	RefreshDays int `koanf:"refresh_days"`

	// RefreshIntervalMinutes sets how often the refresh job runs.
	// Zero disables background refresh.
	RefreshIntervalMinutes int `koanf:"refresh_interval_minutes"`

	// ExcitementWeights blends action features into the excitement score.
	ExcitementWeights scoring.Weights `koanf:"excitement_weights"`

	// SimilarityWeights blends cosine and overlap similarity.
	SimilarityWeights similarity.Weights `koanf:"similarity_weights"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		DBPath:                 "gameselect.db",
		ProviderRatePerSecond:  4,
		WorkerCount:            4,
		QueueSize:              10_000,
		TopNMax:                50,
		RefreshDays:            30,
		RefreshIntervalMinutes: 60,
		ExcitementWeights:      scoring.DefaultWeights(),
		SimilarityWeights:      similarity.DefaultWeights(),
	}
}
