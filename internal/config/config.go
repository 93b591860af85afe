// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Store drivers understood by the repository layer.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the record store backend: memory, sqlite or mysql.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the data source name for the sqlite and mysql drivers.
	StoreDSN string `koanf:"store_dsn"`

	// StoreLatencyMinMS and StoreLatencyMaxMS simulate backend latency for the memory store.
	StoreLatencyMinMS int `koanf:"store_latency_min_ms"`
	StoreLatencyMaxMS int `koanf:"store_latency_max_ms"`

	// Seed loads fixture records into an empty store at start-up.
	Seed bool `koanf:"seed"`

	// SeedFile overrides the embedded fixture set with a YAML file.
	SeedFile string `koanf:"seed_file"`

	// DispatchLanes is the number of serial lanes for deal mutations.
	DispatchLanes int `koanf:"dispatch_lanes"`

	// DispatchQueueSize bounds the pending mutations per lane.
	DispatchQueueSize int `koanf:"dispatch_queue_size"`

	// IdempotencyCacheSize bounds the remembered Idempotency-Key values.
	IdempotencyCacheSize int `koanf:"idempotency_cache_size"`

	// CurrencyCode is the ISO 4217 code used for formatted amounts.
	CurrencyCode string `koanf:"currency_code"`

	// CurrencyLocale is the BCP 47 tag used for number grouping.
	CurrencyLocale string `koanf:"currency_locale"`

	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string `koanf:"cors_origins"`

	// MaxLeaderboardLimit caps GET /api/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		StoreDriver:          DriverMemory,
		StoreLatencyMinMS:    0,
		StoreLatencyMaxMS:    0,
		Seed:                 true,
		DispatchLanes:        16,
		DispatchQueueSize:    256,
		IdempotencyCacheSize: 10_000,
		CurrencyCode:         "USD",
		CurrencyLocale:       "en-US",
		CORSOrigins:          []string{"*"},
		MaxLeaderboardLimit:  100,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DispatchLanes <= 0:
		return fmt.Errorf("%w: dispatch_lanes must be positive", ErrInvalidConfig)
	case c.DispatchQueueSize <= 0:
		return fmt.Errorf("%w: dispatch_queue_size must be positive", ErrInvalidConfig)
	case c.IdempotencyCacheSize <= 0:
		return fmt.Errorf("%w: idempotency_cache_size must be positive", ErrInvalidConfig)
	case c.StoreLatencyMinMS < 0 || c.StoreLatencyMaxMS < c.StoreLatencyMinMS:
		return fmt.Errorf("%w: store latency bounds %d..%d", ErrInvalidConfig, c.StoreLatencyMinMS, c.StoreLatencyMaxMS)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	}

	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite, DriverMySQL:
		if c.StoreDSN == "" {
			return fmt.Errorf("%w: store_dsn is required for driver %q", ErrInvalidConfig, c.StoreDriver)
		}
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownDriver, c.StoreDriver)
	}
	return nil
}
