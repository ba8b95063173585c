package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Storage backends selectable through AUCTIONS_STORAGE
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config holds the runtime settings of the auction server
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Storage     string `env:"AUCTIONS_STORAGE" envDefault:"memory"`
	DatabaseDSN string `env:"AUCTIONS_DATABASE_DSN" envDefault:"auctions.db"`
	LogLevel    string `env:"AUCTIONS_LOG_LEVEL" envDefault:"info"`
	Seed        bool   `env:"AUCTIONS_SEED" envDefault:"true"`
}

// Load reads the configuration from the process environment
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.validate()
}

// LoadFrom reads the configuration from the given variables only
func LoadFrom(environment map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.validate()
}

// Addr is the listen address for the HTTP server
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func (c Config) validate() error {
	switch c.Storage {
	case StorageMemory:
	case StorageSQLite, StoragePostgres:
		if strings.TrimSpace(c.DatabaseDSN) == "" {
			return fmt.Errorf("config: AUCTIONS_DATABASE_DSN is required for %s storage", c.Storage)
		}
	default:
		return fmt.Errorf("config: unknown storage %q", c.Storage)
	}
	return nil
}
