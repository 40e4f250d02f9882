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

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PELOTON_"

var storageBackends = map[string]bool{"memory": true, "file": true, "sqlite": true, "postgres": true}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PELOTON_CONFIG is set
//  3. env (prefix PELOTON_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// PELOTON_STORAGE_BACKEND -> storage_backend. Underscores are kept to
	// match the flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ProviderURL() == "" && c.Production:
		return fmt.Errorf("%w: same_origin_url must be set in production", ErrInvalidConfig)
	case c.ProviderURL() == "":
		return fmt.Errorf("%w: provider_base_url must not be empty", ErrInvalidConfig)
	case !storageBackends[c.StorageBackend]:
		return fmt.Errorf("%w: unknown storage_backend %q", ErrInvalidConfig, c.StorageBackend)
	case (c.StorageBackend == "file" || c.StorageBackend == "sqlite") && c.StoragePath == "":
		return fmt.Errorf("%w: storage_path must be set for %s", ErrInvalidConfig, c.StorageBackend)
	case c.StorageBackend == "postgres" && c.StorageDSN == "":
		return fmt.Errorf("%w: storage_dsn must be set for postgres", ErrInvalidConfig)
	case c.MaxRiders <= 0:
		return fmt.Errorf("%w: max_riders must be positive", ErrInvalidConfig)
	case c.Budget <= 0:
		return fmt.Errorf("%w: budget must be positive", ErrInvalidConfig)
	case c.StartersPerRace <= 0:
		return fmt.Errorf("%w: starters_per_race must be positive", ErrInvalidConfig)
	case c.CatalogRefreshIntervalS < 0:
		return fmt.Errorf("%w: catalog_refresh_interval_s must not be negative", ErrInvalidConfig)
	}
	return nil
}
