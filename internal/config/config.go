// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - External errors are wrapped with this package's sentinel errors.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Production switches the data provider from the development endpoint to
	// same-origin routing.
	Production bool `koanf:"production"`

	// ProviderBaseURL is the development data provider, serving /api/riders,
	// /api/races and /api/solve.
	ProviderBaseURL string `koanf:"provider_base_url"`

	// SameOriginURL is the origin the provider is reachable at in production.
	SameOriginURL string `koanf:"same_origin_url"`

	// ProviderTimeoutMS bounds each provider request. 0 disables the timeout.
	ProviderTimeoutMS int `koanf:"provider_timeout_ms"`

	// StorageBackend selects roster persistence: memory, file, sqlite or postgres.
	StorageBackend string `koanf:"storage_backend"`

	// StoragePath is the directory (file) or database file (sqlite).
	StoragePath string `koanf:"storage_path"`

	// StorageDSN is the postgres connection string.
	StorageDSN string `koanf:"storage_dsn"`

	// MaxRiders caps the size of a roster.
	MaxRiders int `koanf:"max_riders"`

	// Budget caps the summed price of a roster, in millions.
	Budget float64 `koanf:"budget"`

	// BudgetConstrained enables the budget check on insertion.
	BudgetConstrained bool `koanf:"budget_constrained"`

	// StartersPerRace is the number of riders evaluated per race.
	StartersPerRace int `koanf:"starters_per_race"`

	// SolverAssisted exposes the per-race plan and the provider solve proxy.
	SolverAssisted bool `koanf:"solver_assisted"`

	// CatalogRefreshIntervalS reloads the catalog periodically. 0 disables it.
	CatalogRefreshIntervalS int `koanf:"catalog_refresh_interval_s"`

	// IdempotencySize bounds the remembered toggle idempotency keys.
	IdempotencySize int `koanf:"idempotency_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		Production:              false,
		ProviderBaseURL:         "http://localhost:8000",
		SameOriginURL:           "",
		ProviderTimeoutMS:       10_000,
		StorageBackend:          "file",
		StoragePath:             "data/rosters",
		MaxRiders:               20,
		Budget:                  120,
		BudgetConstrained:       true,
		StartersPerRace:         12,
		SolverAssisted:          false,
		CatalogRefreshIntervalS: 0,
		IdempotencySize:         10_000,
	}
}

// ProviderURL returns the base URL the catalog is fetched from.
func (c *Config) ProviderURL() string {
	if c.Production {
		return c.SameOriginURL
	}
	return c.ProviderBaseURL
}
