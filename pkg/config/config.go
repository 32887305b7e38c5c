package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all configuration for trapper-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables; environment variables always override YAML values. Secrets
// (database password, geocoding key) must only come from the environment.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// MigrationsPath is the directory holding numbered SQL migrations.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	Database DatabaseConfig `yaml:"database"`
	Geocode  GeocodeConfig  `yaml:"geocode"`
	Matching MatchingConfig `yaml:"matching"`
}

// DatabaseConfig holds PostgreSQL configuration. A full DATABASE_URL wins
// over the discrete fields when set.
type DatabaseConfig struct {
	URL            string `yaml:"-" env:"DATABASE_URL"` // Secret - not in YAML
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"trapper"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"trapper"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// GeocodeConfig holds the optional geocoding enrichment settings.
type GeocodeConfig struct {
	Enabled        bool   `yaml:"enabled" env:"GEOCODE_ENABLED" env-default:"false"`
	APIKey         string `yaml:"-" env:"GOOGLE_MAPS_API_KEY"` // Secret - not in YAML
	BaseURL        string `yaml:"base_url" env:"GEOCODE_BASE_URL" env-default:"https://maps.googleapis.com/maps/api/geocode/json"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"GEOCODE_TIMEOUT_SECONDS" env-default:"20"`
}

// MatchingConfig bounds the candidate generator.
type MatchingConfig struct {
	// SourceLimit caps how many unlinked source records one run scans.
	SourceLimit int `yaml:"source_limit" env:"MATCH_SOURCE_LIMIT" env-default:"1000"`
}

// Load reads .env (if present), then config.yaml with environment variable
// overrides. The version parameter is injected at build time. Missing
// config.yaml is not an error; the env defaults stand alone.
func Load(version string) (*Config, error) {
	// Matches the operator workflow: secrets live in .env next to the binary.
	_ = godotenv.Load()

	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate enforces the fail-fast startup contract: bad configuration must
// stop the process before any row is touched.
func (c *Config) validate() error {
	if c.Database.URL == "" && c.Database.Database == "" {
		return fmt.Errorf("database is not configured: set DATABASE_URL or PGDATABASE")
	}
	if c.Geocode.Enabled && c.Geocode.APIKey == "" {
		return fmt.Errorf("geocoding enabled but GOOGLE_MAPS_API_KEY is not set")
	}
	return nil
}
