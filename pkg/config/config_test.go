package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	t.Run("url wins", func(t *testing.T) {
		cfg := DatabaseConfig{
			URL:  "postgres://u:p@h:5432/d",
			Host: "ignored",
		}
		assert.Equal(t, "postgres://u:p@h:5432/d", cfg.ConnectionString())
	})

	t.Run("discrete fields", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "trapper",
			Password: "pw",
			Database: "trapper",
			SSLMode:  "disable",
		}
		assert.Equal(t,
			"host=localhost port=5432 user=trapper password=pw dbname=trapper sslmode=disable",
			cfg.ConnectionString())
	})
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@h:5432/d")
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := Load("test-version")
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "test-version", cfg.Version)
	assert.Equal(t, "postgres://u:p@h:5432/d", cfg.Database.ConnectionString())
	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, 1000, cfg.Matching.SourceLimit)
}

func TestValidate_GeocodeRequiresKey(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{URL: "postgres://u:p@h/d"},
		Geocode:  GeocodeConfig{Enabled: true},
	}
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_MAPS_API_KEY")
}
