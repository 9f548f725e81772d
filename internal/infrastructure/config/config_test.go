package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "stocktrail-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "stocktrail", cfg.Database.DBName)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, 12*time.Hour, cfg.JWT.AccessTokenExpiration)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.Scan.DuplicateWindow)
	assert.Equal(t, 3, cfg.Scan.RetireRetries)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("STOCKTRAIL_DATABASE_HOST", "db.internal")
	t.Setenv("STOCKTRAIL_APP_PORT", "9090")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "9090", cfg.App.Port)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("production requires jwt secret", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.App.Env = "production"

		err := cfg.validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("idle conns cannot exceed open conns", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.Database.MaxIdleConns = 100

		err := cfg.validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss/word",
		DBName:   "stocktrail",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()

	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "localhost:5432")
	assert.Contains(t, dsn, "sslmode=disable")
	// Special characters in the password must be escaped
	assert.NotContains(t, dsn, "p@ss/word")
}
