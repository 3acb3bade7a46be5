package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("PacingMin and PacingMax convert milliseconds", func(t *testing.T) {
		cfg := &Config{PacingMinMs: 2000, PacingMaxMs: 5000}
		assert.Equal(t, 2*time.Second, cfg.PacingMin())
		assert.Equal(t, 5*time.Second, cfg.PacingMax())
	})

	t.Run("WorkerTimeout converts seconds", func(t *testing.T) {
		cfg := &Config{WorkerTimeoutSeconds: 90}
		assert.Equal(t, 90*time.Second, cfg.WorkerTimeout())
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			PacingMinMs: 2000,
			PacingMaxMs: 5000,
		}
	}

	t.Run("development allows empty secrets", func(t *testing.T) {
		assert.NoError(t, base().Validate(false))
	})

	t.Run("production requires a session secret", func(t *testing.T) {
		cfg := base()
		cfg.EncryptionKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("production rejects weak secrets", func(t *testing.T) {
		cfg := base()
		cfg.SessionSecret = "changeme"
		cfg.EncryptionKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("inverted pacing bounds are rejected", func(t *testing.T) {
		cfg := base()
		cfg.PacingMinMs = 5000
		cfg.PacingMaxMs = 2000
		assert.Error(t, cfg.Validate(false))
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":                  os.Getenv("PORT"),
		"DATABASE_URL":          os.Getenv("DATABASE_URL"),
		"REDIS_URL":             os.Getenv("REDIS_URL"),
		"AUTOMATION_WORKER_URL": os.Getenv("AUTOMATION_WORKER_URL"),
		"PACING_MIN_MS":         os.Getenv("PACING_MIN_MS"),
		"PACING_MAX_MS":         os.Getenv("PACING_MAX_MS"),
		"LOG_LEVEL":             os.Getenv("LOG_LEVEL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("AUTOMATION_WORKER_URL", "http://localhost:4000")
		os.Unsetenv("PORT")
		os.Unsetenv("PACING_MIN_MS")
		os.Unsetenv("PACING_MAX_MS")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, 2000, cfg.PacingMinMs)
		assert.Equal(t, 5000, cfg.PacingMaxMs)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("missing required variable fails", func(t *testing.T) {
		os.Unsetenv("DATABASE_URL")

		_, err := Load()
		assert.Error(t, err)
	})
}
