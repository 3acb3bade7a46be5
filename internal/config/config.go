package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port                 int    `env:"PORT" envDefault:"8080"`
	DatabaseURL          string `env:"DATABASE_URL,required"`
	RedisURL             string `env:"REDIS_URL,required"`
	AutomationWorkerURL  string `env:"AUTOMATION_WORKER_URL,required"`
	SessionSecret        string `env:"SESSION_SECRET"`
	EncryptionKey        string `env:"ENCRYPTION_KEY"`
	PacingMinMs          int    `env:"PACING_MIN_MS" envDefault:"2000"`
	PacingMaxMs          int    `env:"PACING_MAX_MS" envDefault:"5000"`
	WorkerTimeoutSeconds int    `env:"WORKER_TIMEOUT_SECONDS" envDefault:"90"`
	RateLimitPerMin      int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	LogLevel             string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) PacingMin() time.Duration {
	return time.Duration(c.PacingMinMs) * time.Millisecond
}

func (c *Config) PacingMax() time.Duration {
	return time.Duration(c.PacingMaxMs) * time.Millisecond
}

func (c *Config) WorkerTimeout() time.Duration {
	return time.Duration(c.WorkerTimeoutSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.PacingMinMs < 0 || c.PacingMaxMs < c.PacingMinMs {
		return fmt.Errorf("PACING_MIN_MS/PACING_MAX_MS must satisfy 0 <= min <= max")
	}

	if isProduction {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}
		if c.EncryptionKey == "" {
			log.Warn().Msg("ENCRYPTION_KEY is empty in production: stored session cookies will not be encrypted at rest")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
