// Package config loads the server configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "taskhub_secret"

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the API listens on.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DBDriver selects the store: "sqlite" or "postgres".
	DBDriver string `mapstructure:"DB_DRIVER"`
	// DBPath is the SQLite file used when DBDriver is sqlite.
	DBPath string `mapstructure:"DB_PATH"`
	// DatabaseURL is the Postgres DSN; required when DBDriver is postgres.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret signs access tokens (HS256).
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTTTL is the token lifetime (e.g. "1h").
	JWTTTL string `mapstructure:"JWT_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31).
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// Redis enables idempotent task creation when RedisAddr is set.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`
	IdempotencyTTL string `mapstructure:"IDEMPOTENCY_TTL"`

	// MQURL enables publication of activity events to RabbitMQ.
	MQURL string `mapstructure:"MQ_URL"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	// Env is "development", "production" or empty.
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment.
// Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_PATH", "data/taskhub.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL", "1h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("IDEMPOTENCY_TTL", "10m")
	v.SetDefault("MQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("config: DB_PATH must be set for the sqlite driver")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL must be set for the postgres driver")
		}
	default:
		return errors.New("config: DB_DRIVER must be sqlite or postgres")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	if c.Env == "production" && c.JWTSecret == defaultJWTSecret {
		return errors.New("config: JWT_SECRET must be changed when APP_ENV=production")
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 10
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	return nil
}

// TokenTTL parses JWTTTL. Returns 1h if unset or invalid.
func (c *Config) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// IdempotencyWindow parses IdempotencyTTL. Returns 10m if unset or invalid.
func (c *Config) IdempotencyWindow() time.Duration {
	d, err := time.ParseDuration(c.IdempotencyTTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// Development reports whether APP_ENV selects development mode.
func (c *Config) Development() bool {
	return c.Env == "development"
}
