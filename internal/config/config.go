package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	DBDriver   string `envconfig:"DB_DRIVER" default:"mysql"`
	MySQLDSN   string `envconfig:"MYSQL_DSN" default:"user:password@tcp(localhost:3306)/manpower?charset=utf8mb4&parseTime=True&loc=UTC"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"manpower.db"`
	ResetDB    bool   `envconfig:"RESET_DB" default:"false"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
	RedisPass string `envconfig:"REDIS_PASSWORD"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"change-me"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// Bootstrap admin credential. Logging in with it bypasses the user table.
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"admin123"`

	StatusSweepInterval time.Duration `envconfig:"STATUS_SWEEP_INTERVAL" default:"2m"`
	RejectPastSlots     bool          `envconfig:"REJECT_PAST_SLOTS" default:"false"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	SwaggerHost     string        `envconfig:"SWAGGER_HOST"`
}

// Load builds Config from the environment, applying defaults for unset keys.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.StatusSweepInterval <= 0 {
		return nil, fmt.Errorf("load config: STATUS_SWEEP_INTERVAL must be positive, got %s", cfg.StatusSweepInterval)
	}
	return &cfg, nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	if c == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
