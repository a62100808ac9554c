package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL,required,notEmpty"`
	AppHost        string        `env:"APP_HOST" envDefault:":8080"`
	JWTSecret      string        `env:"JWT_SECRET,required,notEmpty"`
	Development    bool          `env:"APP_DEBUG" envDefault:"false"`
	MigrationsDir  string        `env:"MIGRATIONS_DIR" envDefault:"./migrations"`
	AutoMigrate    bool          `env:"AUTO_MIGRATE" envDefault:"false"`
	LockTimeout    time.Duration `env:"LOCK_TIMEOUT" envDefault:"5s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	RabbitMQURL     string `env:"RABBITMQ_URL"`
	TransitionQueue string `env:"TRANSITION_QUEUE" envDefault:"asset.transitions"`

	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	RateLimit       int           `env:"RATE_LIMIT" envDefault:"60"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.LockTimeout <= 0 {
		return nil, fmt.Errorf("LOCK_TIMEOUT must be positive, got %s", cfg.LockTimeout)
	}
	if cfg.RequestTimeout <= cfg.LockTimeout {
		return nil, fmt.Errorf("REQUEST_TIMEOUT (%s) must be longer than LOCK_TIMEOUT (%s)", cfg.RequestTimeout, cfg.LockTimeout)
	}
	if cfg.RateLimit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT must be positive, got %d", cfg.RateLimit)
	}
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", cfg.RateLimitWindow)
	}
	return &cfg, nil
}
