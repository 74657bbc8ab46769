package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	CacheMemory   = "memory"
	CachePostgres = "postgres"
	CacheNone     = "none"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL,required"`
	JWTSecret   string        `env:"JWT_SECRET,required"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY" envDefault:"168h"`
	Port        int           `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string        `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	DBConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"1m"`
	DBMigrate         bool          `env:"DB_MIGRATE" envDefault:"true"`

	CacheBackend      string        `env:"CACHE_BACKEND" envDefault:"memory"`
	CacheMaxEntries   int           `env:"CACHE_MAX_ENTRIES" envDefault:"10000"`
	CacheAnalyticsTTL time.Duration `env:"CACHE_ANALYTICS_TTL" envDefault:"1h"`
	CacheAccountsTTL  time.Duration `env:"CACHE_ACCOUNTS_TTL" envDefault:"24h"`
	IdempotencyTTL    time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	JanitorInterval   time.Duration `env:"JANITOR_INTERVAL" envDefault:"10m"`

	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"pocket-ledger.cache"`
}

// Load reads a .env file when one is present, then the process environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("config.Load: dotenv: %w", err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY must be positive"))
	}

	if c.DBMaxOpenConns < 1 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be at least 1"))
	}
	if c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		errs = append(errs, fmt.Errorf("DB_MAX_IDLE_CONNS must be between 0 and %d", c.DBMaxOpenConns))
	}

	backends := []string{CacheMemory, CachePostgres, CacheNone}
	if !slices.Contains(backends, c.CacheBackend) {
		errs = append(errs, fmt.Errorf("invalid cache backend %q: must be one of %v", c.CacheBackend, backends))
	}
	if c.CacheBackend == CacheMemory && c.CacheMaxEntries < 1 {
		errs = append(errs, errors.New("CACHE_MAX_ENTRIES must be at least 1 for the memory backend"))
	}
	if c.CacheAnalyticsTTL <= 0 || c.CacheAccountsTTL <= 0 || c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("cache and idempotency TTLs must be positive"))
	}
	if c.JanitorInterval <= 0 {
		errs = append(errs, errors.New("JANITOR_INTERVAL must be positive"))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Errorf("invalid AMQP URL: %w", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Errorf("invalid AMQP URL scheme %q: must be amqp or amqps", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, errors.New("AMQP_EXCHANGE cannot be empty when AMQP_URL is set"))
		}
	}

	return errors.Join(errs...)
}
