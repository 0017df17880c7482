package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Environment       string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	StorageDriver     string        `mapstructure:"STORAGE_DRIVER"`
	DBDSN             string        `mapstructure:"DB_DSN"`
	MigrationsPath    string        `mapstructure:"MIGRATIONS_PATH"`
	HTTPAddr          string        `mapstructure:"HTTP_ADDR"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	RedisDB           int           `mapstructure:"REDIS_DB"`
	LockTTL           time.Duration `mapstructure:"LOCK_TTL"`
	LockWait          time.Duration `mapstructure:"LOCK_WAIT"`
	MaxWriteAttempts  int           `mapstructure:"MAX_WRITE_ATTEMPTS"`
	ReconcileInterval time.Duration `mapstructure:"RECONCILE_INTERVAL"`
	TelegramToken     string        `mapstructure:"TELEGRAM_TOKEN"`
	BotSchoolID       string        `mapstructure:"BOT_SCHOOL_ID"`
}

var keys = []string{
	"ENV", "LOG_LEVEL", "STORAGE_DRIVER", "DB_DSN", "MIGRATIONS_PATH", "HTTP_ADDR",
	"REDIS_ADDR", "REDIS_DB", "LOCK_TTL", "LOCK_WAIT", "MAX_WRITE_ATTEMPTS",
	"RECONCILE_INTERVAL", "TELEGRAM_TOKEN", "BOT_SCHOOL_ID",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("MIGRATIONS_PATH", "migrations")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOCK_TTL", 5*time.Second)
	v.SetDefault("LOCK_WAIT", 2*time.Second)
	v.SetDefault("MAX_WRITE_ATTEMPTS", 3)
	v.SetDefault("RECONCILE_INTERVAL", time.Hour)
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	// a missing .env is fine, the environment is used as is
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromViper(viper.New())
}

// FromViper builds the config from v with defaults and environment bindings applied.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DBDSN == "" {
			errs = append(errs, errors.New("DB_DSN is required for the postgres storage driver"))
		}
	case StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.StorageDriver))
	}

	if c.MaxWriteAttempts < 1 {
		errs = append(errs, fmt.Errorf("MAX_WRITE_ATTEMPTS must be at least 1, got %d", c.MaxWriteAttempts))
	}
	if c.LockTTL <= 0 {
		errs = append(errs, errors.New("LOCK_TTL must be positive"))
	}
	if c.LockWait < 0 {
		errs = append(errs, errors.New("LOCK_WAIT must not be negative"))
	}
	if c.ReconcileInterval < 0 {
		errs = append(errs, errors.New("RECONCILE_INTERVAL must not be negative"))
	}
	if c.TelegramToken != "" {
		if _, err := uuid.Parse(c.BotSchoolID); err != nil {
			errs = append(errs, fmt.Errorf("BOT_SCHOOL_ID must be a school uuid when TELEGRAM_TOKEN is set: %w", err))
		}
	}

	return errors.Join(errs...)
}

// IsProduction checks if the logger and gin should run in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SchoolID returns the school the Telegram bot serves.
func (c *Config) SchoolID() uuid.UUID {
	id, _ := uuid.Parse(c.BotSchoolID)
	return id
}
