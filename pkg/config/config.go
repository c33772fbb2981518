// Package config loads process configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppEnv    string
	LogLevel  string
	LogFormat string

	// Storage. An empty DatabaseURL selects SQLite at SQLitePath.
	DatabaseURL     string
	SQLitePath      string
	DatabaseMaxConn int

	RedisURL    string
	RabbitMQURL string

	// Booking rules
	Timezone *time.Location

	// Sweeper
	SweepEnabled  bool
	SweepInterval time.Duration
	SweepLockTTL  time.Duration

	// Outbox
	OutboxPollInterval    time.Duration
	OutboxBatchSize       int
	OutboxMaxRetries      int
	OutboxBackoffBase     time.Duration
	OutboxBackoffMax      time.Duration
	OutboxRetentionDays   int
	OutboxCleanupInterval time.Duration

	PublisherBreakerFailures uint32
	PublisherBreakerTimeout  time.Duration

	// Surfaces
	HTTPAddr         string
	WorkerHealthAddr string
	JWTSecret        string
	RefundQueue      string

	// Dashboards
	UpcomingDays   int
	TopInstructors int
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	tzName := getEnv("BOOKING_TIMEZONE", "America/Sao_Paulo")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("BOOKING_TIMEZONE %q: %w", tzName, err)
	}

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", ""),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SQLitePath:      getEnv("SQLITE_PATH", ""),
		DatabaseMaxConn: getIntEnv("DATABASE_MAX_CONNS", 10),

		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		Timezone: loc,

		SweepEnabled:  getBoolEnv("SWEEP_ENABLED", true),
		SweepInterval: getDurationEnv("SWEEP_INTERVAL", time.Minute),
		SweepLockTTL:  getDurationEnv("SWEEP_LOCK_TTL", 30*time.Second),

		OutboxPollInterval:    getDurationEnv("OUTBOX_POLL_INTERVAL", time.Second),
		OutboxBatchSize:       getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:      getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxBackoffBase:     getDurationEnv("OUTBOX_BACKOFF_BASE", time.Second),
		OutboxBackoffMax:      getDurationEnv("OUTBOX_BACKOFF_MAX", time.Minute),
		OutboxRetentionDays:   getIntEnv("OUTBOX_RETENTION_DAYS", 7),
		OutboxCleanupInterval: getDurationEnv("OUTBOX_CLEANUP_INTERVAL", time.Hour),

		PublisherBreakerFailures: uint32(getIntEnv("PUBLISHER_BREAKER_FAILURES", 5)),
		PublisherBreakerTimeout:  getDurationEnv("PUBLISHER_BREAKER_TIMEOUT", 30*time.Second),

		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", ":8081"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		RefundQueue:      getEnv("REFUND_QUEUE", "driverapp.refunds"),

		UpcomingDays:   getIntEnv("DASHBOARD_UPCOMING_DAYS", 7),
		TopInstructors: getIntEnv("DASHBOARD_TOP_INSTRUCTORS", 3),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL must be positive"))
	}
	if c.UpcomingDays < 0 || c.TopInstructors < 0 {
		errs = append(errs, errors.New("dashboard windows must not be negative"))
	}
	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// OutboxRetention converts OutboxRetentionDays to a duration.
func (c *Config) OutboxRetention() time.Duration {
	return time.Duration(c.OutboxRetentionDays) * 24 * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
