package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "DATABASE_URL", "SQLITE_PATH", "DATABASE_MAX_CONNS",
	"REDIS_URL", "RABBITMQ_URL", "BOOKING_TIMEZONE",
	"SWEEP_ENABLED", "SWEEP_INTERVAL", "SWEEP_LOCK_TTL",
	"OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "OUTBOX_MAX_RETRIES", "OUTBOX_BACKOFF_BASE",
	"OUTBOX_BACKOFF_MAX", "OUTBOX_RETENTION_DAYS", "OUTBOX_CLEANUP_INTERVAL",
	"PUBLISHER_BREAKER_FAILURES", "PUBLISHER_BREAKER_TIMEOUT",
	"HTTP_ADDR", "WORKER_HEALTH_ADDR", "JWT_SECRET", "REFUND_QUEUE",
	"DASHBOARD_UPCOMING_DAYS", "DASHBOARD_TOP_INSTRUCTORS",
}

// isolate blanks every key for the duration of the test.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "America/Sao_Paulo", cfg.Timezone.String())
	assert.True(t, cfg.SweepEnabled)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 5, cfg.OutboxMaxRetries)
	assert.Equal(t, 7*24*time.Hour, cfg.OutboxRetention())
	assert.Equal(t, uint32(5), cfg.PublisherBreakerFailures)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 7, cfg.UpcomingDays)
	assert.Equal(t, 3, cfg.TopInstructors)
}

func TestLoad_Overrides(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://driverapp@localhost/driverapp")
	t.Setenv("BOOKING_TIMEZONE", "Europe/Lisbon")
	t.Setenv("SWEEP_INTERVAL", "15s")
	t.Setenv("SWEEP_ENABLED", "false")
	t.Setenv("OUTBOX_BATCH_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://driverapp@localhost/driverapp", cfg.DatabaseURL)
	assert.Equal(t, "Europe/Lisbon", cfg.Timezone.String())
	assert.Equal(t, 15*time.Second, cfg.SweepInterval)
	assert.False(t, cfg.SweepEnabled)
	assert.Equal(t, 100, cfg.OutboxBatchSize, "unparsable values fall back to defaults")
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown timezone", func(t *testing.T) {
		isolate(t)
		t.Setenv("BOOKING_TIMEZONE", "Mars/Olympus")
		_, err := Load()
		assert.ErrorContains(t, err, "BOOKING_TIMEZONE")
	})

	t.Run("production without jwt secret", func(t *testing.T) {
		isolate(t)
		t.Setenv("APP_ENV", "production")
		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})
}
