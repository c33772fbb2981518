// Package app wires the booking service together for the CLI, the HTTP
// server and the worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/queries"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/services"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/subscribers"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/infrastructure/lock"
	prefsApp "github.com/fsgregorio/driverapp-sub000/internal/preferences/application"
	sharedApplication "github.com/fsgregorio/driverapp-sub000/internal/shared/application"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database"
	_ "github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database/postgres"
	_ "github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database/sqlite"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/eventbus"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/migrations"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/outbox"
	"github.com/fsgregorio/driverapp-sub000/pkg/config"
	"github.com/fsgregorio/driverapp-sub000/pkg/observability"
)

// Container holds application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Clock   sharedDomain.Clock
	Metrics *observability.InMemoryMetrics
	Health  *observability.Health

	// Database
	DB       database.Connection
	DBDriver database.Driver

	// Redis (optional)
	RedisClient *redis.Client

	// Repositories
	BookingRepo domain.Repository
	OutboxRepo  outbox.Repository
	UnitOfWork  sharedApplication.UnitOfWork

	// Events
	Registry         *eventbus.Registry
	EventPublisher   eventbus.Publisher
	OutboxProcessor  *outbox.Processor
	RefundSubscriber *subscribers.RefundSubscriber

	// Booking
	Handlers  services.Handlers
	Sweeper   *services.Sweeper
	Lifecycle *services.LifecycleService

	// Preferences
	Preferences *prefsApp.Service
}

// Option adjusts a container before it is wired.
type Option func(*Container)

// WithClock replaces the system clock, mainly for tests.
func WithClock(clock sharedDomain.Clock) Option {
	return func(c *Container) { c.Clock = clock }
}

// NewContainer creates and wires all dependencies. An empty DATABASE_URL
// selects SQLite, and without RABBITMQ_URL events are dispatched in-process.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Clock:   sharedDomain.SystemClock{},
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealth(2 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, err := database.Open(ctx, database.Config{
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.DatabaseMaxConn,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = conn
	c.DBDriver = conn.Driver()
	c.Health.Register("database", conn.Ping)

	version, err := migrations.Up(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	logger.Info("connected to database",
		zap.String("driver", c.DBDriver.String()),
		zap.Int64("schema_version", version),
	)

	if err := c.connectRedis(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	factory := NewRepositoryFactory(conn)
	if c.BookingRepo, err = factory.BookingRepository(); err != nil {
		c.Close()
		return nil, err
	}
	if c.OutboxRepo, err = factory.OutboxRepository(); err != nil {
		c.Close()
		return nil, err
	}
	c.UnitOfWork = database.NewUnitOfWork(conn)

	// Event subscribers
	c.Registry = eventbus.NewRegistry(logger)
	c.RefundSubscriber = subscribers.NewRefundSubscriber(subscribers.NewLoggingRefundIssuer(logger), logger)
	c.Registry.Register(c.RefundSubscriber)

	if err := c.connectPublisher(); err != nil {
		c.Close()
		return nil, err
	}
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: cfg.OutboxBackoffBase,
		RetryBackoffMax:  cfg.OutboxBackoffMax,
	}, c.Clock, logger)

	// Booking lifecycle
	c.Handlers = services.NewHandlers(services.HandlerDeps{
		Repo:     c.BookingRepo,
		Outbox:   c.OutboxRepo,
		UoW:      c.UnitOfWork,
		Clock:    c.Clock,
		Location: cfg.Timezone,
		Policy:   domain.DefaultRefundPolicy(),
		Dashboard: queries.DashboardConfig{
			UpcomingWithin: time.Duration(cfg.UpcomingDays) * 24 * time.Hour,
			TopInstructors: cfg.TopInstructors,
		},
	})

	var sweepLock services.SweepLock
	if c.RedisClient != nil {
		sweepLock = lock.NewRedisLock(c.RedisClient, lock.DefaultSweepKey, cfg.SweepLockTTL)
	}
	c.Sweeper = services.NewSweeper(c.BookingRepo, c.Handlers.Expire, c.Handlers.Elapse,
		services.SweeperConfig{Interval: cfg.SweepInterval}, c.Clock, sweepLock, c.Metrics, logger)
	c.Lifecycle = services.NewLifecycleService(c.Handlers, c.Sweeper,
		services.LifecycleOptions{SweepOnLoad: cfg.SweepEnabled}, c.Metrics, logger)

	c.Preferences = prefsApp.NewService(factory.PreferenceStore(c.RedisClient, c.Clock))

	logger.Info("container initialized",
		zap.Bool("redis", c.RedisClient != nil),
		zap.String("timezone", cfg.Timezone.String()),
	)
	return c, nil
}

// connectRedis is optional in development: a bad URL or unreachable server
// falls back to SQL-backed preferences and no sweep lock.
func (c *Container) connectRedis(ctx context.Context) error {
	if c.Config.RedisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, continuing without Redis", zap.Error(err))
		return nil
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, continuing without Redis", zap.Error(err))
		return nil
	}
	c.RedisClient = client
	c.Health.Register("redis", func(ctx context.Context) error { return client.Ping(ctx).Err() })
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) connectPublisher() error {
	cfg := c.Config
	if cfg.RabbitMQURL == "" {
		c.EventPublisher = eventbus.NewInProcessBus(c.Registry, c.Logger)
		c.Logger.Info("no RABBITMQ_URL, dispatching events in-process")
		return nil
	}
	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, c.Logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using noop publisher", zap.Error(err))
		c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
		return nil
	}
	c.EventPublisher = eventbus.NewBreakerPublisher(publisher, eventbus.BreakerConfig{
		ConsecutiveFailures: cfg.PublisherBreakerFailures,
		OpenTimeout:         cfg.PublisherBreakerTimeout,
	}, c.Logger)
	return nil
}

// NewRefundConsumer binds the refund queue to the registry. Only meaningful
// when events go through RabbitMQ.
func (c *Container) NewRefundConsumer() (*eventbus.RabbitMQConsumer, error) {
	if c.Config.RabbitMQURL == "" {
		return nil, errors.New("RABBITMQ_URL is not set")
	}
	return eventbus.NewRabbitMQConsumer(c.Config.RabbitMQURL, c.Config.RefundQueue, c.Registry, c.Logger)
}

// Close releases every connection the container opened.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}
	if c.Sweeper != nil {
		c.Sweeper.Stop()
	}
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("closing event publisher", zap.Error(err))
		}
	}
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("closing database", zap.Error(err))
		}
	}
}
