package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fsgregorio/driverapp-sub000/internal/app"
	"github.com/fsgregorio/driverapp-sub000/pkg/config"
	"github.com/fsgregorio/driverapp-sub000/pkg/observability"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: cfg.IsDevelopment(),
		Service:     "driverapp-worker",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting driverapp worker")

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize container", zap.Error(err))
	}
	defer container.Close()

	container.OutboxProcessor.Start(ctx)
	logger.Info("outbox processor started",
		zap.Duration("poll_interval", cfg.OutboxPollInterval),
		zap.Int("batch_size", cfg.OutboxBatchSize),
		zap.Int("max_retries", cfg.OutboxMaxRetries),
	)

	if cfg.SweepEnabled {
		container.Sweeper.Start(ctx)
		logger.Info("sweeper started",
			zap.Duration("interval", cfg.SweepInterval),
			zap.Bool("distributed_lock", container.RedisClient != nil),
		)
	} else {
		logger.Info("sweeper disabled")
	}

	if cfg.RabbitMQURL != "" {
		consumer, err := container.NewRefundConsumer()
		if err != nil {
			logger.Fatal("failed to start refund consumer", zap.Error(err))
		}
		defer func() { _ = consumer.Close() }()
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("refund consumer stopped", zap.Error(err))
				cancel()
			}
		}()
	}

	go cleanupLoop(ctx, container, cfg, logger)

	if cfg.WorkerHealthAddr != "" {
		srv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthRouter(container),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("health server starting", zap.String("addr", cfg.WorkerHealthAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down worker")
}

func cleanupLoop(ctx context.Context, c *app.Container, cfg *config.Config, logger *zap.Logger) {
	ticker := time.NewTicker(cfg.OutboxCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := c.OutboxProcessor.Cleanup(ctx, cfg.OutboxRetention())
			if err != nil {
				logger.Error("outbox cleanup failed", zap.Error(err))
				continue
			}
			if deleted > 0 {
				logger.Info("outbox cleanup completed",
					zap.Int64("deleted", deleted),
					zap.Int("retention_days", cfg.OutboxRetentionDays),
				)
			}
		}
	}
}

func healthRouter(c *app.Container) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// liveness reports the background loops, readiness probes the backends
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"outbox":  c.OutboxProcessor.Stats(),
			"sweeper": c.Sweeper.Stats(),
		})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		results, ok := c.Health.Run(checkCtx)
		status, state := http.StatusOK, "ready"
		if !ok {
			status, state = http.StatusServiceUnavailable, "not_ready"
		}
		writeJSON(w, status, map[string]any{"status": state, "checks": results})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
