package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fsgregorio/driverapp-sub000/adapter/cli"
	"github.com/fsgregorio/driverapp-sub000/adapter/cli/booking"
	"github.com/fsgregorio/driverapp-sub000/adapter/cli/favorites"
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
		Service:     "driverapp-cli",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Fatal("failed to initialize container", zap.Error(err))
		}
		// version and help still work without a database
		logger.Warn("failed to initialize container, running in limited mode", zap.Error(err))
	} else {
		defer container.Close()
		cli.SetApp(cli.NewApp(container))
	}

	cli.AddCommand(booking.Cmd)
	cli.AddCommand(favorites.Cmd)

	cli.Execute(ctx)
}
