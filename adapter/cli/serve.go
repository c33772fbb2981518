package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fsgregorio/driverapp-sub000/adapter/api"
)

var (
	serveAddr       string
	serveBackground bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the booking API. With --background the sweeper and the outbox
processor run in the same process, which is convenient for local mode; in a
deployment they run in the worker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := GetApp()
		if err != nil {
			return err
		}
		c := app.Container
		ctx := cmd.Context()

		cfg := api.DefaultServerConfig()
		cfg.Addr = c.Config.HTTPAddr
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}
		srv := api.NewServer(cfg, api.Dependencies{
			Lifecycle:   c.Lifecycle,
			Preferences: c.Preferences,
			Health:      c.Health,
			Auth:        api.NewAuthenticator(c.Config.JWTSecret, c.Clock),
			Clock:       c.Clock,
			Metrics:     c.Metrics,
		}, logger)

		if serveBackground {
			c.OutboxProcessor.Start(ctx)
			if c.Config.SweepEnabled {
				c.Sweeper.Start(ctx)
			}
		}
		if c.Config.JWTSecret == "" {
			logger.Warn("JWT_SECRET is empty, identity is read from X-Actor-ID and X-Actor-Role headers")
		}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default HTTP_ADDR)")
	serveCmd.Flags().BoolVar(&serveBackground, "background", false, "also run the sweeper and outbox processor")
	rootCmd.AddCommand(serveCmd)
}
