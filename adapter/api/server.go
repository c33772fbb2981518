// Package api exposes the booking lifecycle over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/services"
	prefsApp "github.com/fsgregorio/driverapp-sub000/internal/preferences/application"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/pkg/observability"
)

// Server is the HTTP API server.
type Server struct {
	router      chi.Router
	server      *http.Server
	logger      *zap.Logger
	clock       sharedDomain.Clock
	lifecycle   *services.LifecycleService
	preferences *prefsApp.Service
	health      *observability.Health
	auth        *Authenticator
	metrics     observability.Metrics
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Dependencies are the application services the routes call.
type Dependencies struct {
	Lifecycle   *services.LifecycleService
	Preferences *prefsApp.Service
	Health      *observability.Health
	Auth        *Authenticator
	Clock       sharedDomain.Clock
	Metrics     observability.Metrics
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Dependencies, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = sharedDomain.SystemClock{}
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NoopMetrics{}
	}
	if deps.Health == nil {
		deps.Health = observability.NewHealth(0)
	}
	if deps.Auth == nil {
		deps.Auth = NewAuthenticator("", deps.Clock)
	}

	s := &Server{
		logger:      logger.Named("api"),
		clock:       deps.Clock,
		lifecycle:   deps.Lifecycle,
		preferences: deps.Preferences,
		health:      deps.Health,
		auth:        deps.Auth,
		metrics:     deps.Metrics,
	}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger, s.metrics))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", s.createBooking)
			r.Get("/", s.listBookings)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getBooking)
				r.Get("/refund-quote", s.quoteRefund)
				r.Post("/accept", s.acceptBooking)
				r.Post("/reject", s.rejectBooking)
				r.Post("/pay", s.payBooking)
				r.Post("/cancel", s.cancelBooking)
				r.Post("/reschedule", s.rescheduleBooking)
				r.Post("/evaluate", s.evaluateBooking)
				r.Post("/skip-evaluation", s.skipEvaluation)
			})
		})

		r.Post("/sweeps", s.sweep)

		r.Get("/dashboard/student", s.studentDashboard)
		r.Get("/dashboard/instructor", s.instructorDashboard)
		r.Get("/admin/metrics", s.adminMetrics)

		r.Get("/favorites", s.listFavorites)
		r.Delete("/favorites", s.clearFavorites)
		r.Put("/favorites/{instructorId}", s.addFavorite)
		r.Delete("/favorites/{instructorId}", s.removeFavorite)
	})
	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// handleHealth runs every registered probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results, ok := s.health.Run(r.Context())
	status := http.StatusOK
	state := "healthy"
	if !ok {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}
	writeJSON(w, status, map[string]any{
		"status": state,
		"checks": results,
		"time":   s.clock.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}
