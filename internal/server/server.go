// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"

	"ElephantWatchAPI/internal/config"
	"ElephantWatchAPI/internal/handler"
	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/metrics"
	"ElephantWatchAPI/internal/middleware"

	"github.com/gorilla/mux"
)

// Handlers groups everything mounted on the router. Auth may be nil when
// operator login is switched off.
type Handlers struct {
	Mirror     *handler.MirrorHandler
	Chat       *handler.ChatHandler
	Simulation *handler.SimulationHandler
	Zone       *handler.ZoneHandler
	Detect     *handler.DetectHandler
	Config     *handler.ConfigHandler
	Auth       *handler.AuthHandler
	Health     *handler.HealthHandler
	WS         *handler.WSHandler
}

type Server struct {
	httpServer *http.Server
	router     *mux.Router
	metrics    *metrics.Collector
	cfg        *config.Config
	log        *logger.Logger
}

func New(cfg *config.Config, collector *metrics.Collector, log *logger.Logger) *Server {
	router := mux.NewRouter()

	server := &Server{
		router:  router,
		metrics: collector,
		cfg:     cfg,
		log:     log,
		httpServer: &http.Server{
			Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			// CORS wraps the router so preflights are answered before method matching.
			Handler:        middleware.CORS(cfg.Security.CORSAllowedOrigins, cfg.Security.CORSAllowedMethods)(router),
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		},
	}

	return server
}

// RegisterHandlers mounts the API. A nil verifier leaves the operator
// routes open. ctx bounds the rate limiter's janitor.
func (s *Server) RegisterHandlers(ctx context.Context, h Handlers, verifier middleware.TokenVerifier) {
	s.router.Use(s.metrics.Middleware)

	api := s.router.PathPrefix("/api").Subrouter()

	api.Use(middleware.RequestLogger(s.log))
	api.Use(middleware.Recovery(s.log))

	if s.cfg.Security.EnableRateLimit {
		api.Use(middleware.RateLimit(ctx, s.cfg.Security.RateLimitPerMinute))
	}

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.RequireAuth(verifier))

	h.Simulation.RegisterRoutes(api, protected)
	h.Mirror.RegisterRoutes(api)
	h.Chat.RegisterRoutes(api)
	h.Zone.RegisterRoutes(api)
	h.Detect.RegisterRoutes(api)
	h.Config.RegisterRoutes(api)
	if h.Auth != nil {
		h.Auth.RegisterRoutes(api)
	}

	h.Health.RegisterRoutes(s.router)
	h.WS.RegisterRoutes(s.router)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	s.log.Info("All handlers registered")
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.log.Info("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}
