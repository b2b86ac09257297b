// Package api exposes reconciliation over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/orderrecon/internal/api/handlers"
	"github.com/eshaffer321/orderrecon/internal/api/middleware"
	"github.com/eshaffer321/orderrecon/internal/application/service"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	MaxUploadBytes int64
	// WriteTimeout must exceed the reconciliation timeout so a 504 can be written.
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           3000,
		AllowedOrigins: middleware.DefaultCORSConfig().AllowedOrigins,
		MaxUploadBytes: 32 << 20,
		WriteTimeout:   2 * time.Minute,
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	svc        *service.ReconcileService
}

// NewServer creates a new API server.
func NewServer(cfg Config, svc *service.ReconcileService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		router: gin.New(),
		logger: logger,
		svc:    svc,
	}
	s.router.MaxMultipartMemory = 8 << 20

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	corsConfig := middleware.DefaultCORSConfig()
	if len(s.config.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = s.config.AllowedOrigins
	}

	s.router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logging(s.logger),
		middleware.CORS(corsConfig),
	)
}

func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	s.router.GET("/health", handlers.Health)

	reconcile := handlers.NewReconcileHandler(s.svc, s.config.MaxUploadBytes)
	runs := handlers.NewRunsHandler(s.svc)

	api := s.router.Group("/api")
	{
		api.POST("/process-excel-comparison", reconcile.Compare)
		api.GET("/platforms", reconcile.Platforms)

		api.GET("/runs", runs.List)
		api.GET("/runs/:id", runs.Get)
		api.GET("/runs/:id/outcome", runs.Outcome)
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	writeTimeout := s.config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultConfig().WriteTimeout
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("starting API server", slog.String("addr", addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router returns the gin engine for testing.
func (s *Server) Router() http.Handler {
	return s.router
}
