package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clubledger/reconcile/internal/api/handlers"
	"github.com/clubledger/reconcile/internal/api/middleware"
	"github.com/clubledger/reconcile/internal/application/reconcile"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8085,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	svc        *reconcile.Service
}

// NewServer creates a new API server over the reconciliation service.
func NewServer(cfg Config, svc *reconcile.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		logger: logger.With(slog.String("component", "api")),
		svc:    svc,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	// CORS
	s.router.Use(middleware.CORS(middleware.DefaultCORSConfig(s.config.AllowedOrigins...)))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler(s.svc.AIEnabled())
	s.router.Get("/health", healthHandler.ServeHTTP)

	s.router.Route("/api", func(r chi.Router) {
		// Links and payment status
		links := handlers.NewLinksHandler(s.svc, s.logger)
		r.Post("/links", links.Link)
		r.Delete("/links/{payableType}/{payableID}", links.Unlink)
		r.Post("/payables/{payableType}/{payableID}/cash", links.MarkCash)
		r.Post("/payables/{payableType}/{payableID}/unpaid", links.MarkUnpaid)
		r.Get("/payables/{payableType}/{payableID}/quality/{transactionID}", links.Quality)

		// Event batches
		events := handlers.NewEventsHandler(s.svc, s.logger)
		r.Post("/events/{eventID}/automatch", events.AutoMatch)
		r.Post("/events/{eventID}/ai-suggestions", events.AISuggestions)

		// Transactions
		txs := handlers.NewTransactionsHandler(s.svc, s.logger)
		r.Get("/transactions/{id}", txs.Get)
		r.Get("/transactions/{id}/categorization", txs.Categorization)
		r.Post("/transactions/{id}/categorization", txs.ConfirmCategorization)
		r.Post("/transactions/{id}/split", txs.Split)
		r.Post("/transactions/{id}/ai-suggestion", txs.AISuggestion)

		// Integrity
		maint := handlers.NewMaintenanceHandler(s.svc, s.logger)
		r.Delete("/entities/{entityType}/{entityID}/links", maint.CleanupLinks)
		r.Post("/repair", maint.Repair)
		r.Post("/repair/reconciled", maint.RepairReconciled)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // AI batches pace provider calls
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
