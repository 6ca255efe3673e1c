// Package server provides the HTTP API for the dividend tracker. Routes are
// thin wrappers over the services; all algorithmic behaviour lives below.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/quantfold/divtracker/internal/server/handler"
	"github.com/quantfold/divtracker/internal/server/middleware"
	"github.com/quantfold/divtracker/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Archive may be nil when no page archive is configured.
type Handlers struct {
	Health    *handler.HealthHandler
	Companies *handler.CompanyHandler
	Finance   *handler.FinanceHandler
	Sync      *handler.SyncHandler
	Archive   *handler.ArchiveHandler
}

// Server is the HTTP + WebSocket API server for the dividend tracker.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth) and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Company lifecycle and autocomplete.
	mux.HandleFunc("GET /api/company", handlers.Companies.ListCompanies)
	mux.HandleFunc("POST /api/company", handlers.Companies.AddCompany)
	mux.HandleFunc("DELETE /api/company/{ticker}", handlers.Companies.DeleteCompany)
	mux.HandleFunc("GET /api/company/autocomplete", handlers.Companies.Autocomplete)

	// Dividend lookup.
	mux.HandleFunc("GET /api/finance/dividend/{companyName}", handlers.Finance.GetDividends)

	// Manual sync trigger.
	mux.HandleFunc("POST /api/sync/trigger", handlers.Sync.TriggerSync)

	// Archived page snapshots, when the archive is configured.
	if handlers.Archive != nil {
		mux.HandleFunc("GET /api/archive/{ticker}", handlers.Archive.ListSnapshots)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply auth middleware (skips if APIKey is empty).
	h = middleware.Auth(cfg.APIKey)(h)

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
