// Package server exposes the collection and action surface over HTTP plus a
// WebSocket stream of listing updates.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bchsol/CryptoDragon/internal/domain"
	"github.com/bchsol/CryptoDragon/internal/server/handler"
	"github.com/bchsol/CryptoDragon/internal/server/middleware"
	"github.com/bchsol/CryptoDragon/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// ActionRateLimit caps mutating requests per client IP per minute.
	// Zero disables API rate limiting.
	ActionRateLimit int
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Archives may be nil when snapshot archiving is not configured.
type Handlers struct {
	Health   *handler.HealthHandler
	Assets   *handler.AssetHandler
	Actions  *handler.ActionHandler
	Archives *handler.ArchiveHandler
}

// Server is the HTTP + WebSocket API server for the dragon marketplace
// station.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth, rate limiting) and attaches
// the WebSocket hub. The limiter may be nil.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Collection reads.
	mux.HandleFunc("GET /api/assets", handlers.Assets.GetSnapshot)
	mux.HandleFunc("POST /api/refresh", handlers.Assets.Refresh)
	mux.HandleFunc("GET /api/assets/{id}/growth", handlers.Assets.GetGrowth)

	// Marketplace actions.
	mux.HandleFunc("POST /api/assets/{id}/list", handlers.Actions.ListForSale)
	mux.HandleFunc("POST /api/assets/{id}/auction", handlers.Actions.ListForAuction)
	mux.HandleFunc("POST /api/assets/{id}/evolve", handlers.Actions.Evolve)
	mux.HandleFunc("POST /api/assets/{id}/feed", handlers.Actions.Feed)
	mux.HandleFunc("POST /api/assets/{id}/resolve", handlers.Actions.Resolve)

	// Action journal.
	mux.HandleFunc("GET /api/actions", handlers.Actions.ListActions)

	// Snapshot archives.
	if handlers.Archives != nil {
		mux.HandleFunc("GET /api/snapshots", handlers.Archives.ListArchives)
		mux.HandleFunc("GET /api/snapshots/{name}", handlers.Archives.GetArchive)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	if limiter != nil && cfg.ActionRateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.ActionRateLimit, time.Minute)(h)
	}
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout: 15 * time.Second,
		// Actions may block on receipt confirmation, so the write timeout
		// is generous.
		WriteTimeout: 90 * time.Second,
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
