package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/server/handler"
	"github.com/alanyoungcy/arbscout/internal/server/middleware"
	"github.com/alanyoungcy/arbscout/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if both keys are empty, authentication is disabled
	ReadAPIKey  string
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int
	// ScanRateLimit is on-demand scans per hour per client IP; 0 disables it.
	ScanRateLimit int
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health        *handler.HealthHandler
	Opportunities *handler.OpportunityHandler
	Scan          *handler.ScanHandler
	Decisions     *handler.DecisionHandler
	Reports       *handler.ReportHandler
	Blacklist     *handler.BlacklistHandler
	Audit         *handler.AuditHandler
	// Archives is nil when cold storage is not configured.
	Archives *handler.ArchiveHandler
}

// Server is the HTTP + WebSocket API of the scanner.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with every route registered. limiter may be
// nil, in which case requests are not rate limited.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "http"))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewHandler(cfg, handlers, wsHub, limiter, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // POST /api/scan runs synchronously
		IdleTimeout:  60 * time.Second,
	}
	return &Server{httpServer: srv, logger: logger}
}

// NewHandler builds the routed, middleware-wrapped handler.
func NewHandler(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/opportunities", handlers.Opportunities.List)
	mux.HandleFunc("GET /api/opportunities/summary", handlers.Opportunities.Summary)
	mux.HandleFunc("GET /api/opportunities/{id}", handlers.Opportunities.Get)
	mux.HandleFunc("PATCH /api/opportunities/{id}/status", handlers.Opportunities.UpdateStatus)
	mux.HandleFunc("GET /api/opportunities/{id}/competition", handlers.Opportunities.Competition)

	mux.HandleFunc("POST /api/scan", handlers.Scan.Scan)
	mux.HandleFunc("POST /api/decisions", handlers.Decisions.Plan)

	mux.HandleFunc("GET /api/reports", handlers.Reports.Report)
	mux.HandleFunc("GET /api/reports/performance", handlers.Reports.Performance)
	mux.HandleFunc("GET /api/keywords/top", handlers.Reports.TopKeywords)

	mux.HandleFunc("GET /api/blacklist", handlers.Blacklist.List)
	mux.HandleFunc("POST /api/blacklist", handlers.Blacklist.Add)
	mux.HandleFunc("DELETE /api/blacklist/{platform}/{seller}", handlers.Blacklist.Remove)

	if handlers.Archives != nil {
		mux.HandleFunc("GET /api/archives", handlers.Archives.List)
	}
	if handlers.Audit != nil {
		mux.HandleFunc("GET /api/audit", handlers.Audit.List)
	}

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Outermost first: CORS, logging, rate limit, auth.
	var h http.Handler = mux
	h = middleware.Auth(middleware.Keys{Admin: cfg.APIKey, Read: cfg.ReadAPIKey}, "/api/health")(h)
	h = middleware.RateLimit(limiter, logger,
		middleware.Quota{Name: "api", Limit: cfg.RateLimit, Window: time.Minute},
		middleware.Quota{Name: "scan", Limit: cfg.ScanRateLimit, Window: time.Hour, Match: middleware.IsScan},
	)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	return h
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
