// Package server provides the HTTP API and page serving for the portfolio.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/portfolio/internal/analytics"
	"github.com/jonathan/portfolio/internal/config"
	"github.com/jonathan/portfolio/internal/metrics"
	"github.com/jonathan/portfolio/internal/rendering"
	"github.com/jonathan/portfolio/internal/server/middleware"
	"github.com/jonathan/portfolio/internal/server/ratelimit"
	"github.com/jonathan/portfolio/internal/types"
)

const (
	// maxBodyBytes bounds telemetry request bodies.
	maxBodyBytes = 64 << 10

	defaultSweepInterval = time.Minute
	defaultSummaryWindow = 30 * 24 * time.Hour
	shutdownTimeout      = 30 * time.Second
)

// SummaryStore aggregates stored telemetry events.
type SummaryStore interface {
	Summary(ctx context.Context, since time.Time) (*types.AnalyticsSummary, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	logger      *slog.Logger
	rateLimiter *ratelimit.Limiter
	stopOnce    sync.Once

	resume      *types.Resume
	page        *rendering.Page
	siteURL     string
	ogImagePath string

	analytics *analytics.Client
	pageViews *analytics.PageViews
	metrics   *metrics.Manager

	store         SummaryStore
	summaryWindow time.Duration
	sweepInterval time.Duration
	jwtService    *JWTService
	now           func() time.Time
}

// Config holds server configuration
type Config struct {
	Addr    string
	SiteURL string

	// Resume is the validated content document. Required.
	Resume *types.Resume

	// Page renders the site. Nil uses the built-in template.
	Page *rendering.Page

	// OGImagePath is a PNG served at /opengraph-image.png when set.
	OGImagePath string

	// Metrics receives HTTP and telemetry metrics. Nil creates a fresh manager.
	Metrics *metrics.Manager

	// Analytics records link clicks. Nil records to Metrics only.
	Analytics *analytics.Client

	// PageViews tracks scroll depth per page view. Nil creates a registry
	// on top of Analytics.
	PageViews     *analytics.PageViews
	SweepInterval time.Duration

	// Store backs the analytics summary. The summary answers 503 when nil.
	Store         SummaryStore
	SummaryWindow time.Duration

	// JWT protects the analytics summary. The summary answers 503 when nil.
	JWT *config.JWTConfig

	// RateLimit nil loads the configuration from RATE_LIMIT_* variables.
	RateLimit *ratelimit.Config

	Logger *slog.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Resume == nil {
		return nil, fmt.Errorf("server requires a resume")
	}

	s := &Server{
		logger:        cfg.Logger,
		resume:        cfg.Resume,
		page:          cfg.Page,
		siteURL:       cfg.SiteURL,
		ogImagePath:   cfg.OGImagePath,
		metrics:       cfg.Metrics,
		analytics:     cfg.Analytics,
		pageViews:     cfg.PageViews,
		store:         cfg.Store,
		summaryWindow: cfg.SummaryWindow,
		sweepInterval: cfg.SweepInterval,
		now:           time.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.page == nil {
		page, err := rendering.NewPage("")
		if err != nil {
			return nil, fmt.Errorf("failed to load page template: %w", err)
		}
		s.page = page
	}
	if s.metrics == nil {
		s.metrics = metrics.NewManager()
	}
	if s.analytics == nil {
		s.analytics = analytics.NewClient(s.metrics)
	}
	if s.pageViews == nil {
		s.pageViews = analytics.NewPageViews(s.analytics, 0)
	}
	s.pageViews.Observe(s.metrics.SetOpenPageViews)
	if s.summaryWindow <= 0 {
		s.summaryWindow = defaultSummaryWindow
	}
	if s.sweepInterval <= 0 {
		s.sweepInterval = defaultSweepInterval
	}
	if cfg.JWT != nil {
		s.jwtService = NewJWTService(cfg.JWT)
	}

	// Initialize rate limiter
	rateLimit := cfg.RateLimit
	if rateLimit == nil {
		loaded, err := ratelimit.LoadConfig()
		if err != nil {
			return nil, err
		}
		rateLimit = loaded
	}
	s.rateLimiter = ratelimit.NewLimiter(rateLimit)

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(rendering.Static())))
	mux.HandleFunc("GET /opengraph-image.png", s.handleOGImage)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// Content
	mux.HandleFunc("GET /api/resume", s.handleGetResume)

	// Telemetry
	mux.HandleFunc("POST /api/pageviews", s.handleOpenPageView)
	mux.HandleFunc("POST /api/pageviews/{id}/scroll", s.handleScrollSignal)
	mux.HandleFunc("DELETE /api/pageviews/{id}", s.handleClosePageView)
	mux.HandleFunc("POST /api/events/link-click", s.handleLinkClick)

	// Analytics (bearer token)
	mux.Handle("GET /api/analytics/summary", s.requireAuth(http.HandlerFunc(s.handleAnalyticsSummary)))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// PageViews exposes the page view registry.
func (s *Server) PageViews() *analytics.PageViews {
	return s.pageViews
}

// Run serves requests and expires idle page views until ctx is done, then
// shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return s.pageViews.Run(ctx, s.sweepInterval)
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Close releases background resources. It is safe to call more than once.
func (s *Server) Close() {
	s.stopOnce.Do(func() {
		// Stop rate limiter cleanup goroutine
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
	})
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withLogging adds request logging and HTTP metrics
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTPRequest(route, r.Method, rec.status, elapsed)
		s.logger.LogAttrs(r.Context(), slog.LevelDebug, "request completed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("route", route),
			slog.Int("status", rec.status),
			slog.Duration("elapsed", elapsed),
			slog.String("remote", r.RemoteAddr),
		)
	})
}

// requireAuth guards next with bearer-token authentication. Without a
// configured secret every request is answered 503.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	if s.jwtService == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			s.errorFromErr(w, &ErrUnavailable{Feature: "analytics summary"})
		})
	}
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(next)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// errorFromErr writes err with the status HTTPStatus maps it to. Internal
// errors are logged and reported without detail.
func (s *Server) errorFromErr(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", slog.Any("error", err))
		s.errorResponse(w, status, "internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	// Get IP from RemoteAddr (format: "IP:port")
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If parsing fails, use the whole RemoteAddr
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(math.Ceil(info.RetryAfter.Seconds()))
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded",
		slog.String("client", s.extractClientID(r)),
		slog.String("path", r.URL.Path),
		slog.Int("limit", info.Limit),
		slog.Time("reset", info.ResetTime),
	)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
