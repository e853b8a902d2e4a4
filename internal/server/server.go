// Package server provides the HTTP REST API for the resume editor: draft
// storage, editor sessions and the thumbnail and PDF flows.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/jonathan/resume-studio/internal/export"
	"github.com/jonathan/resume-studio/internal/server/middleware"
	"github.com/jonathan/resume-studio/internal/server/ratelimit"
)

// Config holds server configuration
type Config struct {
	Port           int
	Export         export.Config
	SessionTTL     time.Duration
	AllowedOrigins []string
}

// Deps are the collaborators the server is built from.
type Deps struct {
	Store       DraftStore
	Thumbnails  ThumbnailStore // nil disables the save flow
	Snapshotter export.Snapshotter
	Tokens      middleware.TokenValidator
	RateLimiter *ratelimit.Limiter // nil disables rate limiting
	Log         zerolog.Logger
}

// Server represents the HTTP server
type Server struct {
	cfg         Config
	store       DraftStore
	thumbs      ThumbnailStore
	snap        export.Snapshotter
	rateLimiter *ratelimit.Limiter
	sessions    *sessions
	log         zerolog.Logger

	router     chi.Router
	httpServer *http.Server
	stopSweep  chan struct{}
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("draft store is required")
	}
	if deps.Snapshotter == nil {
		return nil, fmt.Errorf("snapshotter is required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("token validator is required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}

	s := &Server{
		cfg:         cfg,
		store:       deps.Store,
		thumbs:      deps.Thumbnails,
		snap:        deps.Snapshotter,
		rateLimiter: deps.RateLimiter,
		sessions:    newSessions(),
		log:         deps.Log.With().Str("component", "server").Logger(),
		stopSweep:   make(chan struct{}),
	}
	s.router = s.buildRouter(deps.Tokens)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      180 * time.Second, // PDF export drives a headless browser
		IdleTimeout:       60 * time.Second,
	}

	go s.sweepSessions()
	return s, nil
}

func (s *Server) buildRouter(tokens middleware.TokenValidator) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.withLogging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if s.rateLimiter != nil {
		r.Use(s.withRateLimit)
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(tokens, s.log))

		r.Get("/profile", s.handleGetProfile)

		r.Route("/drafts", func(r chi.Router) {
			r.Post("/", s.handleCreateDraft)
			r.Get("/", s.handleListDrafts)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDraft)
				r.Put("/", s.handleUpdateDraft)
				r.Delete("/", s.handleDeleteDraft)

				r.Route("/session", func(r chi.Router) {
					r.Post("/", s.handleOpenSession)
					r.Get("/", s.handleGetSession)
					r.Patch("/field", s.handleUpdateField)
					r.Patch("/item", s.handleUpdateItem)
					r.Post("/item", s.handleAppendItem)
					r.Delete("/item", s.handleRemoveItem)
					r.Put("/theme", s.handleSetTheme)
					r.Put("/title", s.handleSetTitle)
					r.Post("/advance", s.handleAdvance)
					r.Post("/retreat", s.handleRetreat)
					r.Post("/save", s.handleSave)
					r.Get("/export", s.handleExport)
					r.Get("/export/status", s.handleExportStatus)
					r.Get("/events", s.handleEvents)
				})
			})
		})
	})

	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info().Msg("server stopped")
	return nil
}

// Close releases sessions and background work. It does not close the store.
func (s *Server) Close() {
	select {
	case <-s.stopSweep:
		return
	default:
		close(s.stopSweep)
	}
	s.sessions.closeAll()
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

func (s *Server) sweepSessions() {
	ticker := time.NewTicker(min(s.cfg.SessionTTL, 10*time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.sessions.sweep(time.Now().Add(-s.cfg.SessionTTL)); n > 0 {
				s.log.Info().Int("closed", n).Msg("closed idle editor sessions")
			}
		case <-s.stopSweep:
			return
		}
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn().Err(err).Msg("health check: database unreachable")
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.len()})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("error encoding JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID returns the client IP. RealIP has already applied any
// forwarding headers.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
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
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		secs := max(1, int(info.RetryAfter.Seconds()))
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	s.log.Warn().Int("limit", info.Limit).Msg("rate limit exceeded")
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
