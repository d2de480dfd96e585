// Package api provides the loopback HTTP gateway that CLI wrappers and the
// UI shell talk to.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/tallr-app/tallr/internal/auth"
	"github.com/tallr-app/tallr/internal/events"
	"github.com/tallr-app/tallr/internal/logging"
	"github.com/tallr-app/tallr/internal/setup"
	"github.com/tallr-app/tallr/internal/store"
)

// Server exposes the task-tracking API over HTTP.
type Server struct {
	router    chi.Router
	store     *store.Store
	gate      *auth.Gate
	publisher *events.Publisher
	setup     *setup.Manager
	logger    *logging.Logger
	debug     bool
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithDebug enables the diagnostic trace endpoints.
func WithDebug(debug bool) ServerOption {
	return func(s *Server) {
		s.debug = debug
	}
}

// NewServer creates a new API server.
func NewServer(st *store.Store, gate *auth.Gate, publisher *events.Publisher, setupMgr *setup.Manager, opts ...ServerOption) *Server {
	s := &Server{
		store:     st,
		gate:      gate,
		publisher: publisher,
		setup:     setupMgr,
		logger:    logging.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures Chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	// CORS for the UI shell webview
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(corsHandler.Handler)

	// Setup status is the one unauthenticated route; the shell probes it
	// before it has a token.
	r.Get("/setup/status", s.handleSetupStatus)

	r.Group(func(r chi.Router) {
		r.Use(s.gate.Middleware)
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/state", s.handleState)
		r.Get("/health", s.handleHealth)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/upsert", s.handleUpsert)
			r.Post("/state", s.handleUpdateState)
			r.Post("/state-enhanced", s.handleUpdateStateEnhanced)
			r.Post("/details", s.handleUpdateDetails)
			r.Post("/done", s.handleMarkDone)
			r.Post("/delete", s.handleDelete)
			r.Post("/pin", s.handlePin)
		})

		r.Post("/setup/complete", s.handleSetupComplete)

		if s.debug {
			r.Get("/debug/patterns", s.handleDebugLatest)
			r.Get("/debug/patterns/{taskID}", s.handleDebugForTask)
			r.Post("/debug/update", s.handleDebugUpdate)
		}
	})

	// The event stream lives until the client goes away, so it stays
	// outside the request timeout.
	r.Group(func(r chi.Router) {
		r.Use(s.gate.Middleware)
		r.Get("/events", s.handleSSE)
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Error("failed to encode response", "error", err)
		}
	}
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// handleState returns the full snapshot.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleHealth returns liveness info and records the caller's ping.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.store.Ping())
}

// handleSetupStatus reports first-run flags. No auth: the shell calls this
// before a token exists.
func (s *Server) handleSetupStatus(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.setup.Status())
}

// handleSetupComplete records that first-run setup finished.
func (s *Server) handleSetupComplete(w http.ResponseWriter, _ *http.Request) {
	if err := s.setup.MarkCompleted(); err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting API server", "addr", addr)
	return srv.ListenAndServe()
}
