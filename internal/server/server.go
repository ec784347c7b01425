// Package server provides the HTTP server and routing for EchoGenesis.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/suryap3105/EchoGenesis/internal/config"
	"github.com/suryap3105/EchoGenesis/internal/database"
	"github.com/suryap3105/EchoGenesis/internal/events"
	"github.com/suryap3105/EchoGenesis/internal/organism"
	"github.com/suryap3105/EchoGenesis/internal/reliability"
	"github.com/suryap3105/EchoGenesis/internal/scheduler"
)

// Config holds server configuration.
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	DB        *database.DB
	Organisms *organism.Service
	Bus       *events.Bus
	Scheduler *scheduler.Scheduler
	Backups   *reliability.BackupService // nil when backups are disabled
	BackupJob scheduler.Job              // nil when backups are disabled
}

// Server represents the HTTP server.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	cfg       *config.Config
	db        *database.DB
	organisms *organism.Service
	bus       *events.Bus
	sched     *scheduler.Scheduler
	backups   *reliability.BackupService
	backupJob scheduler.Job
	startedAt time.Time
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		db:        cfg.DB,
		organisms: cfg.Organisms,
		bus:       cfg.Bus,
		sched:     cfg.Scheduler,
		backups:   cfg.Backups,
		backupJob: cfg.BackupJob,
		startedAt: time.Now(),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware.
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Websocket stream must dodge the write timeout middleware stack.
		streamHandler := NewStreamHandler(s.bus, s.log)
		r.Get("/events/stream", streamHandler.ServeHTTP)

		r.Route("/organisms", func(r chi.Router) {
			r.Get("/", s.handleListOrganisms)
			r.Post("/", s.handleCreateOrganism)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetOrganism)
				r.Delete("/", s.handleDeleteOrganism)
				r.Post("/optimize", s.handleOptimize)
				r.Post("/gates", s.handleApplyGates)
				r.Post("/reset", s.handleReset)
				r.Post("/advance", s.handleAdvance)
				r.Get("/history", s.handleHistory)
				r.Get("/stream", streamHandler.ServeHTTP)
			})
		})

		if s.backups != nil {
			r.Route("/backups", func(r chi.Router) {
				r.Get("/", s.handleListBackups)
				if s.sched != nil && s.backupJob != nil {
					r.Post("/", s.handleTriggerBackup)
				}
			})
		}
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the underlying handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
