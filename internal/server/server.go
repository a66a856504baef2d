// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects stores, services, handlers,
// middleware, and routes. Think of it as the control centre that decides:
// - Which store backs the services (SQLite or Postgres)
// - Which URL patterns map to which handler functions
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go creates:
//
//	config.Config → OpenStore → repository.Store
//	NewServices(store) → Calendar → StreakService, ScoreService → EntryService, HabitService
//	server.New(cfg, services) → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired
// in one place, rather than scattered across the codebase.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/sakif/habit-coach/internal/config"
	"github.com/sakif/habit-coach/internal/handler"
	"github.com/sakif/habit-coach/internal/middleware"
	"github.com/sakif/habit-coach/internal/repository"
	"github.com/sakif/habit-coach/internal/repository/postgres"
	sqliteRepo "github.com/sakif/habit-coach/internal/repository/sqlite"
	"github.com/sakif/habit-coach/internal/service"
)

// OpenStore connects to the configured database and applies pending migrations.
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with
// the sqlite driver package.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		return sqliteRepo.New(ctx, cfg.Path)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// Services is the full service layer over one store.
type Services struct {
	Users   *service.UserService
	Habits  *service.HabitService
	Entries *service.EntryService
	Streaks *service.StreakService
	Scores  *service.ScoreService
}

// NewServices wires the service layer. fallback is the timezone used for
// users without one of their own.
func NewServices(store repository.Store, fallback *time.Location, logger *slog.Logger) *Services {
	calendar := service.NewCalendar(store, fallback, logger)
	streaks := service.NewStreakService(store, calendar, logger)
	scores := service.NewScoreService(store, logger)

	return &Services{
		Users:   service.NewUserService(store, logger),
		Habits:  service.NewHabitService(store, scores, logger),
		Entries: service.NewEntryService(store, streaks, scores, logger),
		Streaks: streaks,
		Scores:  scores,
	}
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. When the server shuts down, Start closes it
// to flush pending writes and release the SQLite file lock.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
}

// New creates a Server over an already-opened store.
func New(cfg config.Config, store repository.Store, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes(NewServices(store, cfg.Location(), logger))
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info and the request id
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. CORS: answers browser preflight requests before they reach a handler
func (s *Server) setupRoutes(svc *Services) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}).Handler)

	s.router.Get("/healthz", s.handleHealth)

	users := handler.NewUserHandler(svc.Users, s.logger)
	habits := handler.NewHabitHandler(svc.Habits, svc.Streaks, s.logger)
	entries := handler.NewEntryHandler(svc.Entries, s.logger)
	scores := handler.NewScoreHandler(svc.Scores, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/users", users.HandleCreate)
		r.Get("/users/{userID}", users.HandleGet)
		r.Get("/users/{userID}/habits", habits.HandleList)
		r.Post("/users/{userID}/habits", habits.HandleCreate)
		r.Get("/users/{userID}/scores", scores.HandleList)
		r.Get("/users/{userID}/scores/{date}", scores.HandleGet)

		r.Get("/habits/{habitID}", habits.HandleGet)
		r.Put("/habits/{habitID}", habits.HandleUpdate)
		r.Delete("/habits/{habitID}", habits.HandleDelete)
		r.Get("/habits/{habitID}/entries", entries.HandleList)
		r.Put("/habits/{habitID}/entries/{date}", entries.HandleUpsert)
		r.Get("/habits/{habitID}/streaks", habits.HandleStreaks)
		r.Get("/habits/{habitID}/stats", habits.HandleStats)

		r.Post("/entries/batch", entries.HandleBatch)
		r.Put("/entries/{entryID}", entries.HandleUpdate)
		r.Delete("/entries/{entryID}", entries.HandleDelete)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the store (flushes WAL, releases file lock, drains the pgx pool)
//
// Cancelling ctx has the same effect as SIGINT/SIGTERM.
func (s *Server) Start(ctx context.Context) error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.Database.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		// Give in-flight requests 30 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
