// Package server wires the pantry together and runs the HTTP server.
//
// This is the composition root. New builds every dependency in order:
//
//	persistence.Open → persistence.Store → inventory.Store → service.FoodService → handler.FoodHandler
//
// and hangs the handlers on a chi router. Each layer only receives what it
// needs: the inventory sees a Storage, the service sees the inventory, the
// handler sees the service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/pantry/internal/auth"
	"github.com/sakif/pantry/internal/config"
	"github.com/sakif/pantry/internal/handler"
	"github.com/sakif/pantry/internal/inventory"
	"github.com/sakif/pantry/internal/metrics"
	"github.com/sakif/pantry/internal/middleware"
	"github.com/sakif/pantry/internal/persistence"
	"github.com/sakif/pantry/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Option overrides a default dependency. Tests use these to pin the clock
// and the item source.
type Option func(*options)

type options struct {
	now    func() time.Time
	source inventory.Source
}

// WithClock sets the clock shared by the inventory, service and metrics.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithSource replaces the built-in mock item source.
func WithSource(src inventory.Source) Option {
	return func(o *options) { o.source = src }
}

// Server owns the router and everything behind it. The storage backend is
// closed by Close, after a final save.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	storage *persistence.Store
	store   *inventory.Store
	metrics *metrics.Collector
	tokens  *auth.TokenService // nil when auth is disabled

	detachMetrics func()
	closeOnce     sync.Once
	closeErr      error
}

// New opens storage, restores the inventory and builds the router. When
// nothing has been saved yet the first page is loaded before New returns.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == nil {
		o.source = inventory.NewMockSource(o.now)
	}

	var tokens *auth.TokenService
	if cfg.JWTSecret != "" {
		var err error
		tokens, err = auth.NewTokenService(cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("creating token service: %w", err)
		}
	}

	backend, err := persistence.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	storage := persistence.NewStore(backend, persistence.Codec{Compress: cfg.Storage.Compress}, "")

	store := inventory.New(o.source,
		inventory.WithPageSize(cfg.PageSize),
		inventory.WithLatency(cfg.FetchLatency),
		inventory.WithClock(o.now),
		inventory.WithLogger(logger),
		inventory.WithStorage(storage),
	)
	found, err := store.Hydrate(ctx)
	if err != nil {
		storage.Close()
		return nil, err
	}
	if !found {
		if err := store.Refetch(ctx); err != nil {
			storage.Close()
			return nil, fmt.Errorf("loading first page: %w", err)
		}
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		storage: storage,
		store:   store,
		metrics: metrics.New(o.now),
		tokens:  tokens,
	}
	s.detachMetrics = s.metrics.Attach(store)
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures middleware and routes.
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/meta
//	GET    /api/food-items
//	POST   /api/food-items                 (auth)
//	GET    /api/food-items/expiring
//	POST   /api/food-items/next-page       (auth)
//	POST   /api/food-items/refetch         (auth)
//	GET    /api/food-items/{id}
//	PATCH  /api/food-items/{id}            (auth)
//	DELETE /api/food-items/{id}            (auth)
//	PUT    /api/filters                    (auth)
//	DELETE /api/filters                    (auth)
//
// "(auth)" routes need a token only when a JWT secret is configured.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	foodService := service.NewFoodService(s.store, nil, s.logger)
	foodHandler := handler.NewFoodHandler(foodService, s.logger)

	s.router.Get("/healthz", handler.HandleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/meta", foodHandler.HandleMeta)

		r.Route("/food-items", func(r chi.Router) {
			r.Get("/", foodHandler.HandleList)
			r.Get("/expiring", foodHandler.HandleExpiring)
			r.Get("/{id}", foodHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/", foodHandler.HandleCreate)
				r.Post("/next-page", foodHandler.HandleNextPage)
				r.Post("/refetch", foodHandler.HandleRefetch)
				r.Patch("/{id}", foodHandler.HandleUpdate)
				r.Delete("/{id}", foodHandler.HandleDelete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Put("/filters", foodHandler.HandleSetFilters)
			r.Delete("/filters", foodHandler.HandleClearFilters)
		})
	})
}

// requireAuth is auth.RequireAuth when a secret is configured and a
// pass-through otherwise.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	if s.tokens == nil {
		return next
	}
	return auth.RequireAuth(s.tokens)(next)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Close saves the inventory one last time and closes storage. Calls after
// the first return the first result.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.detachMetrics()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		saveErr := s.store.Save(ctx)
		if saveErr != nil {
			s.logger.Error("final save failed", slog.String("error", saveErr.Error()))
		}
		s.closeErr = errors.Join(saveErr, s.storage.Close())
	})
	return s.closeErr
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully:
// stop accepting connections, let in-flight requests finish (30s), save,
// and close storage.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("storage", string(s.config.Storage.Driver)),
			slog.Bool("auth", s.tokens != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
