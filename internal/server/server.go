// Package server provides the HTTP API for namesim.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/namesim/internal/config"
	"github.com/hyperjump/namesim/internal/indexer"
	"github.com/hyperjump/namesim/internal/metrics"
	"github.com/hyperjump/namesim/internal/search"
	"github.com/hyperjump/namesim/internal/storage"
)

// WatchService is the subset of the seed-file watcher the API manages.
type WatchService interface {
	Files() []string
	AddFile(path string) error
	RemoveFile(path string) error
}

// Server is the HTTP server for the namesim API.
type Server struct {
	engine  *search.Engine
	indexer *indexer.Indexer
	store   storage.Store
	config  *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	server  *http.Server

	watch      WatchService
	configPath string
	configMu   sync.Mutex
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithWatch enables the /api/v1/watch endpoints. Changes are saved to configPath when set.
func WithWatch(w WatchService, configPath string) ServerOption {
	return func(s *Server) {
		s.watch = w
		s.configPath = configPath
	}
}

// WithMetrics serves m on /metrics.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	idx *indexer.Indexer,
	store storage.Store,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...ServerOption,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:  engine,
		indexer: idx,
		store:   store,
		config:  cfg,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	timeout := s.config.Server.RequestTimeout()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/lookup", s.handleLookup)
		r.Post("/names", s.handleAddNames)
		r.Get("/names", s.handleListNames)
		r.Delete("/names/{id}", s.handleDeleteName)
		r.Post("/vectorize", s.handleVectorize)
		r.Post("/setup", s.handleSetup)
		r.Post("/reload", s.handleReload)
		r.Get("/status", s.handleStatus)
		r.Get("/watch", s.handleWatchList)
		r.Post("/watch", s.handleWatchAdd)
		r.Delete("/watch", s.handleWatchRemove)
	})
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
