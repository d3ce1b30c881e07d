// Package server exposes the search pipeline over HTTP: searches stream
// lifecycle events as newline-delimited JSON, with cancel, history, and
// health endpoints alongside.
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

	"github.com/CloudShih/ripsearch/internal/config"
	"github.com/CloudShih/ripsearch/internal/history"
	"github.com/CloudShih/ripsearch/internal/worker"
)

// Server is the HTTP front end. It enforces single-flight: at most one
// active search per server instance; a second concurrent request is a
// client error.
type Server struct {
	cfg     *config.Config
	history *history.Store
	logger  *zap.Logger
	server  *http.Server

	mu     sync.Mutex
	active *worker.Worker
}

// NewServer creates a server. store may be nil to disable history.
func NewServer(cfg *config.Config, store *history.Store, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		history: store,
		logger:  logger,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/search/cancel", s.handleCancel)
	r.Get("/api/v1/history", s.handleHistory)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// workerConfig maps the loaded configuration onto one worker.
func (s *Server) workerConfig() worker.Config {
	format := commandFormat(s.cfg.Search.JSONOutputOrDefault())
	return worker.Config{
		Executable:       s.cfg.Binary.Path,
		Format:           format,
		GracePeriod:      s.cfg.Search.GracePeriod(),
		ProgressInterval: s.cfg.Search.ProgressInterval(),
		BufferItems:      s.cfg.Search.BufferItems,
		BufferBytes:      s.cfg.Search.BufferBytes,
		BaseTimeout:      s.cfg.Search.BaseTimeout(),
		MaxTimeout:       s.cfg.Search.MaxTimeout(),
	}
}

// acquire claims the single search slot, or returns false if busy.
func (s *Server) acquire(w *worker.Worker) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return false
	}
	s.active = w
	return true
}

// release frees the slot if w still owns it.
func (s *Server) release(w *worker.Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == w {
		s.active = nil
	}
}

const historyWriteTimeout = 5 * time.Second
