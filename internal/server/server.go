// Package server provides the HTTP API for evaluation, qrel
// management and the leaderboard.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/terrierteam/treceval/eval"
	"github.com/terrierteam/treceval/eval/trecexec"
	"github.com/terrierteam/treceval/internal/bus"
	"github.com/terrierteam/treceval/internal/config"
	"github.com/terrierteam/treceval/internal/leaderboard"
	"github.com/terrierteam/treceval/internal/pkg/logger"
	"github.com/terrierteam/treceval/internal/pkg/middleware"
	"github.com/terrierteam/treceval/internal/pkg/security"
	"github.com/terrierteam/treceval/trec"
)

// Server wires the evaluator, qrel registry, leaderboard and event bus
// behind an HTTP API.
type Server struct {
	cfg     *config.Config
	log     *logger.Logger
	version string

	bus     bus.Bus
	board   leaderboard.Store
	factory eval.EngineFactory

	httpServer *http.Server

	mu      sync.RWMutex
	qrels   map[string]trec.Qrel
	started bool
}

// New creates a server with all dependencies.
func New(cfg *config.Config, log *logger.Logger, eventBus bus.Bus, board leaderboard.Store, version string) (*Server, error) {
	factory, err := engineFactory(cfg.Engine)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:     cfg,
		log:     log,
		version: version,
		bus:     eventBus,
		board:   board,
		factory: factory,
		qrels:   make(map[string]trec.Qrel),
	}, nil
}

// engineFactory resolves the configured scoring engine. A configured
// binary path binds the trec_eval adapter to that executable instead
// of the registry default.
func engineFactory(cfg config.EngineConfig) (eval.EngineFactory, error) {
	if cfg.Name == "trec_eval" && cfg.Binary != "" {
		return trecexec.Factory(cfg.Binary), nil
	}
	factory, ok := eval.Lookup(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("unknown engine %q (registered: %v)", cfg.Name, eval.Engines())
	}
	return factory, nil
}

// Handler builds the full HTTP handler, routes plus middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /v1/measures", s.handleMeasures)
	mux.HandleFunc("POST /v1/measures/normalize", s.handleNormalize)

	mux.HandleFunc("GET /v1/qrels", s.handleListQrels)
	mux.HandleFunc("PUT /v1/qrels/{name}", s.handlePutQrels)
	mux.HandleFunc("DELETE /v1/qrels/{name}", s.handleDeleteQrels)

	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("GET /v1/leaderboard", s.handleLeaderboard)

	handler := http.Handler(mux)
	handler = maxBytesMiddleware(handler, security.MaxRequestSize)
	handler = loggingMiddleware(handler, s.log)
	handler = corsMiddleware(handler)
	if s.cfg.Security.RateLimit > 0 {
		rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(s.cfg.Security.RateLimit),
			Burst:             s.cfg.Security.RateLimit * 2,
			CleanupInterval:   time.Minute,
		})
		handler = rl.Middleware(handler)
	}
	handler = recoveryMiddleware(handler, s.log)

	return handler
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true

	s.httpServer = &http.Server{
		Addr:         s.cfg.Address(),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	s.mu.Unlock()

	s.log.Info("Starting HTTP server", "addr", s.cfg.Address())
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	s.log.Info("Shutting down server...")
	return s.httpServer.Shutdown(ctx)
}

// getQrels returns a named qrel set from the registry.
func (s *Server) getQrels(name string) (trec.Qrel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.qrels[name]
	return q, ok
}

// SetQrels registers a qrel set under a name, replacing any existing
// set. Used by the directory watcher alongside the HTTP endpoint.
func (s *Server) SetQrels(name string, qrels trec.Qrel) {
	s.mu.Lock()
	s.qrels[name] = qrels
	s.mu.Unlock()
}

// RemoveQrels drops a named qrel set if present.
func (s *Server) RemoveQrels(name string) {
	s.mu.Lock()
	delete(s.qrels, name)
	s.mu.Unlock()
}
