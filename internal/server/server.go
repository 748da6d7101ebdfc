// Package server exposes the verb site over HTTP: a proxy to the remote
// analysis API with a response cache, CRUD over the verb file, and the
// composed site page. Handlers stay thin; the route surface mirrors the
// store, cache, and composer operations one to one.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/verbatlas/pagegen/internal/gnc"
	"github.com/verbatlas/pagegen/internal/verbstore"
	"github.com/verbatlas/pagegen/pkg/compose"
)

// Option customises a Server.
type Option func(*Server)

// WithLogger attaches a logger used by handlers and middleware.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAnalyzer wires the analysis backend, typically *gnc.Cache over a
// *gnc.Client. Without one the analyze endpoints report 503.
func WithAnalyzer(analyzer gnc.Analyzer) Option {
	return func(s *Server) {
		s.analyzer = analyzer
	}
}

// WithAnalysisCache exposes the cache's stats/clear operations. Usually the
// same value passed to WithAnalyzer.
func WithAnalysisCache(cache *gnc.Cache) Option {
	return func(s *Server) {
		s.cache = cache
	}
}

// WithVerbStore wires the verb CRUD backend.
func WithVerbStore(store *verbstore.Store) Option {
	return func(s *Server) {
		s.verbs = store
	}
}

// WithComposer wires the page composer for the site route.
func WithComposer(composer *compose.Composer) Option {
	return func(s *Server) {
		s.composer = composer
	}
}

// Server holds the handler dependencies.
type Server struct {
	logger   *zap.Logger
	analyzer gnc.Analyzer
	cache    *gnc.Cache
	verbs    *verbstore.Store
	composer *compose.Composer
}

// New constructs a Server.
func New(options ...Option) *Server {
	s := &Server{
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Handler builds the route table wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/cache/stats", s.handleCacheStats)
	mux.HandleFunc("POST /api/cache/clear", s.handleCacheClear)

	mux.HandleFunc("GET /api/verbs", s.handleVerbList)
	mux.HandleFunc("POST /api/verbs", s.handleVerbCreate)
	mux.HandleFunc("GET /api/verbs/{infinitive}", s.handleVerbGet)
	mux.HandleFunc("PUT /api/verbs/{infinitive}", s.handleVerbPut)
	mux.HandleFunc("DELETE /api/verbs/{infinitive}", s.handleVerbDelete)

	mux.HandleFunc("GET /{$}", s.handlePage)

	return s.withMiddleware(mux)
}

// Run serves the handler on addr until ctx is canceled, then shuts down
// gracefully within grace.
func (s *Server) Run(ctx context.Context, addr string, grace time.Duration) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("grace", grace))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
