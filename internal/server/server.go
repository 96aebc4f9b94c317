// Package server exposes the lineage engine over a small JSON API.
//
// The routes mirror what presentation collaborators need: build a
// lineage graph for an entity, promote a pasted query result to a
// graph, scan SQL for entity candidates, and inspect the configured
// collections. Rendering stays with the collaborators; the API only
// serves the graph structure.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/metalens/internal/lineage"
)

// Collections is the narrow view of the resolver the API needs for its
// introspection route.
type Collections interface {
	Collections() []string
}

// Server hosts the lineage API.
type Server struct {
	service     *lineage.Service
	collections Collections
	port        int
	logger      *slog.Logger
}

// Config holds server construction settings.
type Config struct {
	Service     *lineage.Service
	Collections Collections
	Port        int
	Logger      *slog.Logger
}

// New builds a Server. Nil logger falls back to slog.Default().
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		service:     cfg.Service,
		collections: cfg.Collections,
		port:        cfg.Port,
		logger:      logger,
	}
}

// Routes assembles the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/collections", s.handleCollections)
		r.Get("/lineage/{entity}", s.handleLineage)
		r.Get("/lineage/{entity}/processes", s.handleProcesses)
		r.Post("/lineage/transform", s.handleTransform)
		r.Post("/sql/entities", s.handleExtract)
	})
	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", srv.Addr, err)
	}
	s.logger.Info("lineage API listening", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
