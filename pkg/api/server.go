// Package api serves one TagFile container over HTTP.
//
// Routes under /api/v1 are protected by the X-API-Key header when a key is
// configured. /metrics is left open for scraping.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ssargent/tagfile/pkg/container"
	"github.com/ssargent/tagfile/pkg/metrics"
)

// Server holds the API server state
type Server struct {
	// mu serializes container access; the container has no locking
	mu        sync.Mutex
	container *container.Container
	config    ServerConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewServer creates a new API server. metrics and logger may be nil.
func NewServer(c *container.Container, config ServerConfig, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{
		container: c,
		config:    config,
		metrics:   m,
		logger:    logger,
	}
}

// Router returns the HTTP handler with all routes configured
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "PUT", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(s.config.APIKey, s.metrics))

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		r.Get("/entries", s.metrics.InstrumentHandler("GET", "/api/v1/entries", s.handleListEntries))
		r.Get("/entries/{name}", s.metrics.InstrumentHandler("GET", "/api/v1/entries/{name}", s.handleGetEntry))
		r.Head("/entries/{name}", s.metrics.InstrumentHandler("HEAD", "/api/v1/entries/{name}", s.handleHeadEntry))
		r.Put("/entries/{name}", s.metrics.InstrumentHandler("PUT", "/api/v1/entries/{name}", s.handlePutEntry))

		r.Get("/adapters", s.metrics.InstrumentHandler("GET", "/api/v1/adapters", s.handleAdapters))
		r.Get("/stats", s.metrics.InstrumentHandler("GET", "/api/v1/stats", s.handleStats))
	})

	return r
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Bind, strconv.Itoa(s.config.Port))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting TagFile API server",
		zap.String("addr", srv.Addr),
		zap.String("container", s.container.Path()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down TagFile API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
