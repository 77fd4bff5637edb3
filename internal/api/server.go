// Package api serves the search operations over JSON HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Aman-CERP/litsearch/internal/search"
	"github.com/Aman-CERP/litsearch/internal/telemetry"
)

// Server is the HTTP search server.
type Server struct {
	router     chi.Router
	metrics    *telemetry.QueryMetrics
	httpServer *http.Server
	logger     *slog.Logger
	addr       string
}

// NewServer creates a Server with the search routes mounted.
func NewServer(addr string, svc *search.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(requestLogging(logger))
	router.Use(chimiddleware.Recoverer)

	metrics := telemetry.NewQueryMetrics(telemetry.DefaultConfig())
	router.Mount("/search", NewSearchRouter(svc, metrics, logger).Routes())
	router.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot(), logger)
	})

	return &Server{
		router:  router,
		metrics: metrics,
		addr:    addr,
		logger:  logger,
	}
}

// Metrics returns the query metrics collected since the server was created.
func (s *Server) Metrics() *telemetry.QueryMetrics {
	return s.metrics
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("http_server_started", slog.String("addr", s.addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("http_server_stopping")
	return s.httpServer.Shutdown(ctx)
}

func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Debug("request_completed",
					slog.String("request_id", chimiddleware.GetReqID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
