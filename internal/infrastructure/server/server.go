// Package server wires the rate handler into an http.Server with graceful shutdown
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/damon-houk/mock-rate-server/internal/infrastructure/config"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/handler"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/logger"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// NewHandler builds the full middleware chain around the rate routes.
// The access key is checked before routing so every path answers 401 on a bad key.
func NewHandler(rates *handler.RateHandler, accessKey string, log logger.Logger) http.Handler {
	router := mux.NewRouter()
	rates.RegisterRoutes(router)

	var h http.Handler = router
	h = middleware.AccessKeyMiddleware(accessKey, log)(h)
	h = middleware.LoggingMiddleware(log)(h)
	h = middleware.RequestIDMiddleware(h)

	return h
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	cfg    config.ServerConfig
	logger *logger.JSONLogger
}

// New creates a new HTTP server instance
func New(cfg config.ServerConfig, h http.Handler, log *logger.JSONLogger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      h,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
			// net/http's own error output goes to the diagnostic log instead of stderr
			ErrorLog: log.With(map[string]interface{}{"component": "http"}).StdLogger(),
		},
		cfg:    cfg,
		logger: log,
	}
}

// Serve accepts connections on l until Shutdown is called
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("Starting HTTP server", map[string]interface{}{
		"addr": l.Addr().String(),
	})

	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully within the configured timeout
func (s *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(l)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", nil)

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
