package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/oggyb/acquaintance/internal/config"
)

// HTTPServer represents the REST API server.
type HTTPServer struct {
	httpServer *http.Server
	log        *slog.Logger
}

// NewHTTPServer creates an HTTP server for handler on the configured address.
func NewHTTPServer(cfg *config.Config, handler http.Handler, log *slog.Logger) *HTTPServer {
	return &HTTPServer{
		httpServer: &http.Server{
			Addr:           fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port),
			Handler:        handler,
			ReadTimeout:    cfg.HTTP.ReadTimeout,
			WriteTimeout:   cfg.HTTP.WriteTimeout,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		log: log,
	}
}

// Start blocks serving HTTP until Shutdown.
func (s *HTTPServer) Start() error {
	s.log.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start http server: %w", err)
	}
	return nil
}

// Serve is Start on an existing listener.
func (s *HTTPServer) Serve(lis net.Listener) error {
	if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}
