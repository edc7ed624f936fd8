// Package service wraps the gateway's HTTP listener lifecycle.
package service

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server is a thin wrapper around http.Server giving the gateway a
// uniform Start/Stop it can drive from main's signal handling.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds a Server bound to addr, serving handler.
func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &Server{httpServer: s, logger: logger}
}

// Start blocks serving until the listener is closed.
func (s *Server) Start() error {
	s.logger.Info("starting gateway http server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server, waiting for in-flight requests
// to drain until ctx is cancelled.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping gateway http server")
	return s.httpServer.Shutdown(ctx)
}
