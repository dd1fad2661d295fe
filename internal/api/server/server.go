// Package server provides HTTP server lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/RetendoNetwork/SSSL/internal/api/router"
	"github.com/RetendoNetwork/SSSL/internal/audit"
	"github.com/RetendoNetwork/SSSL/internal/config"
	"github.com/RetendoNetwork/SSSL/internal/forge"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Server represents the HTTP server.
type Server struct {
	cfg     config.ServerConfig
	version string
	logger  *zap.Logger
	srv     *http.Server
}

// New creates a new Server. Forging runs are recorded in auditLog, which
// may be nil.
func New(cfg config.ServerConfig, version string, logger *zap.Logger, auditLog audit.Writer) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := forge.New(
		forge.WithLogger(logger.Named("forge")),
		forge.WithAudit(auditLog),
		forge.WithAuditActor(audit.Actor{Type: "service", ID: "sssl-server"}),
	)
	handler := router.New(&router.Config{
		Version:      version,
		Engine:       engine,
		Logger:       logger.Named("http"),
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	return &Server{
		cfg:     cfg,
		version: version,
		logger:  logger,
		srv: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.srv.Serve(ln)
	}()

	s.logger.Info("server started",
		zap.String("address", ln.Addr().String()),
		zap.String("version", s.version))

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	<-errChan
	s.logger.Info("server stopped gracefully")
	return nil
}
