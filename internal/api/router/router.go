// Package router provides HTTP routing configuration using Chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/RetendoNetwork/SSSL/internal/api/handler"
	"github.com/RetendoNetwork/SSSL/internal/api/middleware"
	"github.com/RetendoNetwork/SSSL/internal/forge"
)

// Config holds router configuration.
type Config struct {
	Version      string
	Engine       *forge.Engine
	Logger       *zap.Logger
	MaxBodyBytes int64
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := cfg.Engine
	if engine == nil {
		engine = forge.New(forge.WithLogger(logger))
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	if cfg.MaxBodyBytes > 0 {
		r.Use(middleware.MaxBytes(cfg.MaxBodyBytes))
	}

	healthHandler := handler.NewHealthHandler(cfg.Version)
	r.Get("/health", healthHandler.Health)

	forgeHandler := handler.NewForgeHandler(engine, logger)
	inspectHandler := handler.NewInspectHandler()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/forge", forgeHandler.Forge)
		r.Post("/inspect", inspectHandler.Inspect)
	})

	return r
}
