// Package server wires the HTTP stack: router, CORS, handler dependencies
// and lifecycle management.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"gorm.io/gorm"

	"bistro/internal/handlers"
	applog "bistro/internal/log"
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr           string
	AllowedOrigins []string
	RecipeMaxDepth int
	Database       *gorm.DB
}

// Server wraps an http.Server and exposes helpers for bootstrapping a
// production-ready web service.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New builds a new Server using the provided configuration.
func New(cfg Config) *Server {
	applog.Debug(context.Background(), "initializing server",
		"addr", cfg.Addr,
		"allowedOrigins", cfg.AllowedOrigins,
		"recipeMaxDepth", cfg.RecipeMaxDepth,
	)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		applog.Debug(context.Background(), "allowed origins not provided, using wildcard")
		origins = []string{"*"}
	}

	handlers.Configure(cfg.Database, cfg.RecipeMaxDepth)

	applog.Debug(context.Background(), "handler dependencies configured")

	corsMiddleware := cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	handler := corsMiddleware(newRouter())

	applog.Debug(context.Background(), "http handler chain prepared")

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Debug(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
