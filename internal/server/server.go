// Package server provides the HTTP API for Susume.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/config"
	"github.com/hyperjump/susume/internal/embedding"
	"github.com/hyperjump/susume/internal/index"
	"github.com/hyperjump/susume/internal/keyword"
	"github.com/hyperjump/susume/internal/recommend"
	"github.com/hyperjump/susume/internal/reward"
	"github.com/hyperjump/susume/internal/storage"
)

// Server is the HTTP server for the Susume API.
type Server struct {
	storage     storage.Storage
	embedder    embedding.Embedder
	indexes     *index.Manager
	catalog     keyword.CatalogIndex
	composer    *recommend.Composer
	distributor *reward.Distributor
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	store storage.Storage,
	embedder embedding.Embedder,
	indexes *index.Manager,
	catalog keyword.CatalogIndex,
	composer *recommend.Composer,
	distributor *reward.Distributor,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		storage:     store,
		embedder:    embedder,
		indexes:     indexes,
		catalog:     catalog,
		composer:    composer,
		distributor: distributor,
		config:      cfg,
		logger:      logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/users", s.handleCreateUser)
	r.Get("/api/v1/users/{id}", s.handleGetUser)
	r.Delete("/api/v1/users/{id}", s.handleDeleteUser)

	r.Post("/api/v1/videos", s.handleCreateVideo)
	r.Get("/api/v1/videos/search", s.handleSearchVideos)
	r.Get("/api/v1/videos/{id}", s.handleGetVideo)
	r.Delete("/api/v1/videos/{id}", s.handleDeleteVideo)

	r.Post("/api/v1/interactions", s.handleCreateInteraction)
	r.Get("/api/v1/recommendations/{userId}", s.handleRecommendations)
	r.Post("/api/v1/rewards/calculate", s.handleCalculateRewards)

	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
