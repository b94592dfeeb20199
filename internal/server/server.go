// Package server provides the HTTP API for Annai.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/config"
	"github.com/hyperjump/annai/internal/indexer"
	"github.com/hyperjump/annai/internal/rag"
	"github.com/hyperjump/annai/internal/retrieval"
	"github.com/hyperjump/annai/internal/storage"
	"github.com/hyperjump/annai/internal/vector"
)

// Server is the HTTP server for the Annai API.
type Server struct {
	orchestrator *rag.Orchestrator
	retriever    *retrieval.Service
	indexer      *indexer.Indexer
	storage      storage.Storage
	store        *vector.Store
	config       *config.Config
	logger       *zap.Logger
	server       *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	orchestrator *rag.Orchestrator,
	retriever *retrieval.Service,
	idx *indexer.Indexer,
	store storage.Storage,
	vectorStore *vector.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		orchestrator: orchestrator,
		retriever:    retriever,
		indexer:      idx,
		storage:      store,
		store:        vectorStore,
		config:       cfg,
		logger:       logger,
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/chat", s.handleChat)
	r.Get("/api/v1/chat/sessions/{id}", s.handleGetSession)
	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/index/full", s.handleFullReindex)
	r.Post("/api/v1/index/{collection}/{id}", s.handleIndexRecord)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
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
