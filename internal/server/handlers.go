package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/storage"
)

type chatRequest struct {
	Query     string `json:"query"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	s.logger.Debug("chat request",
		zap.String("user_id", req.UserID),
		zap.String("session_id", req.SessionID))
	answer, err := s.orchestrator.Answer(r.Context(), req.Query, req.UserID, req.SessionID)
	if err != nil {
		s.logger.Error("chat failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	userID := r.URL.Query().Get("user_id")
	turns, err := s.orchestrator.History(r.Context(), sessionID, userID)
	if err != nil {
		s.logger.Error("session fetch failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   turns,
	})
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
	// Exact switches to keyword lookup for identifiers such as order
	// numbers and email addresses.
	Exact bool `json:"exact,omitempty"`
}

type searchResponse struct {
	Results []models.RetrievalResult `json:"results"`
	Count   int                      `json:"count"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	k := req.TopK
	if k <= 0 {
		k = s.config.Retrieval.TopK
	}
	if max := s.config.Retrieval.MaxTopK; max > 0 && k > max {
		k = max
	}

	var results []models.RetrievalResult
	var err error
	if req.Exact {
		results, err = s.retriever.Lookup(r.Context(), req.Query, k)
	} else {
		results, err = s.retriever.Retrieve(r.Context(), req.Query, k)
	}
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, searchResponse{Results: results, Count: len(results)})
}

func (s *Server) handleFullReindex(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("full reindex requested")
	report, err := s.indexer.FullReindex(r.Context())
	if err != nil {
		s.logger.Error("full reindex failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleIndexRecord(w http.ResponseWriter, r *http.Request) {
	collection, err := models.ParseSourceType(chi.URLParam(r, "collection"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")

	if err := s.indexer.IndexOne(r.Context(), collection, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "record not found")
			return
		}
		s.logger.Error("record index failed",
			zap.String("collection", string(collection)),
			zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"collection": string(collection),
		"id":         id,
		"status":     "indexed",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	counts := make(map[string]int64, len(models.AllSourceTypes))
	for _, collection := range models.AllSourceTypes {
		n, err := s.storage.CountRecords(ctx, collection)
		if err != nil {
			s.logger.Error("status: count records failed",
				zap.String("collection", string(collection)), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		counts[string(collection)] = n
	}

	resp := map[string]any{
		"records": counts,
		"index":   s.store.Stats(),
	}
	configInfo := map[string]any{
		"embedding_dimensions": s.config.Embedding.Dimensions,
		"database_path":        s.config.Storage.DatabasePath,
		"keyword_index_path":   s.config.Storage.KeywordIndexPath,
	}
	diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.KeywordIndexPath,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
