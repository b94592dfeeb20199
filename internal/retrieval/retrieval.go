// Package retrieval answers queries against the vector store and the
// exact-term keyword sidecar.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/embedding"
	"github.com/hyperjump/annai/internal/keyword"
	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/storage"
	"github.com/hyperjump/annai/internal/vector"
)

// Service performs semantic retrieval and exact-term lookup.
type Service struct {
	embedder     embedding.Embedder
	store        *vector.Store
	keywordIndex keyword.Index
	storage      storage.Storage
	logger       *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService creates a retrieval service. keywordIndex may be nil, which
// disables Lookup.
func NewService(
	embedder embedding.Embedder,
	store *vector.Store,
	keywordIndex keyword.Index,
	recordStore storage.Storage,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		embedder:     embedder,
		store:        store,
		keywordIndex: keywordIndex,
		storage:      recordStore,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve embeds the query and returns the top k results, ranked by
// similarity. An empty index yields an empty slice.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievalResult, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := s.store.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("semantic retrieval",
		zap.String("query", query),
		zap.Int("k", k),
		zap.Int("results", len(results)))
	return results, nil
}

// Lookup finds records by an exact identifier such as an order number or
// email address. Hits whose backing record no longer exists are dropped.
func (s *Service) Lookup(ctx context.Context, term string, limit int) ([]models.RetrievalResult, error) {
	if s.keywordIndex == nil {
		return []models.RetrievalResult{}, nil
	}
	hits, err := s.keywordIndex.Lookup(ctx, term, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword lookup: %w", err)
	}

	results := make([]models.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		meta, err := s.resolveRecord(ctx, hit.ID)
		if err != nil {
			s.logger.Debug("lookup hit has no backing record",
				zap.String("id", hit.ID), zap.Error(err))
			continue
		}
		results = append(results, models.RetrievalResult{
			Metadata: meta,
			Score:    hit.Score,
			Rank:     len(results) + 1,
		})
	}
	return results, nil
}

// resolveRecord maps a keyword document id ("<type>_<record id>") back to
// the source record's metadata.
func (s *Service) resolveRecord(ctx context.Context, docID string) (models.Metadata, error) {
	recordType, id, found := strings.Cut(docID, "_")
	if !found || id == "" {
		return nil, fmt.Errorf("malformed keyword doc id: %s", docID)
	}
	switch recordType {
	case "product":
		p, err := s.storage.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		return p.IndexMetadata(), nil
	case "order":
		o, err := s.storage.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		return o.IndexMetadata(), nil
	case "user":
		u, err := s.storage.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		return u.IndexMetadata(), nil
	default:
		return nil, fmt.Errorf("unknown record type: %s", recordType)
	}
}
