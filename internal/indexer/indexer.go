package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/embedding"
	"github.com/hyperjump/annai/internal/keyword"
	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/storage"
	"github.com/hyperjump/annai/internal/vector"
)

// Indexer embeds source records and appends them to the vector store, with
// an exact-term sidecar in the keyword index.
type Indexer struct {
	storage      storage.Storage
	embedder     embedding.Embedder
	store        *vector.Store
	keywordIndex keyword.Index
	logger       *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer with the given dependencies.
// keywordIndex may be nil; exact-term lookup is then unavailable.
func NewIndexer(
	store storage.Storage,
	embedder embedding.Embedder,
	vectorStore *vector.Store,
	keywordIndex keyword.Index,
	opts ...IndexerOption,
) *Indexer {
	idx := &Indexer{
		storage:      store,
		embedder:     embedder,
		store:        vectorStore,
		keywordIndex: keywordIndex,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// derive loads every record of a collection and derives its embeddable form.
func (idx *Indexer) derive(ctx context.Context, collection models.SourceType) ([]derived, error) {
	switch collection {
	case models.SourceProducts:
		products, err := idx.storage.ListProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		out := make([]derived, 0, len(products))
		for _, p := range products {
			out = append(out, deriveProduct(p))
		}
		return out, nil
	case models.SourceOrders:
		orders, err := idx.storage.ListOrders(ctx)
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		out := make([]derived, 0, len(orders))
		for _, o := range orders {
			out = append(out, deriveOrder(o))
		}
		return out, nil
	case models.SourceUsers:
		users, err := idx.storage.ListUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out := make([]derived, 0, len(users))
		for _, u := range users {
			out = append(out, deriveUser(u))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown source collection: %s", collection)
	}
}

// IndexAll indexes every record of one collection: derive, embed in one
// batch, append to the vector store in source order. Records with no id or
// no derivable text are skipped and counted, not fatal.
func (idx *Indexer) IndexAll(ctx context.Context, collection models.SourceType) models.CollectionReport {
	records, err := idx.derive(ctx, collection)
	if err != nil {
		return models.CollectionReport{Status: "error", Error: err.Error()}
	}

	skipped := 0
	kept := make([]derived, 0, len(records))
	for _, d := range records {
		if d.empty() {
			skipped++
			continue
		}
		kept = append(kept, d)
	}
	if len(kept) == 0 {
		return models.CollectionReport{Status: "success", Skipped: skipped}
	}

	texts := make([]string, len(kept))
	for i, d := range kept {
		texts[i] = d.Text
	}
	embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return models.CollectionReport{Status: "error", Skipped: skipped,
			Error: fmt.Sprintf("generate embeddings: %v", err)}
	}

	indexed := 0
	for i, d := range kept {
		if err := idx.store.Append(ctx, embeddings[i], d.Metadata); err != nil {
			return models.CollectionReport{Status: "error", IndexedCount: indexed,
				Skipped: skipped, Error: fmt.Sprintf("append vector: %v", err)}
		}
		idx.indexKeyword(ctx, d)
		indexed++
	}

	idx.logger.Info("collection indexed",
		zap.String("collection", string(collection)),
		zap.Int("indexed", indexed),
		zap.Int("skipped", skipped))

	return models.CollectionReport{Status: "success", IndexedCount: indexed, Skipped: skipped}
}

// IndexOne indexes a single record by id. A missing record reports
// storage.ErrNotFound.
func (idx *Indexer) IndexOne(ctx context.Context, collection models.SourceType, id string) error {
	var d derived
	switch collection {
	case models.SourceProducts:
		p, err := idx.storage.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		d = deriveProduct(p)
	case models.SourceOrders:
		o, err := idx.storage.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		d = deriveOrder(o)
	case models.SourceUsers:
		u, err := idx.storage.GetUser(ctx, id)
		if err != nil {
			return err
		}
		d = deriveUser(u)
	default:
		return fmt.Errorf("unknown source collection: %s", collection)
	}
	if d.empty() {
		return fmt.Errorf("record %s/%s has no indexable content", collection, id)
	}

	vec, err := idx.embedder.Embed(ctx, d.Text)
	if err != nil {
		return fmt.Errorf("generate embedding: %w", err)
	}
	if err := idx.store.Append(ctx, vec, d.Metadata); err != nil {
		return fmt.Errorf("append vector: %w", err)
	}
	idx.indexKeyword(ctx, d)

	idx.logger.Debug("record indexed",
		zap.String("collection", string(collection)),
		zap.String("id", id))
	return nil
}

// FullReindex clears the vector store and rebuilds it from all three
// collections in order. One collection's failure is recorded in its report
// and does not abort the others.
func (idx *Indexer) FullReindex(ctx context.Context) (*models.ReindexReport, error) {
	if err := idx.store.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear vector store: %w", err)
	}
	if idx.keywordIndex != nil {
		if err := idx.keywordIndex.Clear(ctx); err != nil {
			idx.logger.Warn("keyword index clear failed", zap.Error(err))
		}
	}

	report := &models.ReindexReport{
		Status:  "success",
		Results: make(map[models.SourceType]models.CollectionReport, len(models.AllSourceTypes)),
	}
	for _, collection := range models.AllSourceTypes {
		result := idx.IndexAll(ctx, collection)
		report.Results[collection] = result
		report.TotalIndexed += result.IndexedCount
		if result.Status != "success" {
			report.Status = "partial"
			idx.logger.Error("collection reindex failed",
				zap.String("collection", string(collection)),
				zap.String("error", result.Error))
		}
	}

	idx.logger.Info("full reindex complete",
		zap.Int("total_indexed", report.TotalIndexed),
		zap.String("status", report.Status))
	return report, nil
}

func (idx *Indexer) indexKeyword(ctx context.Context, d derived) {
	if idx.keywordIndex == nil {
		return
	}
	id, doc := d.keywordDoc()
	if err := idx.keywordIndex.IndexRecord(ctx, id, doc); err != nil {
		idx.logger.Warn("keyword index update failed",
			zap.String("id", id), zap.Error(err))
	}
}
