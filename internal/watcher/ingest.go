package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/importer"
	"github.com/hyperjump/annai/internal/indexer"
	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/storage"
)

// Ingestor applies dropped files: JSON record arrays are upserted, XLSX
// workbooks go through the catalog importer. After a successful upsert the
// index is rebuilt from storage, so re-dropping an updated file replaces
// entries instead of accumulating duplicates.
type Ingestor struct {
	storage  storage.Storage
	indexer  *indexer.Indexer
	importer *importer.Importer
	logger   *zap.Logger
}

// NewIngestor creates an ingestor.
func NewIngestor(store storage.Storage, idx *indexer.Indexer, im *importer.Importer, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{storage: store, indexer: idx, importer: im, logger: logger}
}

// HandleFile ingests one dropped file. The base name selects the
// collection: products.json, orders.json, users.json; any .xlsx file is
// treated as a product catalog.
func (in *Ingestor) HandleFile(ctx context.Context, path string) error {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(base, ".xlsx"):
		report, err := in.importer.ImportProducts(ctx, path)
		if err != nil {
			return fmt.Errorf("import %s: %w", base, err)
		}
		indexed, err := in.rebuild(ctx)
		if err != nil {
			return err
		}
		in.logger.Info("catalog ingested",
			zap.String("path", path),
			zap.Int("imported", report.Imported),
			zap.Int("indexed", indexed))
		return nil
	case base == "products.json":
		return ingestJSON(ctx, in, path, models.SourceProducts, in.storage.UpsertProducts)
	case base == "orders.json":
		return ingestJSON(ctx, in, path, models.SourceOrders, in.storage.UpsertOrders)
	case base == "users.json":
		return ingestJSON(ctx, in, path, models.SourceUsers, in.storage.UpsertUsers)
	default:
		in.logger.Debug("ignoring dropped file", zap.String("path", path))
		return nil
	}
}

// ingestJSON decodes a record array, upserts it, and rebuilds the index.
// Null array elements are valid JSON; they are dropped before the upsert.
func ingestJSON[T interface {
	*models.Product | *models.Order | *models.User
}](ctx context.Context, in *Ingestor, path string, collection models.SourceType, upsert func(context.Context, []T) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	valid := records[:0]
	for _, record := range records {
		if isNilRecord(record) {
			in.logger.Warn("dropped null record",
				zap.String("path", path),
				zap.String("collection", string(collection)))
			continue
		}
		valid = append(valid, record)
	}
	records = valid
	if len(records) == 0 {
		return nil
	}
	if err := upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert %s: %w", collection, err)
	}

	indexed, err := in.rebuild(ctx)
	if err != nil {
		return err
	}
	in.logger.Info("records ingested",
		zap.String("path", path),
		zap.String("collection", string(collection)),
		zap.Int("upserted", len(records)),
		zap.Int("indexed", indexed))
	return nil
}

// rebuild refreshes the whole index from storage. Dropped files carry
// updates to already-indexed records, and the vector store is append-only,
// so the only non-accumulating path is the full rebuild.
func (in *Ingestor) rebuild(ctx context.Context) (int, error) {
	report, err := in.indexer.FullReindex(ctx)
	if err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	if report.Status != "success" {
		return report.TotalIndexed, fmt.Errorf("rebuild index: status %s", report.Status)
	}
	return report.TotalIndexed, nil
}

func isNilRecord(record any) bool {
	switch r := record.(type) {
	case *models.Product:
		return r == nil
	case *models.Order:
		return r == nil
	case *models.User:
		return r == nil
	}
	return record == nil
}
