package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/annai/internal/embedding"
	"github.com/hyperjump/annai/internal/keyword"
	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/storage"
	"github.com/hyperjump/annai/internal/vector"
)

const testDimensions = 8

type testEnv struct {
	storage *storage.SQLiteStorage
	store   *vector.Store
	keyword *keyword.BleveIndex
	indexer *Indexer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "annai.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	vectorStore, err := vector.NewStore(testDimensions, store)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := vectorStore.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	kw, err := keyword.NewBleveIndex(filepath.Join(dir, "keyword.bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = kw.Close() })

	embedder := embedding.NewMockEmbedder(testDimensions)
	return &testEnv{
		storage: store,
		store:   vectorStore,
		keyword: kw,
		indexer: NewIndexer(store, embedder, vectorStore, kw),
	}
}

func seedProducts(t *testing.T, env *testEnv) {
	t.Helper()
	err := env.storage.UpsertProducts(context.Background(), []*models.Product{
		{ID: "p1", Name: "Wool Coat", Category: "outerwear", Brand: "Aster", IsPublished: true},
		{ID: "p2", Name: "Linen Shirt", Category: "tops", IsPublished: true},
	})
	if err != nil {
		t.Fatalf("UpsertProducts: %v", err)
	}
}

func TestIndexAllProducts(t *testing.T) {
	env := newTestEnv(t)
	seedProducts(t, env)

	report := env.indexer.IndexAll(context.Background(), models.SourceProducts)
	if report.Status != "success" {
		t.Fatalf("report = %+v", report)
	}
	if report.IndexedCount != 2 || report.Skipped != 0 {
		t.Errorf("indexed = %d, skipped = %d; want 2, 0", report.IndexedCount, report.Skipped)
	}
	if env.store.Size() != 2 {
		t.Errorf("store size = %d, want 2", env.store.Size())
	}

	// Keyword sidecar got both records.
	count, err := env.keyword.DocCount()
	if err != nil || count != 2 {
		t.Errorf("keyword docs = %d, %v; want 2", count, err)
	}
}

func TestIndexAllSkipsEmptyRecords(t *testing.T) {
	env := newTestEnv(t)
	err := env.storage.UpsertProducts(context.Background(), []*models.Product{
		{ID: "p1", Name: "Wool Coat"},
		{ID: "p2"}, // nothing to embed
	})
	if err != nil {
		t.Fatalf("UpsertProducts: %v", err)
	}

	report := env.indexer.IndexAll(context.Background(), models.SourceProducts)
	if report.Status != "success" {
		t.Fatalf("report = %+v", report)
	}
	if report.IndexedCount != 1 || report.Skipped != 1 {
		t.Errorf("indexed = %d, skipped = %d; want 1, 1", report.IndexedCount, report.Skipped)
	}
}

func TestIndexAllEmptyCollection(t *testing.T) {
	env := newTestEnv(t)

	report := env.indexer.IndexAll(context.Background(), models.SourceOrders)
	if report.Status != "success" || report.IndexedCount != 0 {
		t.Errorf("report = %+v", report)
	}
	if env.store.Size() != 0 {
		t.Errorf("store size = %d, want 0", env.store.Size())
	}
}

func TestIndexOne(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedProducts(t, env)

	if err := env.indexer.IndexOne(ctx, models.SourceProducts, "p1"); err != nil {
		t.Fatalf("IndexOne: %v", err)
	}
	if env.store.Size() != 1 {
		t.Errorf("store size = %d, want 1", env.store.Size())
	}

	stats := env.store.Stats()
	if stats.TypeCounts["product"] != 1 {
		t.Errorf("type counts = %+v", stats.TypeCounts)
	}
}

func TestIndexOneNotFound(t *testing.T) {
	env := newTestEnv(t)

	err := env.indexer.IndexOne(context.Background(), models.SourceProducts, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFullReindex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedProducts(t, env)

	report, err := env.indexer.FullReindex(ctx)
	if err != nil {
		t.Fatalf("FullReindex: %v", err)
	}
	if report.Status != "success" {
		t.Fatalf("report = %+v", report)
	}
	if report.TotalIndexed != 2 {
		t.Errorf("total = %d, want 2", report.TotalIndexed)
	}
	if report.Results[models.SourceProducts].IndexedCount != 2 {
		t.Errorf("products = %+v", report.Results[models.SourceProducts])
	}
	if report.Results[models.SourceOrders].IndexedCount != 0 {
		t.Errorf("orders = %+v", report.Results[models.SourceOrders])
	}
	if report.Results[models.SourceUsers].IndexedCount != 0 {
		t.Errorf("users = %+v", report.Results[models.SourceUsers])
	}
}

func TestFullReindexIdempotentSize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedProducts(t, env)
	if err := env.storage.UpsertUsers(ctx, []*models.User{
		{ID: "u1", Name: "Mika", Email: "mika@example.com", Role: "admin"},
	}); err != nil {
		t.Fatalf("UpsertUsers: %v", err)
	}

	for i := 0; i < 3; i++ {
		report, err := env.indexer.FullReindex(ctx)
		if err != nil {
			t.Fatalf("FullReindex %d: %v", i, err)
		}
		if report.TotalIndexed != 3 {
			t.Errorf("run %d: total = %d, want 3", i, report.TotalIndexed)
		}
	}
	// Destructive rebuild: repeated runs never accumulate duplicates.
	if env.store.Size() != 3 {
		t.Errorf("store size = %d after repeated reindex, want 3", env.store.Size())
	}
	count, err := env.keyword.DocCount()
	if err != nil || count != 3 {
		t.Errorf("keyword docs = %d, %v; want 3", count, err)
	}
}

func TestFullReindexCollectionFailureIsolated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedProducts(t, env)

	// An embedder that fails only for user texts.
	failing := &selectiveEmbedder{inner: embedding.NewMockEmbedder(testDimensions), failOn: "Mika"}
	if err := env.storage.UpsertUsers(ctx, []*models.User{
		{ID: "u1", Name: "Mika", Email: "mika@example.com", Role: "admin"},
	}); err != nil {
		t.Fatalf("UpsertUsers: %v", err)
	}
	idx := NewIndexer(env.storage, failing, env.store, env.keyword)

	report, err := idx.FullReindex(ctx)
	if err != nil {
		t.Fatalf("FullReindex: %v", err)
	}
	if report.Status != "partial" {
		t.Errorf("status = %q, want partial", report.Status)
	}
	if report.Results[models.SourceProducts].Status != "success" {
		t.Errorf("products = %+v", report.Results[models.SourceProducts])
	}
	if report.Results[models.SourceUsers].Status != "error" {
		t.Errorf("users = %+v", report.Results[models.SourceUsers])
	}
	if report.TotalIndexed != 2 {
		t.Errorf("total = %d, want 2 (products only)", report.TotalIndexed)
	}
}

type selectiveEmbedder struct {
	inner  embedding.Embedder
	failOn string
}

func (e *selectiveEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(text, e.failOn) {
		return nil, errors.New("embedder failure")
	}
	return e.inner.Embed(ctx, text)
}

func (e *selectiveEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for _, text := range texts {
		if strings.Contains(text, e.failOn) {
			return nil, errors.New("embedder failure")
		}
	}
	return e.inner.EmbedBatch(ctx, texts)
}

func (e *selectiveEmbedder) Dimensions() int { return e.inner.Dimensions() }
func (e *selectiveEmbedder) Close() error    { return nil }
