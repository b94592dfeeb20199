package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/annai/internal/embedding"
	"github.com/hyperjump/annai/internal/importer"
	"github.com/hyperjump/annai/internal/indexer"
	"github.com/hyperjump/annai/internal/storage"
	"github.com/hyperjump/annai/internal/vector"
)

const testDimensions = 8

func newTestIngestor(t *testing.T) (*Ingestor, *storage.SQLiteStorage, *vector.Store) {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "annai.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	vectorStore, err := vector.NewStore(testDimensions, store)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := vectorStore.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	embedder := embedding.NewMockEmbedder(testDimensions)
	idx := indexer.NewIndexer(store, embedder, vectorStore, nil)
	im := importer.NewImporter(store)
	return NewIngestor(store, idx, im, nil), store, vectorStore
}

func TestIngestProductsJSON(t *testing.T) {
	in, store, vectorStore := newTestIngestor(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "products.json")
	payload := `[
		{"id": "p1", "name": "Wool Coat", "category": "outerwear", "is_published": true},
		{"id": "p2", "name": "Linen Shirt", "category": "tops", "is_published": true}
	]`
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if err := in.HandleFile(ctx, path); err != nil {
		t.Fatalf("HandleFile: %v", err)
	}

	products, err := store.ListProducts(ctx)
	if err != nil || len(products) != 2 {
		t.Fatalf("ListProducts: %d, %v", len(products), err)
	}
	if vectorStore.Size() != 2 {
		t.Errorf("vector store size = %d, want 2", vectorStore.Size())
	}
}

func TestIngestOrdersJSON(t *testing.T) {
	in, store, vectorStore := newTestIngestor(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "orders.json")
	payload := `[{"id": "o1", "order_number": "ORD-1001", "status": "shipped",
		"items": [{"name": "Wool Coat", "size": "M", "color": "navy"}]}]`
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if err := in.HandleFile(ctx, path); err != nil {
		t.Fatalf("HandleFile: %v", err)
	}

	order, err := store.GetOrder(ctx, "o1")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if order.OrderNumber != "ORD-1001" {
		t.Errorf("got %+v", order)
	}
	if vectorStore.Size() != 1 {
		t.Errorf("vector store size = %d, want 1", vectorStore.Size())
	}
}

func TestIngestXLSX(t *testing.T) {
	in, _, vectorStore := newTestIngestor(t)
	ctx := context.Background()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetCellValue(sheet, "A1", "id")
	_ = f.SetCellValue(sheet, "B1", "name")
	_ = f.SetCellValue(sheet, "A2", "p1")
	_ = f.SetCellValue(sheet, "B2", "Silk Scarf")
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	if err := in.HandleFile(ctx, path); err != nil {
		t.Fatalf("HandleFile: %v", err)
	}
	if vectorStore.Size() != 1 {
		t.Errorf("vector store size = %d, want 1", vectorStore.Size())
	}
}

func TestIngestNullRecordsSkipped(t *testing.T) {
	in, store, vectorStore := newTestIngestor(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "products.json")
	payload := `[null, {"id": "p1", "name": "Wool Coat", "is_published": true}, null]`
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if err := in.HandleFile(ctx, path); err != nil {
		t.Fatalf("HandleFile: %v", err)
	}
	products, err := store.ListProducts(ctx)
	if err != nil || len(products) != 1 {
		t.Fatalf("ListProducts: %d, %v", len(products), err)
	}
	if vectorStore.Size() != 1 {
		t.Errorf("vector store size = %d, want 1", vectorStore.Size())
	}
}

func TestIngestAllNullRecords(t *testing.T) {
	in, store, _ := newTestIngestor(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte(`[null, null]`), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := in.HandleFile(ctx, path); err != nil {
		t.Fatalf("HandleFile: %v", err)
	}
	users, err := store.ListUsers(ctx)
	if err != nil || len(users) != 0 {
		t.Fatalf("ListUsers: %d, %v", len(users), err)
	}
}

func TestIngestRepeatedDropDoesNotDuplicate(t *testing.T) {
	in, _, vectorStore := newTestIngestor(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "products.json")
	payload := `[{"id": "p1", "name": "Wool Coat", "is_published": true}]`
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := in.HandleFile(ctx, path); err != nil {
			t.Fatalf("HandleFile pass %d: %v", i, err)
		}
	}
	if vectorStore.Size() != 1 {
		t.Errorf("vector store size = %d after 3 drops, want 1", vectorStore.Size())
	}
}

func TestIngestXLSXReimportDoesNotDuplicate(t *testing.T) {
	in, _, vectorStore := newTestIngestor(t)
	ctx := context.Background()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetCellValue(sheet, "A1", "id")
	_ = f.SetCellValue(sheet, "B1", "name")
	_ = f.SetCellValue(sheet, "A2", "p1")
	_ = f.SetCellValue(sheet, "B2", "Silk Scarf")
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := in.HandleFile(ctx, path); err != nil {
			t.Fatalf("HandleFile pass %d: %v", i, err)
		}
	}
	if vectorStore.Size() != 1 {
		t.Errorf("vector store size = %d after reimport, want 1", vectorStore.Size())
	}
}

func TestIngestIgnoresUnknownFiles(t *testing.T) {
	in, _, vectorStore := newTestIngestor(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "notes.json")
	if err := os.WriteFile(path, []byte(`[{"id": "x"}]`), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := in.HandleFile(ctx, path); err != nil {
		t.Fatalf("HandleFile: %v", err)
	}
	if vectorStore.Size() != 0 {
		t.Errorf("unknown file was ingested")
	}
}

func TestIngestMalformedJSON(t *testing.T) {
	in, _, _ := newTestIngestor(t)
	path := filepath.Join(t.TempDir(), "products.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := in.HandleFile(context.Background(), path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestWatcherDebouncedCallback(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w := NewWatcher(dir, func(path string) {
		if filepath.Base(path) == "products.json" {
			calls.Add(1)
		}
	}, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "products.json")
	// Several rapid writes must collapse into one ingestion.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(`[]`), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("callback fired %d times, want 1", got)
	}
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w := NewWatcher(dir, func(string) { calls.Add(1) }, WithDebounce(30*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("callback fired for ignored extension")
	}
}

func TestWatcherSyncExisting(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "users.json"), []byte(`[]`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var calls atomic.Int32
	w := NewWatcher(dir, func(string) { calls.Add(1) })
	w.SyncExisting()
	if calls.Load() != 1 {
		t.Errorf("SyncExisting fired %d times, want 1", calls.Load())
	}
}

func TestWatcherCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "drop")
	w := NewWatcher(dir, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("drop directory not created: %v", err)
	}
}
