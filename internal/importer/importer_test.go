package importer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/annai/internal/storage"
)

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func newTestImporter(t *testing.T) (*Importer, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "annai.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewImporter(store), store
}

func TestImportProducts(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"ID", "Name", "Category", "Brand", "Price", "Sizes", "Is Featured"},
		{"p1", "Wool Coat", "outerwear", "Aster", "240", "S, M, L", "true"},
		{"p2", "Linen Shirt", "tops", "", "80", "", ""},
	})
	im, store := newTestImporter(t)

	report, err := im.ImportProducts(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportProducts: %v", err)
	}
	if report.Imported != 2 || report.Skipped != 0 {
		t.Errorf("report = %+v", report)
	}

	p, err := store.GetProduct(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if p.Name != "Wool Coat" || p.Price != 240 || !p.IsFeatured {
		t.Errorf("got %+v", p)
	}
	if len(p.Sizes) != 3 || p.Sizes[1] != "M" {
		t.Errorf("sizes = %v", p.Sizes)
	}
	// is_published defaults to true when the column is absent.
	if !p.IsPublished {
		t.Error("IsPublished must default to true")
	}
}

func TestImportHeadersCaseInsensitive(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"NAME", "CATEGORY", "price"},
		{"Silk Scarf", "accessories", "45.5"},
	})
	im, store := newTestImporter(t)

	report, err := im.ImportProducts(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportProducts: %v", err)
	}
	if report.Imported != 1 {
		t.Fatalf("report = %+v", report)
	}

	products, err := store.ListProducts(context.Background())
	if err != nil || len(products) != 1 {
		t.Fatalf("ListProducts: %d, %v", len(products), err)
	}
	p := products[0]
	if p.Name != "Silk Scarf" || p.Category != "accessories" || p.Price != 45.5 {
		t.Errorf("got %+v", p)
	}
	// Missing id column gets a generated id.
	if p.ID == "" {
		t.Error("expected generated id")
	}
}

func TestImportSkipsRowsWithoutName(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"id", "name"},
		{"p1", "Wool Coat"},
		{"p2", ""},
		{"p3", "Linen Shirt"},
	})
	im, _ := newTestImporter(t)

	report, err := im.ImportProducts(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportProducts: %v", err)
	}
	if report.Imported != 2 || report.Skipped != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestImportReRunUpserts(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"id", "name", "price"},
		{"p1", "Wool Coat", "240"},
	})
	im, store := newTestImporter(t)
	ctx := context.Background()

	if _, err := im.ImportProducts(ctx, path); err != nil {
		t.Fatalf("ImportProducts: %v", err)
	}
	if _, err := im.ImportProducts(ctx, path); err != nil {
		t.Fatalf("ImportProducts again: %v", err)
	}

	products, err := store.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 1 {
		t.Errorf("got %d products after two imports, want 1", len(products))
	}
}

func TestImportMissingFile(t *testing.T) {
	im, _ := newTestImporter(t)
	if _, err := im.ImportProducts(context.Background(), "/nonexistent.xlsx"); err == nil {
		t.Error("expected error for missing workbook")
	}
}
