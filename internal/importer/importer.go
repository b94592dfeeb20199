// Package importer loads product catalogs from XLSX workbooks into the
// source collection.
package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/storage"
)

// Importer reads product rows from spreadsheets and upserts them.
type Importer struct {
	storage storage.Storage
	logger  *zap.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ImporterOption {
	return func(im *Importer) { im.logger = l }
}

// NewImporter creates an importer writing into store.
func NewImporter(store storage.Storage, opts ...ImporterOption) *Importer {
	im := &Importer{storage: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportReport summarizes one import run.
type ImportReport struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportProducts reads the first sheet of the workbook at path. The first
// row is the header; columns are matched by name, case-insensitively. Rows
// without a name are skipped. Rows without an id get a generated one.
func (im *Importer) ImportProducts(ctx context.Context, path string) (*ImportReport, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return &ImportReport{}, nil
	}

	columns := headerColumns(rows[0])
	report := &ImportReport{}
	products := make([]*models.Product, 0, len(rows)-1)
	for _, row := range rows[1:] {
		p := rowToProduct(row, columns)
		if p == nil {
			report.Skipped++
			continue
		}
		products = append(products, p)
	}
	if len(products) > 0 {
		if err := im.storage.UpsertProducts(ctx, products); err != nil {
			return nil, fmt.Errorf("upsert products: %w", err)
		}
	}
	report.Imported = len(products)

	im.logger.Info("catalog imported",
		zap.String("path", path),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

// headerColumns maps normalized header names to column positions.
func headerColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		name = strings.ReplaceAll(name, " ", "_")
		if name != "" {
			columns[name] = i
		}
	}
	return columns
}

// rowToProduct builds a product from one spreadsheet row, or nil when the
// row has no name.
func rowToProduct(row []string, columns map[string]int) *models.Product {
	cell := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	name := cell("name")
	if name == "" {
		return nil
	}
	id := cell("id")
	if id == "" {
		id = uuid.New().String()
	}

	price, _ := strconv.ParseFloat(cell("price"), 64)
	return &models.Product{
		ID:          id,
		Name:        name,
		Description: cell("description"),
		Category:    cell("category"),
		Brand:       cell("brand"),
		Material:    cell("material"),
		Price:       price,
		Gender:      cell("gender"),
		Collections: splitList(cell("collections")),
		Sizes:       splitList(cell("sizes")),
		Colors:      splitList(cell("colors")),
		Tags:        splitList(cell("tags")),
		IsFeatured:  parseBool(cell("is_featured")),
		IsPublished: parseBoolDefault(cell("is_published"), true),
	}
}

// splitList parses comma-separated cell values.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(strings.ToLower(s))
	return err == nil && v
}

func parseBoolDefault(s string, def bool) bool {
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		return def
	}
	return v
}
