package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// If the path already exists, the existing index is opened and reused.
// If you change the index mapping in code, remove the index directory to
// force a rebuild.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so identifiers
	// like "ORD-1001" survive as searchable tokens.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("type", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("term", keywordFieldMapping)
	im.AddDocumentMapping("record", docMapping)
	im.DefaultType = "record"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// IndexRecord indexes a record document by id. Re-indexing the same id
// replaces the previous document.
func (b *BleveIndex) IndexRecord(ctx context.Context, id string, doc *RecordDoc) error {
	return b.index.Index(id, doc)
}

// Lookup finds records by an exact identifier or a free term. The exact
// term field is checked first; name and content matches fill the rest.
func (b *BleveIndex) Lookup(ctx context.Context, term string, limit int) ([]*LookupResult, error) {
	term = strings.TrimSpace(term)
	if term == "" || limit <= 0 {
		return []*LookupResult{}, nil
	}

	// Exact identifier match gets a strong boost over text matches so an
	// order number query surfaces the order first.
	exact := bleve.NewTermQuery(term)
	exact.SetField("term")
	exact.SetBoost(10.0)

	var text blevequery.Query
	nameQuery := bleve.NewMatchQuery(term)
	nameQuery.SetField("name")
	contentQuery := bleve.NewMatchQuery(term)
	contentQuery.SetField("content")
	text = bleve.NewDisjunctionQuery(nameQuery, contentQuery)

	search := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(exact, text))
	search.Size = limit
	results, err := b.index.Search(search)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := make([]*LookupResult, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &LookupResult{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Delete removes a record from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// Clear removes every document, used before a full rebuild.
func (b *BleveIndex) Clear(ctx context.Context) error {
	for {
		req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
		req.Size = 1000
		results, err := b.index.Search(req)
		if err != nil {
			return fmt.Errorf("Bleve clear scan failed: %w", err)
		}
		if len(results.Hits) == 0 {
			return nil
		}
		batch := b.index.NewBatch()
		for _, hit := range results.Hits {
			batch.Delete(hit.ID)
		}
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("Bleve clear batch failed: %w", err)
		}
	}
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
