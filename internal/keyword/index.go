// Package keyword provides exact-term lookup over indexed records. It
// complements semantic retrieval for identifiers that embeddings handle
// poorly: order numbers, email addresses, product ids.
package keyword

import "context"

// RecordDoc is the shape stored in the keyword index, one per indexed record.
type RecordDoc struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Term    string `json:"term"`
}

// LookupResult is a single keyword lookup hit.
type LookupResult struct {
	ID    string
	Score float64
}

// Index defines keyword lookup operations.
type Index interface {
	IndexRecord(ctx context.Context, id string, doc *RecordDoc) error
	Lookup(ctx context.Context, term string, limit int) ([]*LookupResult, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	DocCount() (uint64, error)
	Close() error
}
