package models

// CollectionReport is the outcome of indexing one source collection.
// A failed collection reports status "error" with the message; it does not
// abort the other collections of a full reindex.
type CollectionReport struct {
	Status       string `json:"status"`
	IndexedCount int    `json:"indexed_count"`
	Skipped      int    `json:"skipped,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ReindexReport aggregates per-collection results of a full reindex.
type ReindexReport struct {
	Status       string                          `json:"status"`
	TotalIndexed int                             `json:"total_indexed"`
	Results      map[SourceType]CollectionReport `json:"results"`
}

// IndexStats describes the current vector index contents.
type IndexStats struct {
	TotalVectors int            `json:"total_vectors"`
	Dimension    int            `json:"dimension"`
	TypeCounts   map[string]int `json:"type_counts"`
	IndexSizeMB  float64        `json:"index_size_mb"`
}
