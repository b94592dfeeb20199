// Package models defines core data structures for source records, index
// metadata, retrieval results, and chat sessions.
package models

import (
	"fmt"
	"time"
)

// SourceType identifies which source collection a record comes from.
type SourceType string

const (
	SourceProducts SourceType = "products"
	SourceOrders   SourceType = "orders"
	SourceUsers    SourceType = "users"
)

// AllSourceTypes lists every source collection in indexing order.
var AllSourceTypes = []SourceType{SourceProducts, SourceOrders, SourceUsers}

// ParseSourceType validates a collection name from config or API input.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(s) {
	case SourceProducts, SourceOrders, SourceUsers:
		return SourceType(s), nil
	default:
		return "", fmt.Errorf("unknown source collection: %s (supported: products, orders, users)", s)
	}
}

// Singular returns the metadata "type" value for records of this collection.
func (t SourceType) Singular() string {
	switch t {
	case SourceProducts:
		return "product"
	case SourceOrders:
		return "order"
	case SourceUsers:
		return "user"
	}
	return "unknown"
}

// Metadata is the opaque payload stored alongside each indexed vector.
// It always carries "type", a stable source "id", and "content" (the exact
// text that was embedded); the index never interprets the rest.
type Metadata map[string]any

// Copy returns a shallow copy so search results can be augmented without
// touching the stored record.
func (m Metadata) Copy() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Product is a catalog record read from the products collection.
type Product struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	Brand       string    `json:"brand" db:"brand"`
	Material    string    `json:"material" db:"material"`
	Price       float64   `json:"price" db:"price"`
	Gender      string    `json:"gender" db:"gender"`
	Collections []string  `json:"collections"`
	Sizes       []string  `json:"sizes"`
	Colors      []string  `json:"colors"`
	Tags        []string  `json:"tags"`
	IsFeatured  bool      `json:"is_featured" db:"is_featured"`
	IsPublished bool      `json:"is_published" db:"is_published"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// OrderItem is one line item of an order.
type OrderItem struct {
	Name  string `json:"name"`
	Size  string `json:"size"`
	Color string `json:"color"`
}

// Order is a purchase record read from the orders collection.
type Order struct {
	ID              string      `json:"id" db:"id"`
	OrderNumber     string      `json:"order_number" db:"order_number"`
	Status          string      `json:"status" db:"status"`
	TotalPrice      float64     `json:"total_price" db:"total_price"`
	UserID          string      `json:"user_id" db:"user_id"`
	ShippingAddress string      `json:"shipping_address" db:"shipping_address"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// User is an account record read from the users collection.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RetrievalResult is one search hit: a copy of the stored metadata augmented
// with a similarity score and a 1-based rank within the returned set.
type RetrievalResult struct {
	Metadata Metadata `json:"metadata"`
	Score    float64  `json:"score"`
	Rank     int      `json:"rank"`
}

// Snapshot is the persisted form of the whole vector index: one binary
// payload for the vectors plus the ordered metadata mapping. Saved and
// loaded as a single unit keyed by Name.
type Snapshot struct {
	Name      string
	Payload   []byte
	Dimension int
	UpdatedAt time.Time
	Entries   []MappingEntry
}

// MappingEntry is one row of the metadata mapping, ordered by Index.
type MappingEntry struct {
	Index     int
	Metadata  Metadata
	CreatedAt time.Time
}
