// Package indexer builds the vector and keyword indexes from source records.
package indexer

import (
	"fmt"
	"strings"

	"github.com/hyperjump/annai/internal/keyword"
	"github.com/hyperjump/annai/internal/models"
)

// derived is the embeddable form of one source record: the text that gets
// embedded and the metadata stored alongside the vector.
type derived struct {
	ID       string
	Text     string
	Metadata models.Metadata
}

func deriveProduct(p *models.Product) derived {
	return derived{ID: p.ID, Text: p.IndexText(), Metadata: p.IndexMetadata()}
}

func deriveOrder(o *models.Order) derived {
	return derived{ID: o.ID, Text: o.IndexText(), Metadata: o.IndexMetadata()}
}

func deriveUser(u *models.User) derived {
	return derived{ID: u.ID, Text: u.IndexText(), Metadata: u.IndexMetadata()}
}

// empty reports whether this record should be skipped: no stable id or no
// text worth embedding. The order prefix alone does not count as text.
func (d derived) empty() bool {
	if d.ID == "" {
		return true
	}
	text := strings.TrimSpace(d.Text)
	return text == "" || text == "Order"
}

// keywordDoc builds the sidecar document for exact-term lookup.
func (d derived) keywordDoc() (string, *keyword.RecordDoc) {
	recordType, _ := d.Metadata["type"].(string)
	doc := &keyword.RecordDoc{
		Type:    recordType,
		Content: d.Text,
	}
	if name, ok := d.Metadata["name"].(string); ok {
		doc.Name = name
	}
	switch recordType {
	case "order":
		doc.Term, _ = d.Metadata["order_number"].(string)
		doc.Name = doc.Term
	case "user":
		doc.Term, _ = d.Metadata["email"].(string)
	default:
		doc.Term = d.ID
	}
	return fmt.Sprintf("%s_%s", recordType, d.ID), doc
}
