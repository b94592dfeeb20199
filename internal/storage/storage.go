// Package storage defines the persistence interface for source records,
// index snapshots, and chat sessions.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/annai/internal/models"
)

// ErrNotFound is returned when a requested record or session does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines durable operations. Source collections are read sources
// for indexing; upserts exist for seeding and drop-directory ingestion.
type Storage interface {
	// Source collections
	ListProducts(ctx context.Context) ([]*models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	UpsertProducts(ctx context.Context, products []*models.Product) error
	ListOrders(ctx context.Context) ([]*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	UpsertOrders(ctx context.Context, orders []*models.Order) error
	ListUsers(ctx context.Context) ([]*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpsertUsers(ctx context.Context, users []*models.User) error
	CountRecords(ctx context.Context, collection models.SourceType) (int64, error)

	// Index snapshot: the whole vector payload plus the ordered metadata
	// mapping, replaced as one unit. LoadSnapshot returns (nil, nil) when
	// nothing is persisted under name.
	SaveSnapshot(ctx context.Context, snap *models.Snapshot) error
	LoadSnapshot(ctx context.Context, name string) (*models.Snapshot, error)

	// Chat sessions, upserted whole by session id (last-write-wins).
	GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error)
	UpsertSession(ctx context.Context, session *models.ChatSession) error

	Close() error
}
