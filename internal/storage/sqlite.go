package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/annai/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		category TEXT,
		brand TEXT,
		material TEXT,
		price REAL,
		gender TEXT,
		collections TEXT,
		sizes TEXT,
		colors TEXT,
		tags TEXT,
		is_featured INTEGER DEFAULT 0,
		is_published INTEGER DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		order_number TEXT NOT NULL,
		status TEXT,
		total_price REAL,
		user_id TEXT,
		shipping_address TEXT,
		items TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		role TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS vector_index (
		name TEXT PRIMARY KEY,
		index_data BLOB NOT NULL,
		dimension INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vector_mapping (
		name TEXT NOT NULL,
		idx INTEGER NOT NULL,
		metadata TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (name, idx)
	);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		messages TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON chat_sessions(user_id);
	`
	_, err := db.Exec(schema)
	return err
}

// ListProducts returns every product ordered by creation time.
func (s *SQLiteStorage) ListProducts(ctx context.Context) ([]*models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, category, brand, material, price, gender,
		        collections, sizes, colors, tags, is_featured, is_published, created_at
		 FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct returns one product by id, or ErrNotFound.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, category, brand, material, price, gender,
		        collections, sizes, colors, tags, is_featured, is_published, created_at
		 FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p, err
}

// UpsertProducts inserts or replaces products in one transaction.
func (s *SQLiteStorage) UpsertProducts(ctx context.Context, products []*models.Product) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO products (id, name, description, category, brand, material, price, gender,
			                       collections, sizes, colors, tags, is_featured, is_published, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   name=excluded.name, description=excluded.description, category=excluded.category,
			   brand=excluded.brand, material=excluded.material, price=excluded.price,
			   gender=excluded.gender, collections=excluded.collections, sizes=excluded.sizes,
			   colors=excluded.colors, tags=excluded.tags, is_featured=excluded.is_featured,
			   is_published=excluded.is_published`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range products {
			if p.CreatedAt.IsZero() {
				p.CreatedAt = time.Now()
			}
			if _, err := stmt.ExecContext(ctx, p.ID, p.Name, p.Description, p.Category, p.Brand,
				p.Material, p.Price, p.Gender, marshalJSON(p.Collections), marshalJSON(p.Sizes),
				marshalJSON(p.Colors), marshalJSON(p.Tags), p.IsFeatured, p.IsPublished, p.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListOrders returns every order ordered by creation time.
func (s *SQLiteStorage) ListOrders(ctx context.Context) ([]*models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, order_number, status, total_price, user_id, shipping_address, items, created_at
		 FROM orders ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetOrder returns one order by id, or ErrNotFound.
func (s *SQLiteStorage) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, order_number, status, total_price, user_id, shipping_address, items, created_at
		 FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return o, err
}

// UpsertOrders inserts or replaces orders in one transaction.
func (s *SQLiteStorage) UpsertOrders(ctx context.Context, orders []*models.Order) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO orders (id, order_number, status, total_price, user_id, shipping_address, items, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   order_number=excluded.order_number, status=excluded.status,
			   total_price=excluded.total_price, user_id=excluded.user_id,
			   shipping_address=excluded.shipping_address, items=excluded.items`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, o := range orders {
			if o.CreatedAt.IsZero() {
				o.CreatedAt = time.Now()
			}
			if _, err := stmt.ExecContext(ctx, o.ID, o.OrderNumber, o.Status, o.TotalPrice,
				o.UserID, o.ShippingAddress, marshalJSON(o.Items), o.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListUsers returns every user ordered by creation time.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, role, created_at FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// GetUser returns one user by id, or ErrNotFound.
func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUsers inserts or replaces users in one transaction.
func (s *SQLiteStorage) UpsertUsers(ctx context.Context, users []*models.User) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO users (id, name, email, role, created_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   name=excluded.name, email=excluded.email, role=excluded.role`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, u := range users {
			if u.CreatedAt.IsZero() {
				u.CreatedAt = time.Now()
			}
			if _, err := stmt.ExecContext(ctx, u.ID, u.Name, u.Email, u.Role, u.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// CountRecords returns the number of records in a source collection.
func (s *SQLiteStorage) CountRecords(ctx context.Context, collection models.SourceType) (int64, error) {
	var table string
	switch collection {
	case models.SourceProducts:
		table = "products"
	case models.SourceOrders:
		table = "orders"
	case models.SourceUsers:
		table = "users"
	default:
		return 0, fmt.Errorf("unknown source collection: %s", collection)
	}
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count)
	return count, err
}

// SaveSnapshot replaces the persisted index as one transaction: the snapshot
// row is upserted and the metadata mapping for that name is cleared and
// rewritten, so stale and fresh entries are never unioned. Mappings for
// other snapshot names are untouched.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snap *models.Snapshot) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vector_index (name, index_data, dimension, updated_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET
			   index_data=excluded.index_data, dimension=excluded.dimension, updated_at=excluded.updated_at`,
			snap.Name, snap.Payload, snap.Dimension, snap.UpdatedAt); err != nil {
			return fmt.Errorf("upsert index row: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM vector_mapping WHERE name = ?`, snap.Name); err != nil {
			return fmt.Errorf("clear mapping: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO vector_mapping (name, idx, metadata, created_at) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, entry := range snap.Entries {
			metadataJSON, err := json.Marshal(entry.Metadata)
			if err != nil {
				return fmt.Errorf("marshal metadata %d: %w", entry.Index, err)
			}
			if _, err := stmt.ExecContext(ctx, snap.Name, entry.Index, string(metadataJSON), entry.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadSnapshot reads the snapshot and its ordered metadata mapping.
// Returns (nil, nil) when nothing is persisted under name.
func (s *SQLiteStorage) LoadSnapshot(ctx context.Context, name string) (*models.Snapshot, error) {
	snap := &models.Snapshot{Name: name}
	err := s.db.QueryRowContext(ctx,
		`SELECT index_data, dimension, updated_at FROM vector_index WHERE name = ?`, name,
	).Scan(&snap.Payload, &snap.Dimension, &snap.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, metadata, created_at FROM vector_mapping WHERE name = ? ORDER BY idx`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var entry models.MappingEntry
		var metadataJSON string
		if err := rows.Scan(&entry.Index, &metadataJSON, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(metadataJSON), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata %d: %w", entry.Index, err)
		}
		snap.Entries = append(snap.Entries, entry)
	}
	return snap, rows.Err()
}

// GetSession returns a chat session by id, or ErrNotFound.
func (s *SQLiteStorage) GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	var messagesJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, user_id, messages, created_at, updated_at
		 FROM chat_sessions WHERE session_id = ?`, sessionID,
	).Scan(&session.SessionID, &session.UserID, &messagesJSON, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(messagesJSON), &session.Turns); err != nil {
		return nil, fmt.Errorf("unmarshal session turns: %w", err)
	}
	return &session, nil
}

// UpsertSession writes the whole session document keyed by session id.
// The previous document is replaced entirely (last-write-wins).
func (s *SQLiteStorage) UpsertSession(ctx context.Context, session *models.ChatSession) error {
	messagesJSON, err := json.Marshal(session.Turns)
	if err != nil {
		return fmt.Errorf("marshal session turns: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (session_id, user_id, messages, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   user_id=excluded.user_id, messages=excluded.messages, updated_at=excluded.updated_at`,
		session.SessionID, session.UserID, string(messagesJSON), session.CreatedAt, session.UpdatedAt)
	return err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	var p models.Product
	var collections, sizes, colors, tags string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Brand, &p.Material,
		&p.Price, &p.Gender, &collections, &sizes, &colors, &tags,
		&p.IsFeatured, &p.IsPublished, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	unmarshalJSON(collections, &p.Collections)
	unmarshalJSON(sizes, &p.Sizes)
	unmarshalJSON(colors, &p.Colors)
	unmarshalJSON(tags, &p.Tags)
	return &p, nil
}

func scanOrder(row scanner) (*models.Order, error) {
	var o models.Order
	var items string
	err := row.Scan(&o.ID, &o.OrderNumber, &o.Status, &o.TotalPrice, &o.UserID,
		&o.ShippingAddress, &items, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	unmarshalJSON(items, &o.Items)
	return &o, nil
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func unmarshalJSON[T any](s string, out *T) {
	if s == "" || s == "null" {
		return
	}
	_ = json.Unmarshal([]byte(s), out)
}
