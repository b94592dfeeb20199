// Package vector provides the persistent vector index with its parallel
// metadata mapping: append, top-k inner-product search, and whole-store
// snapshot persistence.
package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/pkg/utils"
	"go.uber.org/zap"
)

// DefaultIndexName keys the singleton snapshot in the durable store.
const DefaultIndexName = "main_index"

// SnapshotStore persists and restores the whole index as one unit.
// A nil snapshot with nil error from LoadSnapshot means nothing is persisted yet.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *models.Snapshot) error
	LoadSnapshot(ctx context.Context, name string) (*models.Snapshot, error)
}

// Store owns the in-memory vector container and its metadata mapping.
// Invariant: both are always equal in length and index-aligned; position i
// in one corresponds to position i in the other, after every append and
// after every save/load cycle.
//
// Vectors are L2-normalized at insertion so inner-product search is
// equivalent to cosine similarity.
//
// Store is safe for concurrent use: mutations take the write lock, searches
// the read lock.
type Store struct {
	name      string
	dimension int
	snapshots SnapshotStore
	logger    *zap.Logger

	mu          sync.RWMutex
	vectors     [][]float32
	metadata    []models.Metadata
	initialized bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets a logger for warnings (load fallback, persistence failures).
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithName overrides the snapshot name (default DefaultIndexName).
func WithName(name string) StoreOption {
	return func(s *Store) { s.name = name }
}

// NewStore creates a store of the given dimension backed by snapshots.
// Call Initialize before any other operation.
func NewStore(dimension int, snapshots SnapshotStore, opts ...StoreOption) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	s := &Store{
		name:      DefaultIndexName,
		dimension: dimension,
		snapshots: snapshots,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initialize loads the persisted snapshot if one exists. Any failure to load
// (absent snapshot, corrupt payload, dimension mismatch, misaligned mapping)
// falls back to a fresh empty store; this is recoverable, never fatal.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vectors = make([][]float32, 0)
	s.metadata = make([]models.Metadata, 0)
	s.initialized = true

	snap, err := s.snapshots.LoadSnapshot(ctx, s.name)
	if err != nil {
		s.logger.Warn("snapshot load failed, starting with empty index", zap.Error(err))
		return nil
	}
	if snap == nil {
		s.logger.Info("no persisted snapshot, created new vector index", zap.Int("dimension", s.dimension))
		return nil
	}

	dim, vectors, err := decodeVectors(snap.Payload)
	if err != nil {
		s.logger.Warn("snapshot payload corrupt, starting with empty index", zap.Error(err))
		return nil
	}
	if dim != s.dimension {
		s.logger.Warn("snapshot dimension mismatch, starting with empty index",
			zap.Int("snapshot_dimension", dim), zap.Int("store_dimension", s.dimension))
		return nil
	}
	if len(vectors) != len(snap.Entries) {
		s.logger.Warn("snapshot vector/metadata misalignment, starting with empty index",
			zap.Int("vectors", len(vectors)), zap.Int("entries", len(snap.Entries)))
		return nil
	}

	metadata := make([]models.Metadata, len(snap.Entries))
	for i, entry := range snap.Entries {
		metadata[i] = entry.Metadata
	}
	s.vectors = vectors
	s.metadata = metadata
	s.logger.Info("loaded vector index snapshot", zap.Int("entries", len(vectors)))
	return nil
}

// Append validates the vector, appends vector and metadata as one step, and
// persists the whole store synchronously. A persistence failure is logged
// and the in-memory append stands; durable and in-memory copies diverge
// until the next successful save.
func (s *Store) Append(ctx context.Context, vec []float32, meta models.Metadata) error {
	if len(vec) != s.dimension {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vec), s.dimension)
	}

	normalized := make([]float32, s.dimension)
	copy(normalized, vec)
	utils.NormalizeL2(normalized)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	s.vectors = append(s.vectors, normalized)
	s.metadata = append(s.metadata, meta)

	if err := s.persistLocked(ctx); err != nil {
		s.logger.Warn("vector index persist failed, in-memory state retained", zap.Error(err))
	}
	return nil
}

// Search returns the k highest-similarity entries by inner product, ranked
// descending, ties broken by ascending insertion order. An empty store
// returns an empty slice; k larger than the store returns all entries.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]models.RetrievalResult, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(query), s.dimension)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	if k <= 0 || len(s.vectors) == 0 {
		return []models.RetrievalResult{}, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(s.vectors))
	for i, vec := range s.vectors {
		var dot float64
		for j := 0; j < s.dimension; j++ {
			dot += float64(query[j] * vec[j])
		}
		scores[i] = scored{idx: i, score: dot}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].idx < scores[j].idx
	})

	if k > len(scores) {
		k = len(scores)
	}
	results := make([]models.RetrievalResult, k)
	for i := 0; i < k; i++ {
		results[i] = models.RetrievalResult{
			Metadata: s.metadata[scores[i].idx].Copy(),
			Score:    scores[i].score,
			Rank:     i + 1,
		}
	}
	return results, nil
}

// Clear empties the store and persists the empty snapshot. Used by the
// destructive full reindex.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	s.vectors = s.vectors[:0]
	s.metadata = s.metadata[:0]
	return s.persistLocked(ctx)
}

// Save persists the current contents. Called at shutdown; Append already
// persists after every mutation.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	return s.persistLocked(ctx)
}

// persistLocked writes the whole store as one snapshot. Caller holds mu.
func (s *Store) persistLocked(ctx context.Context) error {
	now := time.Now()
	entries := make([]models.MappingEntry, len(s.metadata))
	for i, meta := range s.metadata {
		entries[i] = models.MappingEntry{Index: i, Metadata: meta, CreatedAt: now}
	}
	snap := &models.Snapshot{
		Name:      s.name,
		Payload:   encodeVectors(s.dimension, s.vectors),
		Dimension: s.dimension,
		UpdatedAt: now,
		Entries:   entries,
	}
	if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Size returns the number of indexed entries.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Dimension returns the fixed vector dimension.
func (s *Store) Dimension() int {
	return s.dimension
}

// Stats summarizes the index contents by record type.
func (s *Store) Stats() models.IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	typeCounts := make(map[string]int)
	for _, meta := range s.metadata {
		t, ok := meta["type"].(string)
		if !ok {
			t = "unknown"
		}
		typeCounts[t]++
	}
	return models.IndexStats{
		TotalVectors: len(s.vectors),
		Dimension:    s.dimension,
		TypeCounts:   typeCounts,
		IndexSizeMB:  float64(len(s.vectors)*s.dimension*4) / (1024 * 1024),
	}
}
