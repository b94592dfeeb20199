package embedding

import (
	"container/list"
	"sync"
)

// EmbeddingCache caches computed vectors keyed by their source text with
// LRU eviction. Catalog descriptions repeat across reindex runs and chat
// queries repeat within a session, so hits are common.
type EmbeddingCache struct {
	capacity int
	items    map[string]*list.Element
	lru      *list.List
	mu       sync.RWMutex
}

type cacheEntry struct {
	text   string
	vector []float32
}

// NewEmbeddingCache returns a cache holding at most capacity vectors.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	return &EmbeddingCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached vector for text, if present.
func (c *EmbeddingCache) Get(text string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if elem, ok := c.items[text]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).vector, true
	}
	return nil, false
}

// Set stores the vector for text, evicting the least recently used
// entry once the cache is full.
func (c *EmbeddingCache) Set(text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[text]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).vector = vector
		return
	}

	elem := c.lru.PushFront(&cacheEntry{text: text, vector: vector})
	c.items[text] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).text)
		}
	}
}
