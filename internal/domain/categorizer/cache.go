package categorizer

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/clubledger/reconcile/internal/domain/model"
)

// DefaultCacheSize is the number of suggestion lookups kept in memory.
const DefaultCacheSize = 256

// Cache holds pattern lookups keyed by (keyword, rounded amount, counterparty).
type Cache interface {
	Get(key string) ([]*model.CategorizationPattern, bool)
	Add(key string, patterns []*model.CategorizationPattern)
	Purge()
}

// LRUCache is a bounded in-memory Cache. It is safe for concurrent use.
type LRUCache struct {
	store *lru.Cache[string, []*model.CategorizationPattern]
}

// NewLRUCache creates a cache holding at most size lookups.
func NewLRUCache(size int) (*LRUCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	store, err := lru.New[string, []*model.CategorizationPattern](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{store: store}, nil
}

// Get retrieves a lookup from cache
func (c *LRUCache) Get(key string) ([]*model.CategorizationPattern, bool) {
	return c.store.Get(key)
}

// Add stores a lookup, evicting the least recently used one when full
func (c *LRUCache) Add(key string, patterns []*model.CategorizationPattern) {
	c.store.Add(key, patterns)
}

// Purge removes all entries from cache
func (c *LRUCache) Purge() {
	c.store.Purge()
}

// Len returns the number of cached lookups
func (c *LRUCache) Len() int {
	return c.store.Len()
}

type noCache struct{}

func (noCache) Get(string) ([]*model.CategorizationPattern, bool) { return nil, false }
func (noCache) Add(string, []*model.CategorizationPattern)        {}
func (noCache) Purge()                                            {}
