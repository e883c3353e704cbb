package categorizer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubledger/reconcile/internal/domain/model"
)

func patterns(ids ...string) []*model.CategorizationPattern {
	out := make([]*model.CategorizationPattern, len(ids))
	for i, id := range ids {
		out[i] = &model.CategorizationPattern{ID: id}
	}
	return out
}

func TestLRUCache_GetAdd(t *testing.T) {
	cache, err := NewLRUCache(8)
	require.NoError(t, err)

	cache.Add("cotisation|90|", patterns("p1"))

	value, found := cache.Get("cotisation|90|")
	assert.True(t, found)
	require.Len(t, value, 1)
	assert.Equal(t, "p1", value[0].ID)

	// Get non-existent
	value, found = cache.Get("piscine|5|")
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestLRUCache_CachesEmptyLookups(t *testing.T) {
	cache, err := NewLRUCache(8)
	require.NoError(t, err)

	cache.Add("souper|7|", nil)

	_, found := cache.Get("souper|7|")
	assert.True(t, found, "a lookup without patterns is still a hit")
}

func TestLRUCache_Purge(t *testing.T) {
	cache, err := NewLRUCache(8)
	require.NoError(t, err)

	cache.Add("a", patterns("p1"))
	cache.Add("b", patterns("p2"))
	assert.Equal(t, 2, cache.Len())

	cache.Purge()

	assert.Equal(t, 0, cache.Len())
	_, found := cache.Get("a")
	assert.False(t, found)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache, err := NewLRUCache(2)
	require.NoError(t, err)

	cache.Add("a", patterns("p1"))
	cache.Add("b", patterns("p2"))
	cache.Get("a") // a is now the most recent
	cache.Add("c", patterns("p3"))

	assert.Equal(t, 2, cache.Len())
	_, found := cache.Get("b")
	assert.False(t, found)
	_, found = cache.Get("a")
	assert.True(t, found)
}

func TestLRUCache_DefaultSize(t *testing.T) {
	cache, err := NewLRUCache(0)
	require.NoError(t, err)

	for i := 0; i < DefaultCacheSize+10; i++ {
		cache.Add(fmt.Sprintf("key_%d", i), nil)
	}

	assert.Equal(t, DefaultCacheSize, cache.Len())
}

func TestLRUCache_Concurrent(t *testing.T) {
	cache, err := NewLRUCache(64)
	require.NoError(t, err)

	var wg sync.WaitGroup
	numGoroutines := 100

	wg.Add(numGoroutines * 2)

	// Writers
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			cache.Add(fmt.Sprintf("key_%d", id), patterns(fmt.Sprintf("p%d", id)))
		}(i)
	}

	// Readers
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			// May or may not find the value depending on timing
			cache.Get(fmt.Sprintf("key_%d", id))
		}(i)
	}

	wg.Wait()

	assert.Equal(t, 64, cache.Len())
}
