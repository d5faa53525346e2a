package search

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/poiesic/websearch/core"
)

// ResultCache stores result sets keyed by normalized query text. Entries
// expire after a fixed TTL; the least recently used entry is evicted when
// capacity is exceeded. Keys never contain anything beyond the normalized
// query and the requested result count.
type ResultCache struct {
	lru *expirable.LRU[string, []*core.QueryResult]
}

// NewResultCache creates a cache with the given capacity and TTL.
func NewResultCache(capacity int, ttl time.Duration) *ResultCache {
	return &ResultCache{
		lru: expirable.NewLRU[string, []*core.QueryResult](capacity, nil, ttl),
	}
}

// Get returns the cached result set for key, if present and unexpired.
func (c *ResultCache) Get(key string) ([]*core.QueryResult, bool) {
	return c.lru.Get(key)
}

// Add stores a result set under key.
func (c *ResultCache) Add(key string, results []*core.QueryResult) {
	c.lru.Add(key, results)
}

// Len returns the number of live entries.
func (c *ResultCache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry, typically after the index has changed enough
// that cached rankings are stale.
func (c *ResultCache) Purge() {
	c.lru.Purge()
}
