package normalizer

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of tokens remembered per cache.
const DefaultCacheSize = 500

type cachedResult struct {
	word string
	ok   bool
}

// CacheStats is a point-in-time view of a Cached normalizer.
type CacheStats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Len      int   `json:"len"`
	Capacity int   `json:"capacity"`
}

// Cached memoizes another Normalizer in a bounded LRU keyed by raw token.
// Concurrent misses for the same token share a single call to the wrapped
// normalizer. Errors are returned to every waiter and never cached.
type Cached struct {
	next     Normalizer
	cache    *lru.Cache[string, cachedResult]
	group    singleflight.Group
	capacity int
	hits     atomic.Int64
	misses   atomic.Int64
}

func NewCached(next Normalizer, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, cachedResult](size)
	if err != nil {
		return nil, fmt.Errorf("creating normalizer cache: %w", err)
	}
	return &Cached{
		next:     next,
		cache:    cache,
		capacity: size,
	}, nil
}

func (c *Cached) Normalize(token string) (string, bool, error) {
	if r, ok := c.cache.Get(token); ok {
		c.hits.Add(1)
		return r.word, r.ok, nil
	}
	c.misses.Add(1)
	v, err, _ := c.group.Do(token, func() (any, error) {
		if r, ok := c.cache.Peek(token); ok {
			return r, nil
		}
		word, ok, err := c.next.Normalize(token)
		if err != nil {
			return nil, err
		}
		r := cachedResult{word: word, ok: ok}
		c.cache.Add(token, r)
		return r, nil
	})
	if err != nil {
		return "", false, err
	}
	r := v.(cachedResult)
	return r.word, r.ok, nil
}

func (c *Cached) Stats() CacheStats {
	return CacheStats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Len:      c.cache.Len(),
		Capacity: c.capacity,
	}
}
