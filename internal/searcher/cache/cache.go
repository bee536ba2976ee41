// Package cache keeps resolved theme sets in Redis so repeated queries skip
// normalization. Keys are namespaced by the catalog fingerprint, so results
// from a different catalog are never served.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const keyPrefix = "themes:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Result is what the cache keeps per query.
type Result struct {
	Themes  []string `json:"themes"`
	Matched int      `json:"matched_phrases"`
}

type QueryCache struct {
	store       Store
	ttl         time.Duration
	fingerprint string
	isMiss      func(error) bool
	group       singleflight.Group
	logger      *slog.Logger
	hits        atomic.Int64
	misses      atomic.Int64
}

// New returns a cache for results of the catalog identified by fingerprint.
// isMiss reports whether a store error means "key not found".
func New(store Store, ttl time.Duration, fingerprint string, isMiss func(error) bool) *QueryCache {
	return &QueryCache{
		store:       store,
		ttl:         ttl,
		fingerprint: fingerprint,
		isMiss:      isMiss,
		logger:      slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, query string) (Result, bool) {
	key := c.buildKey(query)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !c.isMiss(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal([]byte(data), &res); err != nil || res.Themes == nil {
		c.logger.Error("cache entry unreadable", "key", key, "error", err)
		c.misses.Add(1)
		return Result{}, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", query, "key", key)
	return res, true
}

func (c *QueryCache) Set(ctx context.Context, query string, res Result) {
	key := c.buildKey(query)
	data, err := json.Marshal(res)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for query, or computes, stores and
// returns it. Concurrent misses for equivalent queries share one compute.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	computeFn func() (Result, error),
) (Result, bool, error) {
	if res, ok := c.Get(ctx, query); ok {
		return res, true, nil
	}
	key := c.buildKey(query)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		res, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, res)
		return res, nil
	})
	if err != nil {
		return Result{}, false, err
	}
	return val.(Result), false, nil
}

// Invalidate drops every cached result, for all catalogs.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	pattern := keyPrefix + "*"
	deleted, err := c.store.FlushByPattern(ctx, pattern)
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) buildKey(query string) string {
	hash := sha256.Sum256([]byte(canonicalQuery(query)))
	return fmt.Sprintf("%s%s:%x", keyPrefix, c.fingerprint, hash[:16])
}

// canonicalQuery maps queries that must resolve identically to the same
// string: token order, repeats and letter case do not change the result.
func canonicalQuery(query string) string {
	parts := strings.Split(strings.ToLower(query), " ")
	seen := make(map[string]struct{}, len(parts))
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		tokens = append(tokens, p)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
