package cache

import (
	"context"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNil = errors.New("nil")

type memStore struct {
	mu   sync.Mutex
	data map[string]string
	fail error
}

func newMemStore() *memStore { return &memStore{data: make(map[string]string)} }

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return "", m.fail
	}
	v, ok := m.data[key]
	if !ok {
		return "", errNil
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.data[key] = string(value.([]byte))
	return nil
}

func (m *memStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func isNil(err error) bool { return errors.Is(err, errNil) }

func TestCanonicalQuery(t *testing.T) {
	assert.Equal(t, "зимние шины", canonicalQuery("Шины  зимние шины "))
	assert.Equal(t, "", canonicalQuery("   "))
}

func TestGetOrCompute(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, "fp1", isNil)
	ctx := context.Background()

	calls := 0
	compute := func() (Result, error) {
		calls++
		return Result{Themes: []string{"товары"}, Matched: 1}, nil
	}

	res, hit, err := c.GetOrCompute(ctx, "зимние шины", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"товары"}, res.Themes)

	res, hit, err = c.GetOrCompute(ctx, "ШИНЫ зимние", compute)
	require.NoError(t, err)
	assert.True(t, hit, "equivalent query should hit")
	assert.Equal(t, Result{Themes: []string{"товары"}, Matched: 1}, res)
	assert.Equal(t, 1, calls)

	hits, misses := c.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)
}

func TestGetOrCompute_EmptyResultIsCached(t *testing.T) {
	c := New(newMemStore(), time.Minute, "fp", isNil)
	ctx := context.Background()

	_, _, err := c.GetOrCompute(ctx, "кухня", func() (Result, error) { return Result{Themes: []string{}}, nil })
	require.NoError(t, err)
	res, hit, err := c.GetOrCompute(ctx, "кухня", func() (Result, error) {
		t.Fatal("should not recompute")
		return Result{}, nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.NotNil(t, res.Themes)
	assert.Empty(t, res.Themes)
}

func TestGetOrCompute_ErrorNotCached(t *testing.T) {
	c := New(newMemStore(), time.Minute, "fp", isNil)
	ctx := context.Background()
	boom := errors.New("boom")

	_, _, err := c.GetOrCompute(ctx, "q", func() (Result, error) { return Result{}, boom })
	require.ErrorIs(t, err, boom)

	res, hit, err := c.GetOrCompute(ctx, "q", func() (Result, error) { return Result{Themes: []string{"a"}}, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"a"}, res.Themes)
}

func TestGetOrCompute_StoreFailureFallsThrough(t *testing.T) {
	store := newMemStore()
	store.fail = errors.New("connection refused")
	c := New(store, time.Minute, "fp", isNil)

	res, hit, err := c.GetOrCompute(context.Background(), "q", func() (Result, error) {
		return Result{Themes: []string{"a"}}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"a"}, res.Themes)
}

func TestFingerprintNamespacing(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	New(store, time.Minute, "old", isNil).Set(ctx, "q", Result{Themes: []string{"stale"}})

	_, ok := New(store, time.Minute, "new", isNil).Get(ctx, "q")
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	store := newMemStore()
	store.data["unrelated"] = "x"
	c := New(store, time.Minute, "fp", isNil)
	ctx := context.Background()
	c.Set(ctx, "a", Result{Themes: []string{"x"}})
	c.Set(ctx, "b", Result{Themes: []string{"y"}})

	require.NoError(t, c.Invalidate(ctx))
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	assert.Contains(t, store.data, "unrelated")
}

func TestGetOrCompute_Concurrent(t *testing.T) {
	c := New(newMemStore(), time.Minute, "fp", isNil)
	var calls atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _, err := c.GetOrCompute(context.Background(), "дети капитана гранта", func() (Result, error) {
				calls.Add(1)
				time.Sleep(5 * time.Millisecond)
				return Result{Themes: []string{"книги", "фильмы"}, Matched: 1}, nil
			})
			if err != nil || len(res.Themes) != 2 {
				t.Errorf("unexpected result %v %v", res, err)
			}
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, calls.Load(), int64(1))
	assert.LessOrEqual(t, calls.Load(), int64(20))
}
