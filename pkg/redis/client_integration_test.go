//go:build integration

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegborzov/themesearcher/pkg/config"
)

func skipIfNoRedis(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	c, err := NewClient(ctx, config.RedisConfig{Addr: addr, DB: 15, PoolSize: 2})
	if err != nil {
		t.Skipf("skipping integration test: redis unavailable: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_SetGetFlush(t *testing.T) {
	c := skipIfNoRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "themes:test:a", `["Авто"]`, time.Minute))
	require.NoError(t, c.Set(ctx, "themes:test:b", `[]`, time.Minute))
	require.NoError(t, c.Set(ctx, "other:key", "1", time.Minute))

	v, err := c.Get(ctx, "themes:test:a")
	require.NoError(t, err)
	assert.Equal(t, `["Авто"]`, v)

	n, err := c.FlushByPattern(ctx, "themes:test:*")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = c.Get(ctx, "themes:test:a")
	assert.True(t, IsNilError(err))

	v, err = c.Get(ctx, "other:key")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}
