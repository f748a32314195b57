package lrucache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoply/hoply/internal/core/ports"
)

var _ ports.CacheService = (*Cache)(nil)

func TestCache_SetGet(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrCacheMiss)

	buf := []byte("berlin")
	require.NoError(t, c.Set(ctx, "k", buf, 60))
	buf[0] = 'X'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "berlin", string(got), "stored value is a copy")

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ports.ErrCacheMiss)
}

func TestCache_Expiry(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Date(2024, 11, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("a"), 60))
	require.NoError(t, c.Set(ctx, "forever", []byte("b"), 0))

	now = now.Add(61 * time.Second)

	_, err = c.Get(ctx, "short")
	assert.ErrorIs(t, err, ports.ErrCacheMiss)
	got, err := c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))
}

func TestCache_Evicts(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_, _ = c.Get(ctx, "a")
	_ = c.Set(ctx, "c", []byte("3"), 0)

	assert.Equal(t, 2, c.Len())
	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ports.ErrCacheMiss, "least recently used entry is evicted")
}
