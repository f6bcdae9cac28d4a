package cache

import (
	"context"
	"testing"
	"time"

	"github.com/BerylCAtieno/intpatient-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClientExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryClient(0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClientDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(0)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClientEvictsWhenFull(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(2)

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "new", []byte("3"), time.Hour))

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)

	for _, key := range []string{"long", "new"} {
		_, err := c.Get(ctx, key)
		assert.NoError(t, err, key)
	}
}

func TestTokenKey(t *testing.T) {
	key := TokenKey("secret-token")
	assert.NotContains(t, key, "secret-token")
	assert.Equal(t, key, TokenKey("secret-token"))
	assert.NotEqual(t, key, TokenKey("other-token"))
}

func TestNewWithoutRedisUsesMemory(t *testing.T) {
	c, err := New(&config.Config{})
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &MemoryClient{}, c)
}
