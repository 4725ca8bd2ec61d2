package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	var c TemplateCache = Nop{}

	require.NoError(t, c.Set(ctx, "t1", "<svg/>"))
	val, ok, err := c.Get(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, val)
	assert.NoError(t, c.Delete(ctx, "t1"))
	assert.NoError(t, c.Close())
}

func TestTemplateKey(t *testing.T) {
	assert.Equal(t, "vdp:template:abc", templateKey("abc"))
}

func TestRedisCacheUnreachable(t *testing.T) {
	c := NewRedisCache("127.0.0.1:1", "", 0, time.Minute)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, c.Ping(ctx))
	_, ok, err := c.Get(ctx, "t1")
	assert.Error(t, err)
	assert.False(t, ok)
}
