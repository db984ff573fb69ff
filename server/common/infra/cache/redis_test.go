package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduperClaimOnce(t *testing.T) {
	addr := os.Getenv("STREAM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STREAM_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := NewClient(addr)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, Ping(ctx, client))

	d := NewDeduper(client, time.Minute)
	key := "test:dedupe:" + uuid.NewString()
	t.Cleanup(func() { _ = d.Release(ctx, key) })

	first, err := d.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := d.Claim(ctx, key)
	require.NoError(t, err)
	assert.False(t, second)

	require.NoError(t, d.Release(ctx, key))
	again, err := d.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, again)
}
