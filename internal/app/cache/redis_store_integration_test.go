//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PowerBio/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisStore_LinkCache(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	c := NewLinkCache(NewRedisStore(client, time.Second), 0, nil)

	_, ok := c.Get(ctx, "aB3xY9z")
	assert.False(t, ok)

	snap := model.LinkSnapshot{FullURL: "https://bio.example.com/u/alice?utm_source=ig", ID: "id-1", Clicks: 3}
	c.Set(ctx, "aB3xY9z", snap)

	got, ok := c.Get(ctx, "aB3xY9z")
	require.True(t, ok)
	assert.Equal(t, snap, got)

	ttl, err := client.TTL(ctx, "link:aB3xY9z").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 9*time.Minute)
	assert.LessOrEqual(t, ttl, LinkTTL)

	c.Delete(ctx, "aB3xY9z")
	_, ok = c.Get(ctx, "aB3xY9z")
	assert.False(t, ok)
}

func TestRedisStore_Unavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	c := NewLinkCache(NewRedisStore(client, 50*time.Millisecond), 0, nil)
	ctx := context.Background()

	c.Set(ctx, "aB3xY9z", model.LinkSnapshot{FullURL: "https://example.com", ID: "id"})
	_, ok := c.Get(ctx, "aB3xY9z")
	assert.False(t, ok)
}
