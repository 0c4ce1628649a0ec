package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sifan077/PowerBio/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	err error
}

func (f failingStore) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return f.err
}
func (f failingStore) Delete(context.Context, string) error { return f.err }

func TestLinkCache_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	c := NewLinkCache(store, time.Minute, nil)
	ctx := context.Background()

	_, ok := c.Get(ctx, "abc1234")
	require.False(t, ok)

	want := model.LinkSnapshot{FullURL: "https://example.com/u/alice?utm_source=x", ID: "id-1", Clicks: 7}
	c.Set(ctx, "abc1234", want)

	got, ok := c.Get(ctx, "abc1234")
	require.True(t, ok)
	assert.Equal(t, want, got)

	raw, err := store.Get(ctx, "link:abc1234")
	require.NoError(t, err)
	assert.JSONEq(t, `{"fullUrl":"https://example.com/u/alice?utm_source=x","id":"id-1","clicks":7}`, string(raw))

	c.Delete(ctx, "abc1234")
	_, ok = c.Get(ctx, "abc1234")
	assert.False(t, ok)
}

func TestLinkCache_BackendFailureIsMiss(t *testing.T) {
	c := NewLinkCache(failingStore{err: errors.New("connection refused")}, 0, nil)
	ctx := context.Background()

	c.Set(ctx, "abc1234", model.LinkSnapshot{FullURL: "https://example.com", ID: "1"})
	c.Delete(ctx, "abc1234")
	_, ok := c.Get(ctx, "abc1234")
	assert.False(t, ok)
}

func TestLinkCache_CorruptPayloadIsMiss(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, LinkKey("bad0001"), []byte("{not json"), time.Minute))
	require.NoError(t, store.Set(ctx, LinkKey("bad0002"), []byte(`{"id":"x"}`), time.Minute))

	c := NewLinkCache(store, time.Minute, nil)
	_, ok := c.Get(ctx, "bad0001")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "bad0002")
	assert.False(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 10*time.Minute))

	now = now.Add(9 * time.Minute)
	_, err := store.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "link:Ab3dE9x", LinkKey("Ab3dE9x"))
	assert.Equal(t, "profile:alice", ProfileKey("alice"))
}
