package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sifan077/PowerBio/internal/app/cache"
	"github.com/sifan077/PowerBio/internal/app/model"
	"github.com/sifan077/PowerBio/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	resolverLinkID = "22222222-0000-4000-8000-000000000001"
	resolverCode   = "Xy12AbC"
	resolverURL    = "https://example.com/u/alice?utm_source=instagram"
)

type resolverFixture struct {
	repo     *memoryLinkRepository
	store    *cache.MemoryStore
	cache    *cache.LinkCache
	links    ShortLinkService
	resolver *Resolver
}

func newResolverFixture(t *testing.T, clicks ClickScheduler) *resolverFixture {
	t.Helper()
	code := resolverCode
	repo := newMemoryLinkRepository(model.ShortLink{
		ID:        resolverLinkID,
		UserID:    testUserID,
		ProfileID: testProfileID,
		Code:      &code,
		FullURL:   resolverURL,
		Clicks:    3,
	})
	store := cache.NewMemoryStore()
	linkCache := cache.NewLinkCache(store, cache.LinkTTL, nil)
	links := newTestShortLinkService(repo, linkCache)
	return &resolverFixture{
		repo:  repo,
		store: store,
		cache: linkCache,
		links: links,
		resolver: NewResolver(ResolverDeps{
			Cache:  linkCache,
			Links:  links,
			Clicks: clicks,
		}),
	}
}

func TestResolver_MissThenHit(t *testing.T) {
	clicks := &recordingScheduler{}
	f := newResolverFixture(t, clicks)
	ctx := context.Background()

	res, err := f.resolver.Resolve(ctx, resolverCode)
	require.NoError(t, err)
	assert.Equal(t, resolverURL, res.URL)
	assert.Equal(t, resolverLinkID, res.LinkID)
	assert.False(t, res.CacheHit)
	assert.Equal(t, 1, f.repo.lookups())

	snap, ok := f.cache.Get(ctx, resolverCode)
	require.True(t, ok, "miss should populate the cache")
	assert.Equal(t, model.LinkSnapshot{FullURL: resolverURL, ID: resolverLinkID, Clicks: 3}, snap)

	res, err = f.resolver.Resolve(ctx, resolverCode)
	require.NoError(t, err)
	assert.True(t, res.CacheHit)
	assert.Equal(t, resolverURL, res.URL)
	assert.Equal(t, 1, f.repo.lookups(), "hit must not read the directory")

	require.Equal(t, 2, clicks.count())
	for _, task := range clicks.tasks {
		assert.Equal(t, resolverLinkID, task.LinkID)
		assert.Equal(t, resolverCode, task.Code)
	}
}

func TestResolver_NotFoundIsNeverCached(t *testing.T) {
	clicks := &recordingScheduler{}
	f := newResolverFixture(t, clicks)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.resolver.Resolve(ctx, "missing")
		require.ErrorIs(t, err, repository.ErrShortLinkNotFound)
	}
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, 3, f.repo.lookups())
	assert.Equal(t, 0, clicks.count())
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}
func (brokenStore) Delete(context.Context, string) error { return errors.New("connection refused") }

func TestResolver_CacheDownFallsThrough(t *testing.T) {
	f := newResolverFixture(t, nil)
	f.resolver.cache = cache.NewLinkCache(brokenStore{}, cache.LinkTTL, nil)

	res, err := f.resolver.Resolve(context.Background(), resolverCode)
	require.NoError(t, err)
	assert.Equal(t, resolverURL, res.URL)
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(context.Context, string) (model.LinkSnapshot, error) {
	return model.LinkSnapshot{}, f.err
}

func TestResolver_DirectoryError(t *testing.T) {
	boom := errors.New("db down")
	r := NewResolver(ResolverDeps{
		Cache: cache.NewLinkCache(cache.NewMemoryStore(), cache.LinkTTL, nil),
		Links: failingResolver{err: boom},
	})

	_, err := r.Resolve(context.Background(), resolverCode)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, repository.ErrShortLinkNotFound)
}

func TestResolver_ConcurrentRedirectsCountEveryClick(t *testing.T) {
	const n = 200

	f := newResolverFixture(t, nil)
	queue := NewLocalClickQueue(NewClickApplier(f.links, f.cache, nil), 8, n, nil)
	f.resolver.clicks = queue

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			res, err := f.resolver.Resolve(context.Background(), resolverCode)
			if assert.NoError(t, err) {
				assert.Equal(t, resolverURL, res.URL)
			}
		}()
	}
	wg.Wait()
	queue.Close()

	assert.Equal(t, int64(3+n), f.repo.clicks(resolverLinkID))
}

func TestResolver_IncrementInvalidatesCachedSnapshot(t *testing.T) {
	f := newResolverFixture(t, nil)
	ctx := context.Background()
	applier := NewClickApplier(f.links, f.cache, nil)

	_, err := f.resolver.Resolve(ctx, resolverCode)
	require.NoError(t, err)
	_, ok := f.cache.Get(ctx, resolverCode)
	require.True(t, ok)

	require.NoError(t, applier.Apply(ctx, model.ClickCountTask{LinkID: resolverLinkID, Code: resolverCode}))

	_, ok = f.cache.Get(ctx, resolverCode)
	assert.False(t, ok, "cached snapshot must be dropped after a counted click")

	res, err := f.resolver.Resolve(ctx, resolverCode)
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	snap, ok := f.cache.Get(ctx, resolverCode)
	require.True(t, ok)
	assert.Equal(t, int64(4), snap.Clicks)
}
