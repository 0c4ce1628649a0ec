package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/sifan077/PowerBio/internal/app/cache"
	"github.com/sifan077/PowerBio/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type incrementerFunc func(ctx context.Context, id string) (int64, error)

func (f incrementerFunc) IncrementClicks(ctx context.Context, id string) (int64, error) {
	return f(ctx, id)
}

func TestClickApplier_FailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	linkCache := cache.NewLinkCache(cache.NewMemoryStore(), cache.LinkTTL, nil)
	linkCache.Set(ctx, "abc1234", model.LinkSnapshot{FullURL: "https://example.com", ID: "id-1"})

	boom := errors.New("db down")
	applier := NewClickApplier(incrementerFunc(func(context.Context, string) (int64, error) {
		return 0, boom
	}), linkCache, nil)

	err := applier.Apply(ctx, model.ClickCountTask{LinkID: "id-1", Code: "abc1234"})
	require.ErrorIs(t, err, boom)

	_, ok := linkCache.Get(ctx, "abc1234")
	assert.True(t, ok)
}

func TestLocalClickQueue_CloseDrains(t *testing.T) {
	var applied atomic.Int64
	applier := NewClickApplier(incrementerFunc(func(context.Context, string) (int64, error) {
		return applied.Add(1), nil
	}), nil, nil)

	q := NewLocalClickQueue(applier, 2, 100, nil)
	for i := 0; i < 50; i++ {
		q.Schedule(model.ClickCountTask{LinkID: "id-1", Code: "abc1234"})
	}
	q.Close()

	assert.Equal(t, int64(50), applied.Load())

	// scheduling after close is dropped, not a panic
	q.Schedule(model.ClickCountTask{LinkID: "id-1", Code: "abc1234"})
	q.Close()
	assert.Equal(t, int64(50), applied.Load())
}

func TestLocalClickQueue_DropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var applied atomic.Int64
	applier := NewClickApplier(incrementerFunc(func(context.Context, string) (int64, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return applied.Add(1), nil
	}), nil, nil)

	q := NewLocalClickQueue(applier, 1, 1, nil)
	q.Schedule(model.ClickCountTask{LinkID: "a"})
	<-started // worker busy with the first task

	q.Schedule(model.ClickCountTask{LinkID: "b"}) // fills the buffer
	q.Schedule(model.ClickCountTask{LinkID: "c"}) // dropped

	close(release)
	q.Close()
	assert.Equal(t, int64(2), applied.Load())
}
