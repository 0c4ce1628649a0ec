package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sifan077/PowerBio/internal/app/cache"
	"github.com/sifan077/PowerBio/internal/app/model"
	"github.com/sifan077/PowerBio/internal/app/repository"
	metrics "github.com/sifan077/PowerBio/internal/infra/prometheus"
	"go.uber.org/zap"
)

// LinkResolver is the read side of the short-link directory.
type LinkResolver interface {
	Resolve(ctx context.Context, code string) (model.LinkSnapshot, error)
}

// Resolution is the outcome of a successful lookup.
type Resolution struct {
	URL      string
	LinkID   string
	CacheHit bool
}

// Resolver turns a short code into a destination: cache first, directory on a
// miss, never caching unknown codes. Every successful resolution schedules one
// asynchronous click-count update.
type Resolver struct {
	cache  *cache.LinkCache
	links  LinkResolver
	clicks ClickScheduler
	logger *zap.Logger
	now    func() time.Time
}

// ResolverDeps groups the collaborators of a Resolver.
type ResolverDeps struct {
	Cache  *cache.LinkCache
	Links  LinkResolver
	Clicks ClickScheduler
	Logger *zap.Logger
}

func NewResolver(deps ResolverDeps) *Resolver {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cache:  deps.Cache,
		links:  deps.Links,
		clicks: deps.Clicks,
		logger: logger,
		now:    time.Now,
	}
}

// Resolve returns repository.ErrShortLinkNotFound for unknown codes and a
// wrapped error when the directory cannot be reached.
func (r *Resolver) Resolve(ctx context.Context, code string) (Resolution, error) {
	if snap, ok := r.cache.Get(ctx, code); ok {
		metrics.RedirectsTotal.WithLabelValues("hit").Inc()
		r.schedule(snap.ID, code)
		return Resolution{URL: snap.FullURL, LinkID: snap.ID, CacheHit: true}, nil
	}

	snap, err := r.links.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrShortLinkNotFound) {
			metrics.RedirectsTotal.WithLabelValues("not_found").Inc()
			return Resolution{}, err
		}
		metrics.RedirectsTotal.WithLabelValues("error").Inc()
		return Resolution{}, fmt.Errorf("resolve short link: %w", err)
	}

	metrics.RedirectsTotal.WithLabelValues("miss").Inc()
	r.cache.Set(ctx, code, snap)
	r.schedule(snap.ID, code)
	return Resolution{URL: snap.FullURL, LinkID: snap.ID}, nil
}

func (r *Resolver) schedule(linkID, code string) {
	if r.clicks == nil {
		return
	}
	r.clicks.Schedule(model.ClickCountTask{
		LinkID:      linkID,
		Code:        code,
		ScheduledAt: r.now().UTC(),
	})
}
