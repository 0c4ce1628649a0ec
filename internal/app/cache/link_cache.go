package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/sifan077/PowerBio/internal/app/model"
	metrics "github.com/sifan077/PowerBio/internal/infra/prometheus"
	"go.uber.org/zap"
)

// LinkCache holds short-link snapshots under link:{code}. It never reports an
// error: a broken backend or a corrupt payload looks like an absent entry.
type LinkCache struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewLinkCache builds a LinkCache; ttl <= 0 uses LinkTTL.
func NewLinkCache(store Store, ttl time.Duration, logger *zap.Logger) *LinkCache {
	if ttl <= 0 {
		ttl = LinkTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkCache{store: store, ttl: ttl, logger: logger}
}

// Get returns the cached snapshot for code, if any.
func (c *LinkCache) Get(ctx context.Context, code string) (model.LinkSnapshot, bool) {
	var snap model.LinkSnapshot

	raw, err := c.store.Get(ctx, LinkKey(code))
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.fail("get", code, err)
		}
		return snap, false
	}

	if err := json.Unmarshal(raw, &snap); err != nil || snap.FullURL == "" {
		if err == nil {
			err = errors.New("snapshot without destination")
		}
		c.fail("decode", code, err)
		return snap, false
	}
	return snap, true
}

// Set stores snap for the configured TTL.
func (c *LinkCache) Set(ctx context.Context, code string, snap model.LinkSnapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		c.fail("encode", code, err)
		return
	}
	if err := c.store.Set(ctx, LinkKey(code), raw, c.ttl); err != nil {
		c.fail("set", code, err)
	}
}

// Delete drops the entry so the next lookup repopulates from the directory.
func (c *LinkCache) Delete(ctx context.Context, code string) {
	if err := c.store.Delete(ctx, LinkKey(code)); err != nil {
		c.fail("delete", code, err)
	}
}

func (c *LinkCache) fail(op, code string, err error) {
	metrics.CacheErrorsTotal.WithLabelValues(op).Inc()
	c.logger.Warn("link cache operation failed",
		zap.String("op", op),
		zap.String("code", code),
		zap.Error(err),
	)
}
