// Package cache implements the cache-aside layer in front of the short-link
// directory. Backends only move bytes; LinkCache owns the JSON snapshot format
// and swallows every backend failure.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by a Store when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store is a byte-oriented TTL key/value backend shared between instances.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key layout and TTLs shared with the profile service.
const (
	LinkTTL    = 10 * time.Minute
	ProfileTTL = 30 * time.Minute
)

// LinkKey returns the redirect snapshot key for a short code.
func LinkKey(code string) string {
	return "link:" + code
}

// ProfileKey returns the public profile payload key for a slug.
func ProfileKey(slug string) string {
	return "profile:" + slug
}
