package geo

import (
	"context"
	"errors"
)

// ErrNotFound is returned by StaticLocator for addresses it does not know.
var ErrNotFound = errors.New("geo: address not found")

// StaticLocator answers from a fixed table. It is deterministic and is the
// test double for Locator.
type StaticLocator map[string]Location

func (s StaticLocator) Name() string {
	return "static"
}

func (s StaticLocator) Lookup(_ context.Context, ip string) (Location, error) {
	if IsPrivateIP(ip) {
		return Location{}, ErrPrivateAddress
	}
	loc, ok := s[ip]
	if !ok {
		return Location{}, ErrNotFound
	}
	return loc, nil
}

// NopLocator never resolves anything; used when geolocation is disabled.
type NopLocator struct{}

func (NopLocator) Name() string {
	return "none"
}

func (NopLocator) Lookup(context.Context, string) (Location, error) {
	return Location{}, ErrNotFound
}
