// Package geo resolves coarse visitor locations. Accuracy is best-effort; every
// failure collapses into an unknown location at the call site.
package geo

import (
	"context"
	"errors"
	"net"
)

// ErrPrivateAddress is returned for loopback, private and link-local addresses.
var ErrPrivateAddress = errors.New("geo: private or local address")

// Location is a coarse geolocation; empty fields mean unknown.
type Location struct {
	Country string
	City    string
}

// Locator looks up the location of a raw client IP.
type Locator interface {
	Lookup(ctx context.Context, ip string) (Location, error)
	Name() string
}

var privateRanges = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"100.64.0.0/10",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

// IsPrivateIP reports whether ip cannot be meaningfully geolocated. Unparseable
// input counts as private.
func IsPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsUnspecified() {
		return true
	}
	for _, n := range privateRanges {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		out = append(out, n)
	}
	return out
}
