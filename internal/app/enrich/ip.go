package enrich

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SentinelIP stands in for "no address known". It is a loopback address, so
// geolocation skips it.
const SentinelIP = "127.0.0.1"

const (
	headerTestIP        = "X-Test-IP"
	headerForwardedFor  = "X-Forwarded-For"
	headerRealIP        = "X-Real-IP"
	headerCFConnectedIP = "CF-Connecting-IP"
)

// Headers is the read side of an inbound request's header set.
type Headers interface {
	Get(key string) string
}

// HeaderFunc adapts a lookup function to Headers.
type HeaderFunc func(key string) string

func (f HeaderFunc) Get(key string) string { return f(key) }

// MapHeaders is a case-insensitive Headers backed by a map, used by tests and tooling.
type MapHeaders map[string]string

func (m MapHeaders) Get(key string) string {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// ClientIP picks the client address: first X-Forwarded-For hop, then
// X-Real-IP, then CF-Connecting-IP, else SentinelIP. X-Test-IP wins when
// allowTestHeader is set, which is never the case in production.
func ClientIP(h Headers, allowTestHeader bool) string {
	if allowTestHeader {
		if ip := strings.TrimSpace(h.Get(headerTestIP)); ip != "" {
			return ip
		}
	}
	if fwd := h.Get(headerForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(h.Get(headerRealIP)); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(h.Get(headerCFConnectedIP)); ip != "" {
		return ip
	}
	return SentinelIP
}

// IPHasher turns a raw address into a fixed-length one-way digest.
type IPHasher interface {
	Hash(ip string) string
}

// SHA256Hasher hex-encodes SHA-256 of the address, or HMAC-SHA256 when Key is set.
type SHA256Hasher struct {
	Key []byte
}

func (h SHA256Hasher) Hash(ip string) string {
	if len(h.Key) == 0 {
		sum := sha256.Sum256([]byte(ip))
		return hex.EncodeToString(sum[:])
	}
	mac := hmac.New(sha256.New, h.Key)
	mac.Write([]byte(ip))
	return hex.EncodeToString(mac.Sum(nil))
}
