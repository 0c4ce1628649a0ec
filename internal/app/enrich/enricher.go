// Package enrich derives analytics attributes from an inbound request: hashed
// client IP, device class, parsed user agent, traffic source, UTM fields and a
// coarse location. Nothing here fails a request.
package enrich

import (
	"context"
	"errors"

	"github.com/sifan077/PowerBio/internal/app/geo"
	"github.com/sifan077/PowerBio/internal/app/model"
	metrics "github.com/sifan077/PowerBio/internal/infra/prometheus"
	"go.uber.org/zap"
)

// Request is the raw input of one view or click.
type Request struct {
	Headers Headers
	// DestinationURL is the optional page URL carrying UTM parameters.
	DestinationURL string
	Kind           model.EventKind
}

// Enricher turns a Request into an AnalyticsEvent payload.
type Enricher struct {
	hasher          IPHasher
	locator         geo.Locator
	allowTestHeader bool
	logger          *zap.Logger
}

// Options configures an Enricher.
type Options struct {
	Hasher  IPHasher
	Locator geo.Locator
	// AllowTestIPHeader honours X-Test-IP; keep false in production.
	AllowTestIPHeader bool
	Logger            *zap.Logger
}

func New(opts Options) *Enricher {
	e := &Enricher{
		hasher:          opts.Hasher,
		locator:         opts.Locator,
		allowTestHeader: opts.AllowTestIPHeader,
		logger:          opts.Logger,
	}
	if e.hasher == nil {
		e.hasher = SHA256Hasher{}
	}
	if e.locator == nil {
		e.locator = geo.NopLocator{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Enrich builds the event payload. ID, profile, block and timestamp are left
// for the caller. The raw IP is used for geolocation and then discarded.
func (e *Enricher) Enrich(ctx context.Context, req Request) model.AnalyticsEvent {
	userAgent := req.Headers.Get("User-Agent")
	referrer := req.Headers.Get("Referer")
	if referrer == "" {
		referrer = req.Headers.Get("Referrer")
	}

	ip := ClientIP(req.Headers, e.allowTestHeader)
	utm := ExtractUTM(req.DestinationURL)
	loc := e.locate(ctx, ip)

	event := model.AnalyticsEvent{
		EventType:       req.Kind,
		Referrer:        referrer,
		TrafficSource:   TrafficSource(referrer, utm.Source),
		UserAgent:       userAgent,
		UserAgentParsed: ParseUserAgent(userAgent),
		DeviceType:      DeviceType(userAgent),
		IPHash:          e.hasher.Hash(ip),
		Country:         loc.Country,
		City:            loc.City,
	}
	event.SetUTM(utm)
	return event
}

func (e *Enricher) locate(ctx context.Context, ip string) geo.Location {
	if geo.IsPrivateIP(ip) {
		metrics.GeoLookupsTotal.WithLabelValues("skipped").Inc()
		return geo.Location{}
	}
	loc, err := e.locator.Lookup(ctx, ip)
	if err != nil {
		if !errors.Is(err, geo.ErrNotFound) {
			e.logger.Debug("geolocation lookup failed",
				zap.String("provider", e.locator.Name()),
				zap.Error(err),
			)
		}
		return geo.Location{}
	}
	return loc
}
