package prometheus

import (
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "powerbio"

var (
	// RedirectsTotal counts /r/{code} outcomes: hit, miss, not_found, error.
	RedirectsTotal = promauto.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "redirects_total",
		Help:      "Short link redirects by resolution outcome.",
	}, []string{"result"})

	// CacheErrorsTotal counts absorbed cache backend failures per operation.
	CacheErrorsTotal = promauto.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "cache_errors_total",
		Help:      "Cache backend failures treated as misses.",
	}, []string{"op"})

	// ClickUpdatesTotal counts asynchronous click-count updates: ok, failed, dropped.
	ClickUpdatesTotal = promauto.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "click_updates_total",
		Help:      "Asynchronous short link click counter updates.",
	}, []string{"result"})

	// EventsIngestedTotal counts persisted analytics events per kind.
	EventsIngestedTotal = promauto.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "analytics_events_total",
		Help:      "Analytics events written to the store.",
	}, []string{"kind"})

	// GeoLookupsTotal counts geolocation lookups: ok, skipped, failed, rejected.
	GeoLookupsTotal = promauto.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "geo_lookups_total",
		Help:      "Geolocation lookups by outcome.",
	}, []string{"result"})

	// CodeCollisionsTotal counts short code candidates rejected as taken.
	CodeCollisionsTotal = promauto.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "short_code_collisions_total",
		Help:      "Generated short code candidates that were already taken.",
	})

	// SummarizeDuration observes analytics overview computation latency.
	SummarizeDuration = promauto.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "analytics_summarize_seconds",
		Help:      "Time spent loading and aggregating an analytics overview.",
		Buckets:   prom.DefBuckets,
	})
)
