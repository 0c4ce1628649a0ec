package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/sifan077/PowerBio/config"
	metrics "github.com/sifan077/PowerBio/internal/infra/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrThrottled is returned when the client-side request budget is spent.
var ErrThrottled = errors.New("geo: lookup budget exhausted")

const breakerName = "geo-ipapi"

// IPAPIProvider looks addresses up against the ip-api.com JSON endpoint. Calls
// are throttled to the free-tier budget and guarded by a circuit breaker so a
// failing upstream stops costing ingestion latency.
type IPAPIProvider struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[Location]
	logger  *zap.Logger
}

type ipAPIResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	CountryCode string `json:"countryCode"`
	City        string `json:"city"`
}

// NewIPAPIProvider builds a provider from config, filling unset values with
// free-tier defaults.
func NewIPAPIProvider(cfg config.GeoConfig, logger *zap.Logger) *IPAPIProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://ip-api.com/json"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 45
	}
	minSample := cfg.BreakerMinSample
	if minSample == 0 {
		minSample = 10
	}
	breakerTimeout := cfg.BreakerTimeout
	if breakerTimeout <= 0 {
		breakerTimeout = 2 * time.Minute
	}

	p := &IPAPIProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin),
		logger:  logger,
	}

	p.cb = gobreaker.NewCircuitBreaker[Location](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minSample {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("geo circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return p
}

func (p *IPAPIProvider) Name() string {
	return "ip-api.com"
}

// Lookup resolves ip. Private addresses are rejected without a network call.
func (p *IPAPIProvider) Lookup(ctx context.Context, ip string) (Location, error) {
	if IsPrivateIP(ip) {
		return Location{}, ErrPrivateAddress
	}
	if !p.limiter.Allow() {
		metrics.GeoLookupsTotal.WithLabelValues("rejected").Inc()
		return Location{}, ErrThrottled
	}

	loc, err := p.cb.Execute(func() (Location, error) {
		return p.query(ctx, ip)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.GeoLookupsTotal.WithLabelValues("rejected").Inc()
		} else {
			metrics.GeoLookupsTotal.WithLabelValues("failed").Inc()
		}
		return Location{}, err
	}
	metrics.GeoLookupsTotal.WithLabelValues("ok").Inc()
	return loc, nil
}

func (p *IPAPIProvider) query(ctx context.Context, ip string) (Location, error) {
	url := fmt.Sprintf("%s/%s?fields=status,message,countryCode,city", p.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Location{}, fmt.Errorf("geo: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("geo: query ip-api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geo: ip-api returned status %d", resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, fmt.Errorf("geo: decode ip-api response: %w", err)
	}
	if body.Status != "success" {
		return Location{}, fmt.Errorf("geo: ip-api lookup failed: %s", body.Message)
	}

	return Location{Country: body.CountryCode, City: body.City}, nil
}
