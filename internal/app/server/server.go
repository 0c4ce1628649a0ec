package server

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PowerBio/internal/app/service"
	inthttp "github.com/sifan077/PowerBio/internal/http/handler"
	"github.com/sifan077/PowerBio/internal/http/middleware"
	"go.uber.org/zap"
)

// Dependencies bundles the services and infrastructure the HTTP server needs.
type Dependencies struct {
	Logger    *zap.Logger
	Redis     redis.UniversalClient
	Resolver  inthttp.Resolver
	Links     service.ShortLinkService
	Analytics service.AnalyticsService
	Auth      middleware.Authenticator

	PublicURL   string
	AllowOrigin string
	// TrustTestIPHeader keys the rate limiter by X-Test-IP when present.
	TrustTestIPHeader bool
	// AnalyticsPerMinute limits ingestion per client IP; zero disables it.
	AnalyticsPerMinute int
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with all routes registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName: "PowerBio",
		// Handlers hand request strings to background work; they must not
		// alias fasthttp buffers.
		Immutable:             true,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Recovery(deps.Logger))
	app.Use(middleware.Logger(deps.Logger))
	app.Use(middleware.CORS(deps.AllowOrigin))

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// App exposes the Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	var auth fiber.Handler
	if s.deps.Auth != nil {
		auth = middleware.Auth(s.deps.Auth)
	}

	var rateLimit fiber.Handler
	if s.deps.Redis != nil && s.deps.AnalyticsPerMinute > 0 {
		cfg := middleware.DefaultRateLimitConfig()
		cfg.MaxRequests = s.deps.AnalyticsPerMinute
		cfg.KeyPrefix = "ratelimit:analytics"
		cfg.TrustTestIPHeader = s.deps.TrustTestIPHeader
		rateLimit = middleware.RateLimit(s.deps.Redis, cfg, s.deps.Logger)
	}

	inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:   s.deps.Logger,
		Resolver: s.deps.Resolver,
	}).Register(s.app)

	inthttp.NewAnalyticsHandler(inthttp.AnalyticsDeps{
		Logger:    s.deps.Logger,
		Analytics: s.deps.Analytics,
		Auth:      auth,
		RateLimit: rateLimit,
	}).Register(s.app)

	if s.deps.Links != nil {
		inthttp.NewAPIHandler(inthttp.APIDeps{
			Logger:    s.deps.Logger,
			Links:     s.deps.Links,
			PublicURL: s.deps.PublicURL,
			Auth:      auth,
		}).Register(s.app)
	}
}
