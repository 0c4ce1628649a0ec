package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sifan077/PowerBio/config"
	appcache "github.com/sifan077/PowerBio/internal/app/cache"
	"github.com/sifan077/PowerBio/internal/app/enrich"
	"github.com/sifan077/PowerBio/internal/app/geo"
	apprepository "github.com/sifan077/PowerBio/internal/app/repository"
	appserver "github.com/sifan077/PowerBio/internal/app/server"
	appservice "github.com/sifan077/PowerBio/internal/app/service"
	httpUtil "github.com/sifan077/PowerBio/internal/http/util"
	"github.com/sifan077/PowerBio/internal/infra/logger"
	infraNATS "github.com/sifan077/PowerBio/internal/infra/nats"
	infraPostgres "github.com/sifan077/PowerBio/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/PowerBio/internal/infra/prometheus"
	infraRedis "github.com/sifan077/PowerBio/internal/infra/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.ConfigFromEnv("powerbio", isDev))
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("env", cfg.App.Env),
		zap.String("addr", cfg.App.Addr),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
		zap.String("geo_provider", cfg.Geo.Provider),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.Migrate(ctx, gormDB); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	if cfg.Prometheus.Enabled {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server", zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	}

	// Storage
	linkRepo := apprepository.NewShortLinkRepository(gormDB)
	eventRepo := apprepository.NewAnalyticsEventRepository(gormDB, pool)
	profiles := apprepository.NewProfileDirectory(gormDB)

	linkCache := appcache.NewLinkCache(
		appcache.NewRedisStore(redisClient, cfg.Redis.OpTimeout),
		cfg.Cache.LinkTTL,
		log.Named("cache"),
	)

	links := appservice.NewShortLinkService(appservice.ShortLinkDeps{
		Links:       linkRepo,
		Profiles:    profiles,
		Cache:       linkCache,
		FrontendURL: cfg.App.FrontendURL,
	})

	// Click counting: a local worker pool always exists; with NATS enabled it
	// only takes over when JetStream refuses a publish.
	applier := appservice.NewClickApplier(links, linkCache, log.Named("clicks"))
	localQueue := appservice.NewLocalClickQueue(applier, cfg.Counter.Workers, cfg.Counter.Buffer, log.Named("clicks"))
	defer localQueue.Close()

	var clicks appservice.ClickScheduler = localQueue
	if cfg.NATS.Enabled {
		natsConn, js, err := infraNATS.Connect(cfg.NATS, log.Named("nats"))
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()

		consumer := appservice.NewClickConsumer(js, applier, log.Named("clicks"))
		if err := consumer.Start(); err != nil {
			log.Fatal("Failed to start click consumer", zap.Error(err))
		}
		defer consumer.Stop()

		clicks = appservice.NewClickPublisher(js, localQueue, log.Named("clicks"))
		log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))
	}

	resolver := appservice.NewResolver(appservice.ResolverDeps{
		Cache:  linkCache,
		Links:  links,
		Clicks: clicks,
		Logger: log.Named("resolver"),
	})

	locator, err := newLocator(cfg.Geo, log.Named("geo"))
	if err != nil {
		log.Fatal("Failed to configure geolocation", zap.Error(err))
	}

	analytics := appservice.NewAnalyticsService(appservice.AnalyticsDeps{
		Events:   eventRepo,
		Profiles: profiles,
		Enricher: enrich.New(enrich.Options{
			Hasher:            enrich.SHA256Hasher{Key: []byte(cfg.App.IPHashSalt)},
			Locator:           locator,
			AllowTestIPHeader: cfg.App.TrustTestIPHeader(),
			Logger:            log.Named("enrich"),
		}),
		Logger: log.Named("analytics"),
	})

	server := appserver.New(appserver.Dependencies{
		Logger:             log,
		Redis:              redisClient,
		Resolver:           resolver,
		Links:              links,
		Analytics:          analytics,
		Auth:               httpUtil.NewAccessTokens([]byte(cfg.Auth.AccessSecret), cfg.Auth.AccessTTL),
		PublicURL:          cfg.App.PublicURL,
		AllowOrigin:        cfg.App.FrontendURL,
		TrustTestIPHeader:  cfg.App.TrustTestIPHeader(),
		AnalyticsPerMinute: cfg.RateLimit.AnalyticsPerMinute,
	})

	go func() {
		<-ctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting HTTP server", zap.String("addr", cfg.App.Addr))
	if err := server.Listen(cfg.App.Addr); err != nil {
		log.Error("Fiber server exited", zap.Error(err))
	}
}

func newLocator(cfg config.GeoConfig, log *zap.Logger) (geo.Locator, error) {
	switch cfg.Provider {
	case "", "none":
		return geo.NopLocator{}, nil
	case "ipapi":
		return geo.NewIPAPIProvider(cfg, log), nil
	default:
		return nil, errors.New("unknown geo provider " + cfg.Provider)
	}
}
