package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App AppConfig `mapstructure:"app"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	Cache     CacheConfig     `mapstructure:"cache"`
	Geo       GeoConfig       `mapstructure:"geo"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Counter   CounterConfig   `mapstructure:"counter"`
}

type AppConfig struct {
	Env         string `mapstructure:"env"`
	Addr        string `mapstructure:"addr"`
	PublicURL   string `mapstructure:"public_url"`
	FrontendURL string `mapstructure:"frontend_url"`
	// IPHashSalt keys the visitor IP digest; empty falls back to plain SHA-256.
	IPHashSalt string `mapstructure:"ip_hash_salt"`
	// TestIPHeader lets X-Test-IP override the client address. Off unless set,
	// and never honoured in production.
	TestIPHeader bool `mapstructure:"test_ip_header"`
}

// Production reports whether the service runs with production semantics.
func (c AppConfig) Production() bool {
	return c.Env == "production"
}

// TrustTestIPHeader reports whether X-Test-IP may replace the client address.
func (c AppConfig) TrustTestIPHeader() bool {
	return c.TestIPHeader && !c.Production()
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// OpTimeout bounds a single cache round-trip; slower calls count as misses.
	OpTimeout time.Duration `mapstructure:"op_timeout"`
}

type NATSConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	MonitorPort int    `mapstructure:"monitor_port"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type CacheConfig struct {
	LinkTTL time.Duration `mapstructure:"link_ttl"`
}

type GeoConfig struct {
	// Provider is "ipapi" or "none".
	Provider         string        `mapstructure:"provider"`
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RequestsPerMin   int           `mapstructure:"requests_per_min"`
	BreakerTimeout   time.Duration `mapstructure:"breaker_timeout"`
	BreakerMinSample uint32        `mapstructure:"breaker_min_sample"`
}

type RateLimitConfig struct {
	AnalyticsPerMinute int `mapstructure:"analytics_per_minute"`
}

type AuthConfig struct {
	// AccessSecret is the HS256 key shared with the account service.
	AccessSecret string `mapstructure:"access_secret"`
	// AccessTTL only applies to tokens issued by tooling.
	AccessTTL time.Duration `mapstructure:"access_ttl"`
}

type CounterConfig struct {
	Workers int `mapstructure:"workers"`
	Buffer  int `mapstructure:"buffer"`
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.addr", ":8080")
	v.SetDefault("app.public_url", "http://localhost:8080")
	v.SetDefault("app.frontend_url", "http://localhost:3000")
	v.SetDefault("app.test_ip_header", false)

	v.SetDefault("redis.op_timeout", 250*time.Millisecond)

	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.port", 9090)

	v.SetDefault("cache.link_ttl", 10*time.Minute)

	v.SetDefault("geo.provider", "ipapi")
	v.SetDefault("geo.base_url", "http://ip-api.com/json")
	v.SetDefault("geo.timeout", 2*time.Second)
	v.SetDefault("geo.requests_per_min", 45)
	v.SetDefault("geo.breaker_timeout", 2*time.Minute)
	v.SetDefault("geo.breaker_min_sample", 10)

	v.SetDefault("rate_limit.analytics_per_minute", 100)

	v.SetDefault("auth.access_ttl", time.Hour)

	v.SetDefault("counter.workers", 4)
	v.SetDefault("counter.buffer", 1024)
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.addr", "APP_ADDR")
	v.BindEnv("app.public_url", "PUBLIC_URL")
	v.BindEnv("app.frontend_url", "FRONTEND_URL")
	v.BindEnv("app.ip_hash_salt", "IP_HASH_SALT")
	v.BindEnv("app.test_ip_header", "TRUST_TEST_IP_HEADER")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")
	v.BindEnv("postgres.max_conns", "PG_MAX_CONNS")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.enabled", "NATS_ENABLED")
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")
	v.BindEnv("nats.monitor_port", "NATS_MONITOR_PORT")

	// Prometheus
	v.BindEnv("prometheus.enabled", "PROM_ENABLED")
	v.BindEnv("prometheus.port", "PROM_PORT")

	v.BindEnv("geo.provider", "GEO_PROVIDER")
	v.BindEnv("auth.access_secret", "ACCESS_SECRET")
}
