// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Store     StoreConfig     `koanf:"store"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Game      GameConfig      `koanf:"game"`
	Auction   AuctionConfig   `koanf:"auction"`
	Chain     ChainConfig     `koanf:"chain"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type StoreConfig struct {
	Driver      string `koanf:"driver"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type GameConfig struct {
	AdminKey       string               `koanf:"admin_key"`
	DefaultPrices  DefaultPricesConfig  `koanf:"default_prices"`
	DurationLimits DurationLimitsConfig `koanf:"duration_limits"`
}

// DefaultPricesConfig holds decimal strings so no precision is lost in the
// yaml/env round trip.
type DefaultPricesConfig struct {
	Standard string `koanf:"standard"`
	Plus     string `koanf:"plus"`
	Premium  string `koanf:"premium"`
}

type DurationLimitsConfig struct {
	MinHours int `koanf:"min_hours"`
	MaxHours int `koanf:"max_hours"`
}

type AuctionConfig struct {
	RetryAttempts        int           `koanf:"retry_attempts"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
}

type ChainConfig struct {
	Enabled        bool          `koanf:"enabled"`
	NATSURL        string        `koanf:"nats_url"`
	Stream         string        `koanf:"stream"`
	SubjectPrefix  string        `koanf:"subject_prefix"`
	Workers        int           `koanf:"workers"`
	QueueSize      int           `koanf:"queue_size"`
	MaxRetries     uint64        `koanf:"max_retries"`
	PublishTimeout time.Duration `koanf:"publish_timeout"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Flag NFT Backend",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8000,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"store.driver":       StoreDriverPostgres,
		"store.auto_migrate": true,

		"rate_limit.requests": 120,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    30,

		"cors.allowed_origins": []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Admin-Key",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "flagnft-backend",

		"game.default_prices.standard":  "0.01",
		"game.default_prices.plus":      "0.02",
		"game.default_prices.premium":   "0.05",
		"game.duration_limits.min_hours": 1,
		"game.duration_limits.max_hours": 168,

		"auction.retry_attempts":         5,
		"auction.retry_initial_interval": "20ms",

		"chain.enabled":         false,
		"chain.stream":          "FLAGNFT",
		"chain.subject_prefix":  "flagnft.chain",
		"chain.workers":         4,
		"chain.queue_size":      256,
		"chain.max_retries":     5,
		"chain.publish_timeout": "5s",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"STORE_DRIVER":                "store.driver",
	"STORE_AUTO_MIGRATE":          "store.auto_migrate",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"ADMIN_API_KEY":               "game.admin_key",
	"DEFAULT_STANDARD_PRICE":      "game.default_prices.standard",
	"DEFAULT_PLUS_PRICE":          "game.default_prices.plus",
	"DEFAULT_PREMIUM_PRICE":       "game.default_prices.premium",
	"AUCTION_MIN_HOURS":           "game.duration_limits.min_hours",
	"AUCTION_MAX_HOURS":           "game.duration_limits.max_hours",
	"AUCTION_RETRY_ATTEMPTS":      "auction.retry_attempts",
	"CHAIN_ENABLED":               "chain.enabled",
	"NATS_URL":                    "chain.nats_url",
	"NATS_STREAM":                 "chain.stream",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q",
			StoreDriverPostgres, StoreDriverMemory, c.Store.Driver)
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		if c.Game.AdminKey == "" {
			return fmt.Errorf("ADMIN_API_KEY is required in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	limits := c.Game.DurationLimits
	if limits.MinHours < 1 || limits.MaxHours < limits.MinHours {
		return fmt.Errorf(
			"game.duration_limits must satisfy 1 <= min_hours <= max_hours",
		)
	}

	for _, category := range []string{"standard", "plus", "premium"} {
		if _, err := c.Game.DefaultPrice(category); err != nil {
			return err
		}
	}

	if c.Auction.RetryAttempts < 1 {
		return fmt.Errorf("auction.retry_attempts must be at least 1")
	}

	if c.Chain.Enabled && c.Chain.Workers < 1 {
		return fmt.Errorf("chain.workers must be at least 1")
	}

	return nil
}

// DefaultPrice returns the configured price for a flag category. Unknown
// categories fall back to the standard price.
func (g GameConfig) DefaultPrice(category string) (decimal.Decimal, error) {
	raw := g.DefaultPrices.Standard
	switch category {
	case "plus":
		raw = g.DefaultPrices.Plus
	case "premium":
		raw = g.DefaultPrices.Premium
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf(
			"game.default_prices.%s: %w", category, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf(
			"game.default_prices.%s must not be negative", category)
	}

	return price, nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
