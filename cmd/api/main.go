// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/flagnft-backend/internal/admin"
	"github.com/carterperez-dev/flagnft-backend/internal/auction"
	"github.com/carterperez-dev/flagnft-backend/internal/chain"
	"github.com/carterperez-dev/flagnft-backend/internal/clock"
	"github.com/carterperez-dev/flagnft-backend/internal/config"
	"github.com/carterperez-dev/flagnft-backend/internal/core"
	flagnft "github.com/carterperez-dev/flagnft-backend/internal/flag"
	"github.com/carterperez-dev/flagnft-backend/internal/health"
	"github.com/carterperez-dev/flagnft-backend/internal/middleware"
	"github.com/carterperez-dev/flagnft-backend/internal/server"
	"github.com/carterperez-dev/flagnft-backend/internal/store"
	"github.com/carterperez-dev/flagnft-backend/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"store", cfg.Store.Driver,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	st, dbStats, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redis.Enabled() {
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)
	} else {
		logger.Info("redis not configured, rate limiting in process")
	}

	emitter, closeEmitter, err := openEmitter(ctx, cfg.Chain, logger)
	if err != nil {
		return err
	}

	retry := store.RetryPolicy{
		Attempts:        cfg.Auction.RetryAttempts,
		InitialInterval: cfg.Auction.RetryInitialInterval,
	}

	userSvc := user.NewService(st)
	userHandler := user.NewHandler(userSvc)

	flagSvc := flagnft.NewService(st, cfg.Game, retry, logger)
	flagHandler := flagnft.NewHandler(flagSvc)

	auctionSvc := auction.NewService(st, clock.System{}, emitter, auction.Config{
		MinHours: cfg.Game.DurationLimits.MinHours,
		MaxHours: cfg.Game.DurationLimits.MaxHours,
		Retry:    retry,
	}, logger)
	auctionHandler := auction.NewHandler(auctionSvc)

	checks := []health.Check{{Name: "store", Checker: st}}
	if redis.Enabled() {
		checks = append(checks, health.Check{Name: "redis", Checker: redis})
	}
	healthHandler := health.NewHandler(checks...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Store:      st,
		DBStats:    dbStats,
		RedisStats: redis.PoolStats,
		RedisPing:  redis.Ping,
		Consoles:   []admin.ConsoleRoutes{flagHandler},
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Route("/v1", func(r chi.Router) {
		auctionHandler.RegisterRoutes(r)
		flagHandler.RegisterRoutes(r)
		userHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r, middleware.RequireAdminKey(cfg.Game.AdminKey))
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := closeEmitter(); err != nil {
		logger.Error("chain dispatcher close error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := st.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// openStore returns the configured store and, for postgres, the pool
// stats reported by the admin console.
func openStore(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (store.Store, func() sql.DBStats, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, state is lost on restart")
		return store.NewMemory(clock.System{}), nil, nil
	}

	if cfg.Store.AutoMigrate {
		if err := store.Migrate(cfg.Database.URL, logger); err != nil {
			return nil, nil, err
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	return store.NewPostgres(db), db.Stats, nil
}

// openEmitter wires settlement events to NATS JetStream when a URL is
// configured, to the log otherwise, or nowhere when registration is off.
func openEmitter(
	ctx context.Context,
	cfg config.ChainConfig,
	logger *slog.Logger,
) (chain.Emitter, func() error, error) {
	if !cfg.Enabled {
		return chain.Discard{}, func() error { return nil }, nil
	}

	var sink chain.Sink = chain.NewLogSink(logger)
	if cfg.NATSURL != "" {
		nats, err := chain.NewNATSSink(ctx, chain.NATSConfig{
			URL:           cfg.NATSURL,
			Stream:        cfg.Stream,
			SubjectPrefix: cfg.SubjectPrefix,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open chain sink: %w", err)
		}
		sink = nats
		logger.Info("chain events publishing to nats", "stream", cfg.Stream)
	}

	d := chain.NewDispatcher(sink, chain.DispatcherOptions{
		Workers:        cfg.Workers,
		QueueSize:      cfg.QueueSize,
		MaxRetries:     cfg.MaxRetries,
		PublishTimeout: cfg.PublishTimeout,
	}, logger)

	return d, d.Close, nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
