package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pokuclick/aggregator"
	"pokuclick/autocert"
	"pokuclick/config"
	"pokuclick/forwarder"
	"pokuclick/handler"
	"pokuclick/initialize"
	"pokuclick/interfaces"
	"pokuclick/middleware"
	"pokuclick/services"
	"pokuclick/storage/memory"
	"pokuclick/storage/redis"
	"pokuclick/storage/sqlite"
)

const configFile = "config.yaml"

var logger *zap.Logger

func initLogger(logLevel string) {
	var err error

	switch logLevel {
	case "production":
		logger, err = zap.NewProduction()
	case "development":
		logger, err = zap.NewDevelopment()
	default:
		// Default to development if not specified or unknown
		logger, err = zap.NewDevelopment()
		fmt.Fprintf(os.Stderr, "Unknown log_level '%s' in config. Defaulting to development.\n", logLevel)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	// 1. Create config.yaml and working directories on first run
	if err := initialize.CheckConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize configuration: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		// Cannot use logger yet
		fmt.Fprintf(os.Stderr, "Failed to load initial config: %v\n", err)
		os.Exit(1)
	}

	initLogger(cfg.LogLevel)
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to sync logger: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("PokuClick stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// 2. Local persistence
	local, closeLocal, err := openLocalStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeLocal()

	// 3. Shared aggregate
	remote, closeRemote, err := openRemoteStore(ctx, cfg.Remote)
	if err != nil {
		return err
	}
	defer closeRemote()

	// 4. Engine
	presenter := handler.NewStatePresenter(logger)
	agg, err := aggregator.New(aggregator.OptionsFromConfig(cfg), aggregator.Deps{
		Local:         local,
		Remote:        remote,
		Presenter:     presenter,
		BusyListeners: []interfaces.BusyListener{presenter},
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create aggregator: %w", err)
	}

	// 5. HTTP routes
	throttler := middleware.NewClickThrottler(cfg.Throttle, logger)
	defer throttler.Stop()

	routes := handler.Options{ClickMiddleware: throttler.Throttle}
	if cfg.Server.ServeAggregate {
		routes.Aggregate = remote
	}
	h := handler.New(agg, presenter, routes, logger)

	var certManager *autocert.Manager
	if len(cfg.Server.Domains) > 0 {
		certManager = autocert.NewManager(cfg.Server.Domains, cfg.Server.CertDir)
	}

	// 6. Config hot reload
	go func() {
		err := config.Watch(ctx, configFile, logger, func(next *config.Config) {
			agg.SetRateThresholds(next.Effects.RateHigh, next.Effects.RateLow)
			if certManager != nil {
				certManager.UpdateDomains(next.Server.Domains)
			}
			logger.Info("Configuration reloaded",
				zap.Float64("rate_high", next.Effects.RateHigh),
				zap.Float64("rate_low", next.Effects.RateLow))
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("Config watcher stopped", zap.Error(err))
		}
	}()

	// 7. Background services
	tickInterval := config.ParseDuration(cfg.Engine.TickInterval, 100*time.Millisecond)
	sm := services.NewServiceManager(logger)
	sm.AddService("engine-ticker", aggregator.NewTicker(agg, tickInterval, logger))
	sm.AddService("http", services.NewHTTPServer(cfg.Server.Addr, cfg.Server.ACMEAddr, h, certManager, logger))

	svcCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sm.StartAll(svcCtx)

	// Any service failing takes the rest down with it
	done := make(chan error, 1)
	go func() { done <- sm.WaitForAll() }()

	var svcErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
		cancel()
		svcErr = <-done
	case svcErr = <-done:
		cancel()
	}

	// 8. Push whatever is left before exiting
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer closeCancel()
	if err := agg.Close(closeCtx); err != nil {
		logger.Warn("Final reconciliation failed, unsent clicks stay in the flush counter", zap.Error(err))
	}
	return svcErr
}

func openLocalStore(cfg config.StorageConfig) (interfaces.KeyValueStore, func(), error) {
	if cfg.SQLitePath == "" {
		logger.Warn("No sqlite_path configured, counters will not survive restarts")
		return memory.NewKeyValueStore(), func() {}, nil
	}
	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local store: %w", err)
	}
	logger.Info("Local store opened", zap.String("path", cfg.SQLitePath))
	return store, closeQuietly(store), nil
}

func openRemoteStore(ctx context.Context, cfg config.RemoteConfig) (interfaces.AggregateStore, func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := redis.New(client, cfg.Redis.Key)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			// Reconciliation retries every cycle, so an unreachable Redis is not fatal
			logger.Warn("Redis not reachable yet", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		logger.Info("Using Redis aggregate", zap.String("addr", cfg.Redis.Addr), zap.String("key", cfg.Redis.Key))
		return store, closeQuietly(client), nil
	case config.BackendHTTP:
		timeout := config.ParseDuration(cfg.HTTP.Timeout, 5*time.Second)
		logger.Info("Using HTTP aggregate", zap.String("url", cfg.HTTP.URL))
		return forwarder.NewClient(cfg.HTTP.URL, timeout, logger), func() {}, nil
	default:
		logger.Info("Using in-memory aggregate")
		return memory.NewAggregateStore(), func() {}, nil
	}
}

func closeQuietly(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
}
