package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flashmarket/storefront/internal/backend"
	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/checkout"
	"github.com/flashmarket/storefront/internal/cron"
	"github.com/flashmarket/storefront/internal/mockdata"
	"github.com/flashmarket/storefront/internal/orders"
	"github.com/flashmarket/storefront/pkg/config"
	"github.com/flashmarket/storefront/pkg/db"
	"github.com/flashmarket/storefront/pkg/instance"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/metrics"
	"github.com/flashmarket/storefront/pkg/migrate"
	"github.com/flashmarket/storefront/pkg/redis"
)

const lockKeyFormat = "sf:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.FeatureFlags.MemoryStore {
		redisClient = redis.NewMemory()
	} else {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var upstream catalog.Backend
	if cfg.Backend.IsMock() {
		upstream = mockdata.New(mockdata.WithLatency(cfg.Backend.MockLatency))
	} else {
		upstream, err = backend.New(cfg.Backend, logg, metrics.New(prometheus.DefaultRegisterer))
		if err != nil {
			logg.Error(context.Background(), "failed to create backend client", err)
			os.Exit(1)
		}
	}

	receipts := checkout.NewRepository(dbClient.DB())
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Source:   upstream,
		Orders:   upstream,
		Receipts: receipts,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	statusJob, err := cron.NewOrderStatusSyncJob(ordersSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create order status job", err)
		os.Exit(1)
	}
	retentionJob, err := cron.NewReceiptRetentionJob(cron.ReceiptRetentionJobParams{
		Logger:    logg,
		Receipts:  receipts,
		Retention: cfg.Cron.ReceiptRetention,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create receipt retention job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(statusJob, retentionJob)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:       logg,
		Registry:     registry,
		Lock:         lock,
		Metrics:      metrics.NewJobs(prometheus.DefaultRegisterer),
		Interval:     cfg.Cron.Interval,
		CycleTimeout: lock.TTL(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.ID(),
		"interval": cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
