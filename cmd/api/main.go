package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/flashmarket/storefront/api/controllers"
	"github.com/flashmarket/storefront/api/routes"
	"github.com/flashmarket/storefront/internal/backend"
	"github.com/flashmarket/storefront/internal/cart"
	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/checkout"
	"github.com/flashmarket/storefront/internal/flashsale"
	"github.com/flashmarket/storefront/internal/mockdata"
	"github.com/flashmarket/storefront/internal/orders"
	"github.com/flashmarket/storefront/internal/pricing"
	"github.com/flashmarket/storefront/internal/session"
	"github.com/flashmarket/storefront/internal/storefront"
	"github.com/flashmarket/storefront/internal/wishlist"
	"github.com/flashmarket/storefront/pkg/config"
	"github.com/flashmarket/storefront/pkg/db"
	"github.com/flashmarket/storefront/pkg/instance"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/metrics"
	"github.com/flashmarket/storefront/pkg/migrate"
	"github.com/flashmarket/storefront/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRun(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := newRedis(bootCtx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	m := metrics.New(prometheus.DefaultRegisterer)
	policy := pricing.Policy{
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		FlatShippingFee:       cfg.Pricing.FlatShippingFee,
	}
	rules := flashsale.Rules{
		MaxRemaining:  cfg.FlashSale.MaxRemaining,
		MinDiscount:   cfg.FlashSale.MinDiscount,
		LowStockAt:    cfg.FlashSale.LowStockAt,
		AlmostGoneAt:  cfg.FlashSale.AlmostGoneAt,
		BaselineStock: cfg.FlashSale.BaselineStock,
	}

	upstream, err := newBackend(cfg, logg, m, policy)
	if err != nil {
		return err
	}

	svcs, err := buildServices(cfg, logg, m, upstream, dbClient, redisClient, policy, rules)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(bootCtx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"instance":     instance.ID(),
		"backend_mode": cfg.Backend.Mode,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, svcs, routes.Observability{
			Metrics:  m,
			Gatherer: prometheus.DefaultGatherer,
			Pingers: map[string]controllers.Pinger{
				"db":    dbClient,
				"redis": redisClient,
			},
		}),
		// No WriteTimeout: the countdown stream stays open until the sale ends.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	sigCtx, stop := signal.NotifyContext(bootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sigCtx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(bootCtx, shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newRedis(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*redis.Client, error) {
	if cfg.FeatureFlags.MemoryStore {
		logg.Warn(ctx, "using in-process memory store; sessions do not survive restarts")
		return redis.NewMemory(), nil
	}
	return redis.New(ctx, cfg.Redis, logg)
}

func newBackend(cfg *config.Config, logg *logger.Logger, m *metrics.Storefront, policy pricing.Policy) (catalog.Backend, error) {
	if cfg.Backend.IsMock() {
		logg.Warn(context.Background(), "backend running on the in-memory fixture")
		return mockdata.New(
			mockdata.WithLatency(cfg.Backend.MockLatency),
			mockdata.WithPricing(policy),
		), nil
	}
	return backend.New(cfg.Backend, logg, m)
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	m *metrics.Storefront,
	upstream catalog.Backend,
	dbClient *db.Client,
	kv *redis.Client,
	policy pricing.Policy,
	rules flashsale.Rules,
) (routes.Services, error) {
	carts, err := cart.NewService(cart.ServiceParams{
		Persister: cart.NewRedisPersister(kv, cfg.Session.TTL, logg),
		Products:  upstream,
		Pricing:   policy,
		Rules:     rules,
		Metrics:   m,
	})
	if err != nil {
		return routes.Services{}, err
	}

	sessions, err := session.NewService(session.ServiceParams{
		Users:  upstream,
		Store:  kv,
		JWT:    cfg.JWT,
		TTL:    cfg.Session.TTL,
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	receipts := checkout.NewRepository(dbClient.DB())
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Carts:      carts,
		Inventory:  upstream,
		Orders:     upstream,
		Payments:   upstream,
		Receipts:   receipts,
		Holds:      kv,
		Pricing:    policy,
		HoldWindow: cfg.Checkout.HoldWindow,
		Metrics:    m,
		Logger:     logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Source:   upstream,
		Orders:   upstream,
		Receipts: receipts,
		Logger:   logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	wishlistSvc, err := wishlist.NewService(wishlist.ServiceParams{Source: upstream, Gateway: upstream})
	if err != nil {
		return routes.Services{}, err
	}

	storefrontSvc, err := storefront.NewService(storefront.ServiceParams{
		Source:         upstream,
		Inventory:      upstream,
		Rules:          rules,
		FlashSaleLimit: cfg.FlashSale.HomeSectionLimit,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Storefront: storefrontSvc,
		Carts:      carts,
		Sessions:   sessions,
		Checkout:   checkoutSvc,
		Orders:     ordersSvc,
		Wishlist:   wishlistSvc,
	}, nil
}
