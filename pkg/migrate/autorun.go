package migrate

import (
	"context"
	"fmt"

	"github.com/flashmarket/storefront/pkg/config"
	"github.com/flashmarket/storefront/pkg/db"
	"github.com/flashmarket/storefront/pkg/logger"
)

// ShouldAutoRun reports whether the api applies migrations on boot: always
// for the local sqlite file, and in dev when STOREFRONT_AUTO_MIGRATE is set.
// Deployed environments migrate with cmd/migrate.
func ShouldAutoRun(cfg *config.Config) bool {
	if cfg.FeatureFlags.UseSQLite {
		return true
	}
	return cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// MaybeRun applies pending migrations when ShouldAutoRun allows it.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !ShouldAutoRun(cfg) {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}

	ctx = logg.WithField(ctx, "dialect", client.Dialect())
	applied, err := Up(ctx, sqlDB, client.Dialect())
	for _, r := range applied {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     r.Version,
			"file":        r.File,
			"duration_ms": r.Duration.Milliseconds(),
		}), "migrate.applied")
	}
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "applied", len(applied)), "migrate.up_to_date")
	return nil
}
