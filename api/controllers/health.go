package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flashmarket/storefront/api/responses"
	"github.com/flashmarket/storefront/pkg/config"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency concurrently and reports the ones
// that failed.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			failed = map[string]string{}
		)
		var g errgroup.Group
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			name, dep := name, dep
			g.Go(func() error {
				if err := dep.Ping(ctx); err != nil {
					mu.Lock()
					failed[name] = err.Error()
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()

		if len(failed) > 0 {
			details := make(map[string]any, len(failed))
			for name, reason := range failed {
				details[name] = reason
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies not ready").WithDetails(details))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
