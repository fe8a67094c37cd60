package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mconcas/pantrybot-backend/api/responses"
	"github.com/mconcas/pantrybot-backend/pkg/config"
	pkgerrors "github.com/mconcas/pantrybot-backend/pkg/errors"
	"github.com/mconcas/pantrybot-backend/pkg/logger"
)

// Pinger is the shared readiness contract for backing stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readinessTimeout = 3 * time.Second

// HealthLive reports process liveness only.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PantryBot-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and Redis; a failing dependency makes the
// endpoint report not-ready so the bridge stops routing events here.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP Pinger, redisP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PantryBot-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}

		if err := pingDep(ctx, dbP); err != nil {
			checks["db"] = err.Error()
		}
		if err := pingDep(ctx, redisP); err != nil {
			checks["redis"] = err.Error()
		}

		if len(checks) > 0 {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependencies not ready").WithDetails(checks)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

func pingDep(ctx context.Context, p Pinger) error {
	if p == nil {
		return nil
	}
	return p.Ping(ctx)
}
