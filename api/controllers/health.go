package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/roperito/roperito-backend/api/responses"
	"github.com/roperito/roperito-backend/pkg/config"
	"github.com/roperito/roperito-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Roperito-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// HealthReady pings every dependency and answers 503 when any of them fails.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Roperito-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		failed := false
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "missing"
				failed = true
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "dependency", name), "readiness check failed: "+err.Error())
				}
				checks[name] = "down"
				failed = true
				continue
			}
			checks[name] = "ok"
		}
		if failed {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "checks": checks})
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
