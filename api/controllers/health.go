package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/restockhq/restock-backend/api/responses"
	"github.com/restockhq/restock-backend/pkg/config"
	"github.com/restockhq/restock-backend/pkg/logger"
)

const envHeader = "X-Restock-Env"

// Pinger is the connectivity probe the readiness check runs per dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		probe := func(name string, p Pinger) {
			if p == nil {
				checks[name] = "skipped"
				return
			}
			if err := p.Ping(ctx); err != nil {
				healthy = false
				checks[name] = "down"
				if logg != nil {
					logg.Error(ctx, "readiness probe failed: "+name, err)
				}
				return
			}
			checks[name] = "up"
		}

		probe("database", db)
		probe("redis", cache)

		status := http.StatusOK
		state := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	}
}
