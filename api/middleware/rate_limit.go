package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/restockhq/restock-backend/api/responses"
	"github.com/restockhq/restock-backend/pkg/config"
	pkgerrors "github.com/restockhq/restock-backend/pkg/errors"
	"github.com/restockhq/restock-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

var mutatingMethods = map[string]struct{}{
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// WriteRateLimit caps mutating calls per authenticated user inside a fixed
// window. A limiter outage lets the request through; throttling is a
// protection, not a gate.
func WriteRateLimit(cfg config.RateLimitConfig, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.WriteLimit <= 0 || cfg.WriteWindow <= 0 || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := mutatingMethods[r.Method]; !ok {
				next.ServeHTTP(w, r)
				return
			}

			userID := UserIDFromContext(r.Context())
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			scope := fmt.Sprintf("write:%s", userID)
			allowed, count, err := store.FixedWindowAllow(r.Context(), scope, cfg.WriteLimit, cfg.WriteWindow)
			if err != nil {
				if logg != nil {
					logg.Error(r.Context(), "rate limiter unavailable", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{"rate_count": count})
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "write limit reached, slow down"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
