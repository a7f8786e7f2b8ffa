package middleware

import (
	"net/http"
	"strings"

	"github.com/restockhq/restock-backend/api/responses"
	pkgauth "github.com/restockhq/restock-backend/pkg/auth"
	"github.com/restockhq/restock-backend/pkg/config"
	pkgerrors "github.com/restockhq/restock-backend/pkg/errors"
	"github.com/restockhq/restock-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// operator's user and business ids.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = WithBusinessID(ctx, claims.BusinessID.String())

			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
				ctx = logg.WithBusinessID(ctx, claims.BusinessID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
