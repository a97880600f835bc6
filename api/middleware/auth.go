package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rvillegas/onboardtrack-backend/api/responses"
	pkgAuth "github.com/rvillegas/onboardtrack-backend/pkg/auth"
	"github.com/rvillegas/onboardtrack-backend/pkg/config"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
	"github.com/rvillegas/onboardtrack-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the admin
// identity. The admin id doubles as the notification scope.
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

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			adminID := claims.AdminID.String()
			ctx := context.WithValue(r.Context(), ctxAdminID, adminID)
			ctx = context.WithValue(ctx, ctxScope, adminID)

			if logg != nil {
				ctx = logg.WithField(ctx, "admin_id", adminID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
