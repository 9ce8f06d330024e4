package middlewares

import (
	"context"
	"net/http"
	"strings"

	"darsly/internal/apperrors"
	"darsly/internal/config"
	"darsly/internal/models"
	"darsly/internal/utils"
)

// AuthMiddleware validates the Bearer access token and stashes the caller's
// identity in the request context. Temp tokens are rejected here: their
// purpose claim does not match, so a pending 2FA login cannot reach any
// protected endpoint.
func AuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				apperrors.WriteError(w, apperrors.ErrInvalidToken)
				return
			}
			if !strings.HasPrefix(header, "Bearer ") {
				apperrors.WriteError(w, apperrors.ErrInvalidToken)
				return
			}
			tokenString := header[len("Bearer "):]

			claims, err := utils.ParseToken(cfg.JWTSecret, tokenString, utils.TokenPurposeAccess)
			if err != nil {
				apperrors.WriteError(w, apperrors.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), utils.ContextUserID, claims.ID)
			ctx = context.WithValue(ctx, utils.ContextRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin sits behind AuthMiddleware and rejects non-admin callers.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if utils.GetRoleFromContext(r) != models.RoleAdmin {
			apperrors.WriteError(w, apperrors.Forbidden("admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
