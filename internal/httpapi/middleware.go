package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/ChrisWondeFro/vivint-gateway/internal/authsvc"
	"go.uber.org/zap"
)

type ctxUserIDKey struct{}

// AuthMiddleware validates the bearer access token on every protected
// route and attaches the resolved local user id to the request context.
func AuthMiddleware(auth *authsvc.Service, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearer(r)
			if tokenString == "" {
				writeJSON(w, http.StatusUnauthorized, Result[any]{OK: false, Message: "missing bearer token"})
				return
			}
			userID, err := auth.ValidateAccess(r.Context(), tokenString)
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}
