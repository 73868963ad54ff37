package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Dias221467/Employee_Manager/pkg/jwt"
	"github.com/Dias221467/Employee_Manager/pkg/logger"
)

type contextKey string

// UserContextKey stores the validated *jwt.Claims on the request context.
const UserContextKey contextKey = "user"

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if tokenString == authHeader || tokenString == "" {
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := jwt.ValidateToken(tokenString, secret)
			if err != nil {
				logger.Log.WithError(err).Warn("Rejected token")
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
		})
	}
}

// WithUser returns a copy of ctx carrying claims.
func WithUser(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext returns the caller's claims or nil.
func GetUserFromContext(ctx context.Context) *jwt.Claims {
	claims, _ := ctx.Value(UserContextKey).(*jwt.Claims)
	return claims
}
