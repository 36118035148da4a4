package middleware

import (
	"context"
	"net/http"
	"strings"

	"scuderia-bot/internal/domain"
	"scuderia-bot/pkg/errors"
	"scuderia-bot/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// UserContextKey is the key for user identity in context
	UserContextKey ContextKey = "user"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// TokenValidator validates a gateway bearer token
type TokenValidator interface {
	ValidateToken(tokenString string) (*domain.UserIdentity, error)
}

// Auth creates an authentication middleware that resolves the platform
// identity from the gateway token.
func Auth(validator TokenValidator, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeErrorResponse(w, errors.NewAuthenticationError("Authorization header is required"), logger)
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeErrorResponse(w, errors.NewAuthenticationError("Invalid authorization header format"), logger)
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == "" {
				writeErrorResponse(w, errors.NewAuthenticationError("Token is required"), logger)
				return
			}

			identity, err := validator.ValidateToken(token)
			if err != nil {
				logger.WithError(err).Warn("Token validation failed")
				writeErrorResponse(w, errors.NewAuthenticationError("Invalid or expired token"), logger)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated identity, or nil if the
// request did not pass the Auth middleware.
func UserFromContext(ctx context.Context) *domain.UserIdentity {
	identity, _ := ctx.Value(UserContextKey).(*domain.UserIdentity)
	return identity
}
