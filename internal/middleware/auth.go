package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ruralpay/atm/internal/services"
)

type contextKey string

const claimsKey contextKey = "sessionClaims"

// TokenParser validates bearer tokens
type TokenParser interface {
	Parse(ctx context.Context, token string) (*services.SessionClaims, error)
}

// SessionAuth requires a valid, unrevoked session token and puts its claims on the context
func SessionAuth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				services.SendErrorResponse(w, "Authorization header required", http.StatusUnauthorized, nil)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				services.SendErrorResponse(w, "Invalid authorization header format", http.StatusUnauthorized, nil)
				return
			}

			claims, err := tokens.Parse(r.Context(), parts[1])
			if err != nil {
				if !errors.Is(err, services.ErrInvalidToken) && !errors.Is(err, services.ErrTokenRevoked) {
					log.Printf("[AUTH] Token check failed: %v", err)
					services.SendErrorResponse(w, "Unable to verify session", http.StatusServiceUnavailable, nil)
					return
				}
				services.SendErrorResponse(w, "Invalid token", http.StatusUnauthorized, nil)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the session claims set by SessionAuth
func ClaimsFromContext(ctx context.Context) (*services.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*services.SessionClaims)
	return claims, ok
}
