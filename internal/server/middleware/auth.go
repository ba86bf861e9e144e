// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// principalKey is the context key for storing the authenticated principal.
const principalKey ContextKey = "principal"

// TokenValidator is an interface for validating JWT tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (PrincipalGetter, error)
}

// PrincipalGetter is an interface for extracting the authenticated principal from token claims.
type PrincipalGetter interface {
	Principal() string
}

// AuthMiddleware creates middleware that validates bearer tokens and adds the principal to the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w)
				return
			}

			// Handle case-insensitive "Bearer" prefix
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(parts[1])
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, claims.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="analytics"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// GetPrincipal extracts the authenticated principal from the request context.
func GetPrincipal(r *http.Request) (string, error) {
	principal, ok := r.Context().Value(principalKey).(string)
	if !ok || principal == "" {
		return "", fmt.Errorf("principal not found in request context")
	}
	return principal, nil
}

// PrincipalKey returns the context key for the principal (for testing purposes).
func PrincipalKey() ContextKey {
	return principalKey
}
