// Package middleware holds the HTTP middleware that is specific to this
// API, currently the bearer token gate.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"inventario/internal/auth"
)

type contextKey string

const usernameKey = contextKey("username")

// CurrentUser returns the authenticated username stored by RequireUser,
// or "" when the request did not pass through the gate.
func CurrentUser(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  "unauthorized",
	})
}

// RequireUser validates the bearer token and resolves the account before
// the handler runs. Tokens for accounts that no longer exist are rejected.
func RequireUser(tokens *auth.TokenIssuer, users *auth.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "No autenticado")
				return
			}

			tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			username, err := tokens.Validate(tokenString)
			if err != nil {
				unauthorized(w, "Token inválido o expirado")
				return
			}

			exists, err := users.Exists(r.Context(), username)
			if err != nil || !exists {
				unauthorized(w, "Token inválido o expirado")
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
