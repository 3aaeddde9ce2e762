package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// RequireBearer rejects requests without an HS256 token signed with secret.
func RequireBearer(secret []byte) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			if _, err := parser.Parse(raw, keyFunc); err != nil {
				if !errors.Is(err, jwt.ErrTokenExpired) {
					slog.Warn("rejected bearer token", "error", err)
				}

				http.Error(w, "invalid bearer token", http.StatusUnauthorized)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
