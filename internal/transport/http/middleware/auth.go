package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"hrledger/internal/domain/auth"
	"hrledger/internal/domain/employee"
	"hrledger/internal/transport/http/api"
)

// UserLookup resolves the employee behind a token so that removed accounts
// and role changes take effect before the token expires.
type UserLookup interface {
	Get(ctx context.Context, id string) (employee.Employee, error)
}

// Auth attaches the caller to the context when a valid bearer token is
// present. It never rejects; RequireAuth and RequireRole do.
func Auth(secret string, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user := claims.User()
			if users != nil {
				e, err := users.Get(r.Context(), claims.UserID)
				if err != nil {
					if !errors.Is(err, employee.ErrNotFound) {
						slog.Warn("auth user lookup failed", "userId", claims.UserID, "err", err)
					}
					next.ServeHTTP(w, r)
					return
				}
				user = auth.ClaimsFor(e).User()
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
