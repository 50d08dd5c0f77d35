package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tlemoine/blog-platform/backend/internal/apperr"
	"github.com/tlemoine/blog-platform/backend/internal/httpx"
	"github.com/tlemoine/blog-platform/backend/internal/models"
)

type ctxKey int

const userKey ctxKey = iota

// TokenVerifier checks a bearer token and returns the user id it
// asserts. *auth.TokenService implements it.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserSource resolves a verified token subject to a full user record.
type UserSource interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth validates the bearer token and injects the acting user
// into the request context. The token only asserts an id; the role and
// profile come from the user store so a role change takes effect
// immediately rather than at token expiry.
func RequireAuth(tokens TokenVerifier, users UserSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httpx.Error(w, apperr.E(apperr.Authentication, "No token, authorization denied"))
				return
			}

			userID, err := tokens.Verify(token)
			if err != nil {
				httpx.Error(w, err)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				httpx.Error(w, apperr.E(apperr.Authentication, "Token is not valid"))
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a subtree to admin actors. Must sit below RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !UserFrom(r.Context()).IsAdmin() {
			httpx.Error(w, apperr.E(apperr.Authorization, "Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFrom returns the authenticated actor, or nil on unauthenticated
// routes.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}
