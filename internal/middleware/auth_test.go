package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlemoine/blog-platform/backend/internal/apperr"
	"github.com/tlemoine/blog-platform/backend/internal/models"
	"github.com/tlemoine/blog-platform/backend/internal/store"
)

type fakeVerifier struct {
	id  string
	err error
}

func (f fakeVerifier) Verify(string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

type fakeUserSource map[string]*models.User

func (f fakeUserSource) GetUserByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func TestRequireAuth(t *testing.T) {
	carol := &models.User{ID: "carol", Username: "carol", Role: models.RoleUser}
	users := fakeUserSource{"carol": carol}

	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFrom(r.Context())
	})

	t.Run("valid token injects user", func(t *testing.T) {
		seen = nil
		h := RequireAuth(fakeVerifier{id: "carol"}, users)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "carol", seen.ID)
	})

	t.Run("missing header", func(t *testing.T) {
		seen = nil
		h := RequireAuth(fakeVerifier{id: "carol"}, users)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("bad token", func(t *testing.T) {
		seen = nil
		bad := fakeVerifier{err: apperr.E(apperr.Authentication, "Token is not valid")}
		h := RequireAuth(bad, users)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("token for deleted user", func(t *testing.T) {
		seen = nil
		h := RequireAuth(fakeVerifier{id: "ghost"}, users)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	withUser := func(u *models.User) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), userKey, u))
	}

	rec := httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(rec, withUser(&models.User{ID: "u1", Role: models.RoleUser}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(rec, withUser(&models.User{ID: "a1", Role: models.RoleAdmin}))
	assert.Equal(t, http.StatusOK, rec.Code)
}
