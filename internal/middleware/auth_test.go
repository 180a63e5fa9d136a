package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapiree/billing-portal/internal/token"
)

func newContext(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRequireAuth(t *testing.T) {
	svc := token.NewService("test-secret", time.Hour)
	mw := RequireAuth(svc)

	t.Run("missing token is 401", func(t *testing.T) {
		c, rec := newContext(t, "")
		require.NoError(t, mw(okHandler)(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token is 403", func(t *testing.T) {
		c, rec := newContext(t, "Bearer garbage")
		require.NoError(t, mw(okHandler)(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("expired token is 403", func(t *testing.T) {
		expired := token.NewService("test-secret", -time.Minute)
		signed, _, err := expired.Issue("user-1", "", nil, 0, "")
		require.NoError(t, err)

		c, rec := newContext(t, "Bearer "+signed)
		require.NoError(t, mw(okHandler)(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("valid token attaches claims", func(t *testing.T) {
		signed, _, err := svc.Issue("user-1", "Super Admin", []string{"Manage Tenants"}, 2, "")
		require.NoError(t, err)

		c, rec := newContext(t, "Bearer "+signed)
		handler := mw(func(c echo.Context) error {
			claims, ok := Identity(c)
			require.True(t, ok)
			assert.Equal(t, "user-1", claims.UserID)
			assert.Equal(t, 2, claims.Rank)
			return c.String(http.StatusOK, "ok")
		})
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	svc := token.NewService("test-secret", time.Hour)
	mw := OptionalAuth(svc)

	t.Run("no token proceeds without identity", func(t *testing.T) {
		c, rec := newContext(t, "")
		handler := mw(func(c echo.Context) error {
			_, ok := Identity(c)
			assert.False(t, ok)
			return c.String(http.StatusOK, "ok")
		})
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid token proceeds without identity", func(t *testing.T) {
		c, rec := newContext(t, "Bearer garbage")
		handler := mw(func(c echo.Context) error {
			_, ok := Identity(c)
			assert.False(t, ok)
			return c.String(http.StatusOK, "ok")
		})
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		signed, _, err := svc.Issue("user-2", "", nil, 0, "tenant-1")
		require.NoError(t, err)

		c, _ := newContext(t, "Bearer "+signed)
		handler := mw(func(c echo.Context) error {
			claims, ok := Identity(c)
			require.True(t, ok)
			assert.Equal(t, "user-2", claims.UserID)
			return c.String(http.StatusOK, "ok")
		})
		require.NoError(t, handler(c))
	})
}

func TestRequirePermissionOrSemantics(t *testing.T) {
	mw := RequirePermission("Manage Users")

	run := func(t *testing.T, claims *token.Claims) (*httptest.ResponseRecorder, error) {
		c, rec := newContext(t, "")
		if claims != nil {
			c.Set("identity", claims)
		}
		return rec, mw(okHandler)(c)
	}

	t.Run("admits identity holding one of several permissions", func(t *testing.T) {
		rec, err := run(t, &token.Claims{Permissions: []string{"Manage Users", "View Dashboard"}})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects identity without the permission", func(t *testing.T) {
		rec, err := run(t, &token.Claims{Permissions: []string{"View Dashboard"}})
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("rejects identity with no permissions", func(t *testing.T) {
		rec, err := run(t, &token.Claims{})
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("rejects missing identity", func(t *testing.T) {
		rec, err := run(t, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("any-of across the required set", func(t *testing.T) {
		anyOf := RequirePermission("Manage Users", "Manage Tenants")
		c, rec := newContext(t, "")
		c.Set("identity", &token.Claims{Permissions: []string{"Manage Tenants"}})
		require.NoError(t, anyOf(okHandler)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
