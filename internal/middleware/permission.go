package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequirePermission returns a middleware that admits a request when the
// authenticated identity holds ANY ONE of the given permission names
// (logical OR, not AND). It must run after RequireAuth; absence of an
// identity, or an identity with no permissions at all, is itself a 403.
func RequirePermission(permissions ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := Identity(c)
			if !ok || len(claims.Permissions) == 0 {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Forbidden: no permissions found"})
			}
			if !claims.HasAnyPermission(permissions...) {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Forbidden: insufficient permissions"})
			}
			return next(c)
		}
	}
}
