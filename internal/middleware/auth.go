package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/kapiree/billing-portal/internal/token"
)

// identityKey is the context key under which the verified claims are stored.
// Handlers must go through Identity() instead of touching the key directly.
const identityKey = "identity"

// Identity returns the authenticated claims attached to the request, if any.
// A second return of false means the request carries no verified identity
// (either the route is unprotected or OptionalAuth saw no usable token).
func Identity(c echo.Context) (*token.Claims, bool) {
	claims, ok := c.Get(identityKey).(*token.Claims)
	return claims, ok && claims != nil
}

// RequireAuth returns an Echo middleware that validates a Bearer session
// token and attaches the typed claims to the request context. A missing
// token is 401 (no credential presented); a token that fails verification is
// 403 (credential rejected). The error body is generic in both cases: the
// caller learns nothing about why verification failed.
func RequireAuth(svc *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Access token required"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")
			claims, err := svc.Verify(raw)
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Invalid or expired token"})
			}
			c.Set(identityKey, claims)
			return next(c)
		}
	}
}

// OptionalAuth attaches the claims when a valid token is presented and
// otherwise proceeds with no identity at all. It never rejects. Used for
// endpoints that personalize behavior when logged in but remain usable by
// guests (public catalog listings).
func OptionalAuth(svc *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				if claims, err := svc.Verify(strings.TrimPrefix(auth, "Bearer ")); err == nil {
					c.Set(identityKey, claims)
				}
			}
			return next(c)
		}
	}
}
