// Package handler contains the HTTP endpoint implementations. Handlers own
// the transaction envelope for multi-statement writes; repositories stay
// single-purpose.
package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kapiree/billing-portal/internal/middleware"
	"github.com/kapiree/billing-portal/internal/model"
	"github.com/kapiree/billing-portal/internal/repository"
	"github.com/kapiree/billing-portal/internal/token"
)

// dbCtx bounds all database work for one request.
func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// identity returns the verified claims attached by RequireAuth. Routes
// behind RequireAuth always have one; the bool guards misconfigured routes.
func identity(c echo.Context) (*token.Claims, bool) {
	return middleware.Identity(c)
}

// tenantFilter derives the tenant scope for a query from the acting
// identity: nil means unrestricted (Super Admin), otherwise queries are
// pinned to the actor's own tenant.
func tenantFilter(id *token.Claims) *string {
	if id.Rank == model.RankSuperAdmin {
		return nil
	}
	companyID := id.CompanyID
	return &companyID
}

// userView is the JSON shape for a user across auth and admin endpoints,
// matching what the web client consumes.
type userView struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Credits     int       `json:"credits"`
	Role        *string   `json:"role"`
	RoleID      *string   `json:"role_id"`
	Permissions []string  `json:"permissions,omitempty"`
	CompanyID   *string   `json:"company_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func viewOf(u repository.UserAccount) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Credits:   u.Credits,
		Role:      u.RoleName,
		RoleID:    u.RoleID,
		CompanyID: u.CompanyID,
		CreatedAt: u.CreatedAt,
	}
}
