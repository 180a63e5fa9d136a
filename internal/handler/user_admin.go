package handler

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kapiree/billing-portal/internal/model"
	"github.com/kapiree/billing-portal/internal/repository"
	"github.com/kapiree/billing-portal/internal/token"
)

// UserAdminHandler implements the admin user listing and mutation
// endpoints. Every query is tenant-scoped through tenantFilter, and a
// cross-tenant target reads as 404 so out-of-tenant rows stay invisible.
type UserAdminHandler struct {
	Users *repository.UserRepo
	Roles *repository.RoleRepo
}

func NewUserAdminHandler(u *repository.UserRepo, r *repository.RoleRepo) *UserAdminHandler {
	return &UserAdminHandler{Users: u, Roles: r}
}

type updateUserReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	RoleID   string `json:"roleId"`
}

type assignRoleReq struct {
	RoleID string `json:"roleId"`
}

// ceilingViolated reports whether the actor may not hand out the target
// role: anyone below Super Admin is barred from granting admin-ranked
// roles. The check runs on the stored rank, so renaming a role cannot
// loosen it.
func ceilingViolated(actor *token.Claims, target model.Role) bool {
	return actor.Rank != model.RankSuperAdmin && target.PrivilegeRank >= model.RankTenantAdmin
}

// List returns users visible to the actor, newest first.
func (h *UserAdminHandler) List(c echo.Context) error {
	id, _ := identity(c)

	ctx, cancel := dbCtx(c)
	defer cancel()

	users, err := h.Users.ListScoped(ctx, tenantFilter(id))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving users"})
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, viewOf(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": views})
}

// Get returns a single visible user.
func (h *UserAdminHandler) Get(c echo.Context) error {
	id, _ := identity(c)
	userID := c.Param("userId")

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetScoped(ctx, userID, tenantFilter(id))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found or not authorized to view this user."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving user"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": viewOf(u)})
}

// Update rewrites a user's username, email and role, subject to the
// privilege ceiling and tenant scope.
func (h *UserAdminHandler) Update(c echo.Context) error {
	id, _ := identity(c)
	userID := c.Param("userId")

	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.RoleID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Username, email, and roleId are required."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	role, err := h.Roles.GetByID(ctx, req.RoleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Role not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error updating user"})
	}
	if ceilingViolated(id, role) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Tenant Admins cannot assign Super Admin or Tenant Admin roles."})
	}

	affected, err := h.Users.UpdateScoped(ctx, userID, req.Username, req.Email, req.RoleID, tenantFilter(id))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error updating user"})
	}
	if affected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found or not authorized to update this user."})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User updated successfully."})
}

// AssignRole grants a role to a visible user, subject to the privilege
// ceiling.
func (h *UserAdminHandler) AssignRole(c echo.Context) error {
	id, _ := identity(c)
	userID := c.Param("userId")

	var req assignRoleReq
	if err := c.Bind(&req); err != nil || req.RoleID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Role ID is required."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	role, err := h.Roles.GetByID(ctx, req.RoleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Target role not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error assigning role"})
	}
	if ceilingViolated(id, role) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Tenant Admins cannot assign Super Admin or Tenant Admin roles."})
	}

	affected, err := h.Users.AssignRoleScoped(ctx, userID, req.RoleID, tenantFilter(id))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error assigning role"})
	}
	if affected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found or not authorized to assign role to this user."})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("Role %s assigned to user %s successfully.", role.Name, userID)})
}

// Delete removes a visible user.
func (h *UserAdminHandler) Delete(c echo.Context) error {
	id, _ := identity(c)
	userID := c.Param("userId")

	ctx, cancel := dbCtx(c)
	defer cancel()

	affected, err := h.Users.DeleteScoped(ctx, userID, tenantFilter(id))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error deleting user"})
	}
	if affected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found or not authorized to delete this user."})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully."})
}
