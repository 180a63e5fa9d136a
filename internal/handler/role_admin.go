package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kapiree/billing-portal/internal/model"
	"github.com/kapiree/billing-portal/internal/repository"
)

// RoleAdminHandler implements role and permission administration.
type RoleAdminHandler struct {
	Roles *repository.RoleRepo
}

func NewRoleAdminHandler(r *repository.RoleRepo) *RoleAdminHandler {
	return &RoleAdminHandler{Roles: r}
}

type roleReq struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	PermissionIDs []string `json:"permissionIds"`
}

type rolePermissionsReq struct {
	PermissionIDs []string `json:"permissionIds"`
}

type roleView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type permissionView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func permissionViews(perms []model.Permission) []permissionView {
	views := make([]permissionView, 0, len(perms))
	for _, p := range perms {
		views = append(views, permissionView{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	return views
}

// ListRoles is available to any authenticated user so assignment pickers
// can populate.
func (h *RoleAdminHandler) ListRoles(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	roles, err := h.Roles.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving roles"})
	}
	views := make([]roleView, 0, len(roles))
	for _, r := range roles {
		views = append(views, roleView{ID: r.ID, Name: r.Name, Description: r.Description})
	}
	return c.JSON(http.StatusOK, echo.Map{"roles": views})
}

// ListPermissions returns the full permission catalog.
func (h *RoleAdminHandler) ListPermissions(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	perms, err := h.Roles.ListPermissions(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving permissions"})
	}
	return c.JSON(http.StatusOK, echo.Map{"permissions": permissionViews(perms)})
}

// RolePermissions returns the permissions attached to one role.
func (h *RoleAdminHandler) RolePermissions(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	perms, err := h.Roles.PermissionsForRole(ctx, c.Param("roleId"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving role permissions"})
	}
	return c.JSON(http.StatusOK, echo.Map{"permissions": permissionViews(perms)})
}

// CreateRole inserts a role with its permission links in one transaction.
// Non-Super-Admins may not create roles whose name carries admin rank.
func (h *RoleAdminHandler) CreateRole(c echo.Context) error {
	id, _ := identity(c)

	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	if req.Name == "" || req.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Role name and description are required."})
	}
	if id.Rank != model.RankSuperAdmin && repository.RankForName(req.Name) >= model.RankTenantAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Tenant Admins cannot assign Super Admin or Tenant Admin roles."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	tx, err := h.Roles.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error creating role"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	roleID := uuid.NewString()
	if err := h.Roles.CreateTx(ctx, tx, roleID, req.Name, req.Description, req.PermissionIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error creating role"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error creating role"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Role created successfully.",
		"role":    roleView{ID: roleID, Name: req.Name, Description: req.Description},
	})
}

// UpdateRole renames a role. The stored rank is recomputed from the new
// name, and the ceiling blocks renames into admin-ranked names.
func (h *RoleAdminHandler) UpdateRole(c echo.Context) error {
	id, _ := identity(c)
	roleID := c.Param("roleId")

	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	if req.Name == "" || req.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Role name and description are required."})
	}
	if id.Rank != model.RankSuperAdmin && repository.RankForName(req.Name) >= model.RankTenantAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Tenant Admins cannot assign Super Admin or Tenant Admin roles."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	affected, err := h.Roles.Update(ctx, roleID, req.Name, req.Description)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error updating role"})
	}
	if affected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Role not found."})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Role updated successfully."})
}

// UpdateRolePermissions replaces a role's permission set atomically.
func (h *RoleAdminHandler) UpdateRolePermissions(c echo.Context) error {
	roleID := c.Param("roleId")

	var req rolePermissionsReq
	if err := c.Bind(&req); err != nil || req.PermissionIDs == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "permissionIds must be an array."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	tx, err := h.Roles.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error updating role permissions"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Roles.ReplacePermissionsTx(ctx, tx, roleID, req.PermissionIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error updating role permissions"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error updating role permissions"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"message": "Role permissions updated successfully."})
}

// DeleteRole detaches the role from its users, then removes it. Both steps
// commit together.
func (h *RoleAdminHandler) DeleteRole(c echo.Context) error {
	roleID := c.Param("roleId")

	ctx, cancel := dbCtx(c)
	defer cancel()

	tx, err := h.Roles.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error deleting role"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	affected, err := h.Roles.DeleteTx(ctx, tx, roleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error deleting role"})
	}
	if affected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Role not found."})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error deleting role"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"message": "Role deleted successfully."})
}
