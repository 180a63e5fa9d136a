package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kapiree/billing-portal/internal/model"
	"github.com/kapiree/billing-portal/internal/repository"
)

// TenantHandler implements tenant (company) administration. All routes sit
// behind the Manage Tenants permission, which only Super Admin roles carry.
type TenantHandler struct {
	Tenants *repository.TenantRepo
}

func NewTenantHandler(t *repository.TenantRepo) *TenantHandler {
	return &TenantHandler{Tenants: t}
}

type tenantReq struct {
	Name        string `json:"name"`
	AdminUserID string `json:"admin_user_id"`
}

type tenantView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AdminUserID *string   `json:"admin_user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func viewOfTenant(t model.Company) tenantView {
	return tenantView{ID: t.ID, Name: t.Name, AdminUserID: t.AdminUserID, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}
}

func (h *TenantHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	tenants, err := h.Tenants.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving tenants"})
	}
	views := make([]tenantView, 0, len(tenants))
	for _, t := range tenants {
		views = append(views, viewOfTenant(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"tenants": views})
}

func (h *TenantHandler) Get(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	t, err := h.Tenants.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Tenant not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving tenant"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tenant": viewOfTenant(t)})
}

// Create requires an existing admin user so a tenant never starts
// ownerless.
func (h *TenantHandler) Create(c echo.Context) error {
	var req tenantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Tenant name is required."})
	}
	if req.AdminUserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Admin User ID is required for a new tenant."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	exists, err := h.Tenants.UserExists(ctx, req.AdminUserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error verifying admin user."})
	}
	if !exists {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Provided Admin User ID does not exist."})
	}

	tenantID := uuid.NewString()
	if err := h.Tenants.Create(ctx, tenantID, req.Name, req.AdminUserID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error creating tenant"})
	}
	t, err := h.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error creating tenant"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Tenant created successfully.",
		"tenant":  viewOfTenant(t),
	})
}

func (h *TenantHandler) Update(c echo.Context) error {
	var req tenantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Tenant name is required."})
	}
	if req.AdminUserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Admin User ID is required for a tenant."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	exists, err := h.Tenants.UserExists(ctx, req.AdminUserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error verifying admin user."})
	}
	if !exists {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Provided Admin User ID does not exist."})
	}

	affected, err := h.Tenants.Update(ctx, c.Param("id"), req.Name, req.AdminUserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error updating tenant"})
	}
	if affected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Tenant not found."})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Tenant updated successfully."})
}

// Delete detaches the tenant's users (their company_id goes NULL), then
// removes the tenant. Both steps commit together so no user is left
// pointing at a deleted tenant.
func (h *TenantHandler) Delete(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	tx, err := h.Tenants.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error deleting tenant"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	affected, err := h.Tenants.DeleteTx(ctx, tx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error deleting tenant"})
	}
	if affected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Tenant not found."})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error deleting tenant"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"message": "Tenant deleted successfully."})
}
