package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kapiree/billing-portal/internal/config"
	"github.com/kapiree/billing-portal/internal/repository"
	"github.com/kapiree/billing-portal/internal/token"
	"github.com/kapiree/billing-portal/internal/utils"
)

// AuthHandler bundles dependencies for session endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Roles   *repository.RoleRepo
	Tenants *repository.TenantRepo
	Tokens  *token.Service
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, r *repository.RoleRepo, t *repository.TenantRepo, tok *token.Service) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Roles: r, Tenants: t, Tokens: tok}
}

// ----- DTOs -----

type registerReq struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	RoleID    string `json:"role_id"`
	CompanyID string `json:"company_id"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateCreditsReq struct {
	CreditsToAdd int `json:"creditsToAdd"`
}

// issueFor signs a fresh session token from a user's live role and
// permissions.
func (h *AuthHandler) issueFor(u repository.UserAccount, permissions []string) (string, error) {
	role := ""
	if u.RoleName != nil {
		role = *u.RoleName
	}
	company := ""
	if u.CompanyID != nil {
		company = *u.CompanyID
	}
	signed, _, err := h.Tokens.Issue(u.ID, role, permissions, u.RoleRank, company)
	return signed, err
}

// Register creates a user inside a transaction and returns a session token
// for the new account. The route requires the Manage Users permission, so
// only admins provision accounts.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" || req.RoleID == "" || req.CompanyID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Username, email, password, role_id, and company_id are required."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Roles.GetByID(ctx, req.RoleID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid role_id provided."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during registration"})
	}
	if _, err := h.Tenants.GetByID(ctx, req.CompanyID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid company_id provided."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during registration"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during registration"})
	}

	tx, err := h.Users.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during registration"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	exists, err := h.Users.ExistsByEmailTx(ctx, tx, req.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during registration"})
	}
	if exists {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "User with this email already exists"})
	}

	userID := uuid.NewString()
	if err := h.Users.CreateTx(ctx, tx, userID, req.Username, req.Email, hash, req.RoleID, req.CompanyID); err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "User with this email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during registration"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during registration"})
	}
	committed = true

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during registration"})
	}
	permissions, err := h.Roles.PermissionNames(ctx, u.RoleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during registration"})
	}
	signed, err := h.issueFor(u, permissions)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during registration"})
	}

	view := viewOf(u)
	view.Permissions = permissions
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully.",
		"token":   signed,
		"user":    view,
	})
}

// Login verifies credentials and returns a token carrying the user's live
// role and permissions. Unknown email and wrong password answer
// identically.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during login"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid credentials"})
	}

	permissions, err := h.Roles.PermissionNames(ctx, u.RoleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during login"})
	}
	signed, err := h.issueFor(u, permissions)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during login"})
	}

	view := viewOf(u)
	view.Permissions = permissions
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Logged in successfully",
		"token":   signed,
		"user":    view,
	})
}

// Profile returns the authenticated user's account with permissions.
func (h *AuthHandler) Profile(c echo.Context) error {
	id, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "User ID not available in token."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving profile"})
	}
	permissions, err := h.Roles.PermissionNames(ctx, u.RoleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving profile"})
	}

	view := viewOf(u)
	view.Permissions = permissions
	return c.JSON(http.StatusOK, echo.Map{"user": view})
}

// Refresh reissues a token from the user's current role and permissions,
// not from the old claims, so role changes take effect without re-login.
func (h *AuthHandler) Refresh(c echo.Context) error {
	id, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "User ID not available in token."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error refreshing token"})
	}
	permissions, err := h.Roles.PermissionNames(ctx, u.RoleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error refreshing token"})
	}
	signed, err := h.issueFor(u, permissions)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error refreshing token"})
	}

	view := viewOf(u)
	view.Permissions = permissions
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Token refreshed successfully",
		"token":   signed,
		"user":    view,
	})
}

// UpdateCredits adds credits to the caller's own balance. The write is a
// relative increment so concurrent additions cannot clobber each other.
func (h *AuthHandler) UpdateCredits(c echo.Context) error {
	id, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "User ID not available in token."})
	}

	var req updateCreditsReq
	if err := c.Bind(&req); err != nil || req.CreditsToAdd <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid credits amount"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Users.AddCredits(ctx, id.UserID, req.CreditsToAdd); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error updating credits"})
	}
	u, err := h.Users.GetByID(ctx, id.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error updating credits"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Credits updated successfully",
		"user": echo.Map{
			"id":       u.ID,
			"username": u.Username,
			"email":    u.Email,
			"credits":  u.Credits,
		},
	})
}

// Logout is stateless: tokens expire on their own and the client discards
// its copy.
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}
