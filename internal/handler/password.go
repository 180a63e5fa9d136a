package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kapiree/billing-portal/internal/config"
	"github.com/kapiree/billing-portal/internal/email"
	"github.com/kapiree/billing-portal/internal/queue"
	"github.com/kapiree/billing-portal/internal/repository"
	queuepublisher "github.com/kapiree/billing-portal/internal/service"
	"github.com/kapiree/billing-portal/internal/utils"
)

// forgotOK is returned by ForgotPassword whether or not the email exists,
// so the endpoint cannot be used to enumerate accounts.
const forgotOK = "If an account with that email exists, a password reset link has been sent."

// PasswordHandler implements the forgot/reset password flow.
type PasswordHandler struct {
	Cfg         config.Config
	Users       *repository.UserRepo
	ResetTokens *repository.ResetTokenRepo
}

func NewPasswordHandler(cfg config.Config, u *repository.UserRepo, rt *repository.ResetTokenRepo) *PasswordHandler {
	return &PasswordHandler{Cfg: cfg, Users: u, ResetTokens: rt}
}

type forgotReq struct {
	Email string `json:"email"`
}

type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ForgotPassword issues a reset token and hands the rendered email to the
// notification queue. The response is identical for known and unknown
// addresses.
func (h *PasswordHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusOK, echo.Map{"message": forgotOK})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during password reset request"})
	}

	resetToken := uuid.NewString()
	expiresAt := time.Now().UTC().Add(time.Duration(h.Cfg.ResetTokenTTLMin) * time.Minute)
	if err := h.ResetTokens.Create(ctx, uuid.NewString(), u.ID, resetToken, expiresAt); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during password reset request"})
	}

	html, err := email.RenderPasswordReset(h.Cfg.ClientBaseURL, resetToken)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during password reset request"})
	}
	// Delivery is the mail worker's problem; a broker outage must not leak
	// whether the account exists.
	_ = queuepublisher.PublishPasswordResetEmail(ctx, queue.PasswordResetEmail{
		To:      u.Email,
		Subject: email.ResetSubject,
		HTML:    html,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": forgotOK})
}

// ResetPassword consumes a reset token: the password update and the removal
// of every outstanding token for the user commit atomically, making tokens
// single-use and killing older emailed links at the same time.
func (h *PasswordHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Token and new password are required."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	tx, err := h.Users.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during password reset"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	t, err := h.ResetTokens.GetValidTx(ctx, tx, req.Token)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid or expired password reset token."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during password reset"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during password reset"})
	}
	if err := h.Users.UpdatePasswordTx(ctx, tx, t.UserID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during password reset"})
	}
	if err := h.ResetTokens.DeleteAllForUserTx(ctx, tx, t.UserID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during password reset"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during password reset"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"message": "Password has been reset successfully."})
}
