package handler

import (
	"database/sql"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kapiree/billing-portal/internal/config"
	"github.com/kapiree/billing-portal/internal/repository"
)

func newPasswordHandler(t *testing.T) (*PasswordHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cfg := config.Config{
		ResetTokenTTLMin: 60,
		BcryptCost:       bcrypt.MinCost,
		ClientBaseURL:    "http://localhost:3000",
	}
	return NewPasswordHandler(cfg, repository.NewUserRepo(db), repository.NewResetTokenRepo(db)), mock
}

func TestForgotPasswordDoesNotRevealAccounts(t *testing.T) {
	stubBroker(t)

	t.Run("unknown email answers without writing anything", func(t *testing.T) {
		h, mock := newPasswordHandler(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users u")).
			WithArgs("ghost@example.com").
			WillReturnError(sql.ErrNoRows)

		c, rec := newJSONContext(http.MethodPost, "/api/auth/forgot-password", `{"email":"ghost@example.com"}`)

		require.NoError(t, h.ForgotPassword(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), forgotOK)
		// no token insert was expected
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("known email stores a token and answers identically", func(t *testing.T) {
		h, mock := newPasswordHandler(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users u")).
			WithArgs("alice@example.com").
			WillReturnRows(userRows("u1", "alice", "alice@example.com", "tenant-a"))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO password_reset_tokens")).
			WithArgs(sqlmock.AnyArg(), "u1", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		c, rec := newJSONContext(http.MethodPost, "/api/auth/forgot-password", `{"email":"alice@example.com"}`)

		require.NoError(t, h.ForgotPassword(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), forgotOK)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestResetPassword(t *testing.T) {
	t.Run("invalid or expired token", func(t *testing.T) {
		h, mock := newPasswordHandler(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FROM password_reset_tokens")).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		c, rec := newJSONContext(http.MethodPost, "/api/auth/reset-password",
			`{"token":"nope","newPassword":"new-secret"}`)

		require.NoError(t, h.ResetPassword(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid or expired password reset token.")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("valid token updates the password and burns every token", func(t *testing.T) {
		h, mock := newPasswordHandler(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FROM password_reset_tokens")).
			WithArgs("tok-abc").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at"}).
				AddRow("prt-1", "u1", "tok-abc", time.Now().Add(30*time.Minute)))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = ?")).
			WithArgs(sqlmock.AnyArg(), "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM password_reset_tokens WHERE user_id = ?")).
			WithArgs("u1").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		c, rec := newJSONContext(http.MethodPost, "/api/auth/reset-password",
			`{"token":"tok-abc","newPassword":"new-secret"}`)

		require.NoError(t, h.ResetPassword(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Password has been reset successfully.")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		h, mock := newPasswordHandler(t)

		c, rec := newJSONContext(http.MethodPost, "/api/auth/reset-password", `{"token":"tok-abc"}`)

		require.NoError(t, h.ResetPassword(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
