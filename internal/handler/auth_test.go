package handler

import (
	"database/sql"
	"encoding/json"
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
	"github.com/kapiree/billing-portal/internal/token"
	"github.com/kapiree/billing-portal/internal/utils"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewAuthHandler(
		config.Config{BcryptCost: bcrypt.MinCost},
		repository.NewUserRepo(db),
		repository.NewRoleRepo(db),
		repository.NewTenantRepo(db),
		token.NewService("test-secret", time.Hour),
	)
	return h, mock
}

func userRowsWithHash(id, email, hash string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "credits",
		"role_id", "role_name", "privilege_rank", "company_id", "created_at"}).
		AddRow(id, "alice", email, hash, 10, "role-1", "Member", 0, "tenant-a", time.Now())
}

func TestLoginInvalidCredentialsAreUniform(t *testing.T) {
	t.Run("unknown email", func(t *testing.T) {
		h, mock := newAuthHandler(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users u")).
			WithArgs("ghost@example.com").
			WillReturnError(sql.ErrNoRows)

		c, rec := newJSONContext(http.MethodPost, "/api/auth/login",
			`{"email":"ghost@example.com","password":"whatever"}`)

		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid credentials")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password", func(t *testing.T) {
		h, mock := newAuthHandler(t)

		hash, err := utils.HashPassword("correct-horse", bcrypt.MinCost)
		require.NoError(t, err)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users u")).
			WithArgs("alice@example.com").
			WillReturnRows(userRowsWithHash("u1", "alice@example.com", hash))

		c, rec := newJSONContext(http.MethodPost, "/api/auth/login",
			`{"email":"alice@example.com","password":"wrong"}`)

		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid credentials")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLoginIssuesTokenFromLiveRole(t *testing.T) {
	h, mock := newAuthHandler(t)

	hash, err := utils.HashPassword("correct-horse", bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users u")).
		WithArgs("alice@example.com").
		WillReturnRows(userRowsWithHash("u1", "alice@example.com", hash))
	mock.ExpectQuery(regexp.QuoteMeta("JOIN role_permissions")).
		WithArgs("role-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).
			AddRow("perm-1", "Manage Users", ""))

	c, rec := newJSONContext(http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"correct-horse"}`)

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Logged in successfully")
	assert.Contains(t, rec.Body.String(), `"token"`)
	assert.Contains(t, rec.Body.String(), "Manage Users")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshReflectsLiveRoleState(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users u")).
		WithArgs("u1").
		WillReturnRows(userRowsWithHash("u1", "alice@example.com", "$2a$10$hash"))
	mock.ExpectQuery(regexp.QuoteMeta("JOIN role_permissions")).
		WithArgs("role-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).
			AddRow("perm-2", "Manage Tenants", ""))

	c, rec := newJSONContext(http.MethodPost, "/api/auth/refresh", "")
	// claims minted before the role change still carry the old permission
	c.Set("identity", &token.Claims{
		UserID: "u1", Role: "Member", Permissions: []string{"View Dashboard"},
	})

	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token refreshed successfully")

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	claims, err := token.NewService("test-secret", time.Hour).Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{"Manage Tenants"}, claims.Permissions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateEmailRollsBack(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM roles")).
		WithArgs("role-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "privilege_rank"}).
			AddRow("role-1", "Member", "", 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM companies")).
		WithArgs("tenant-a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "admin_user_id", "created_at", "updated_at"}).
			AddRow("tenant-a", "Acme", "admin-1", time.Now(), time.Now()))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE email = ?")).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-existing"))
	mock.ExpectRollback()

	body := `{"username":"alice","email":"alice@example.com","password":"secret",` +
		`"role_id":"role-1","company_id":"tenant-a"}`
	c, rec := newJSONContext(http.MethodPost, "/api/auth/register", body)
	asSuperAdmin(c, "root")

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "User with this email already exists")
	// the user INSERT never ran, so no partial row survives
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterMissingFields(t *testing.T) {
	h, mock := newAuthHandler(t)

	c, rec := newJSONContext(http.MethodPost, "/api/auth/register", `{"username":"alice"}`)
	asSuperAdmin(c, "root")

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCreditsValidation(t *testing.T) {
	t.Run("non-positive amount is rejected", func(t *testing.T) {
		h, mock := newAuthHandler(t)

		c, rec := newJSONContext(http.MethodPut, "/api/auth/update-credits", `{"creditsToAdd":-5}`)
		asMember(c, "u1", "tenant-a")

		require.NoError(t, h.UpdateCredits(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid credits amount")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("positive amount increments relatively", func(t *testing.T) {
		h, mock := newAuthHandler(t)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET credits = credits + ?")).
			WithArgs(25, "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta("FROM users u")).
			WithArgs("u1").
			WillReturnRows(userRowsWithHash("u1", "alice@example.com", "$2a$10$hash"))

		c, rec := newJSONContext(http.MethodPut, "/api/auth/update-credits", `{"creditsToAdd":25}`)
		asMember(c, "u1", "tenant-a")

		require.NoError(t, h.UpdateCredits(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Credits updated successfully")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
