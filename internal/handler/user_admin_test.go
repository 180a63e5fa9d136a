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

	"github.com/kapiree/billing-portal/internal/repository"
)

func newUserAdminHandler(t *testing.T) (*UserAdminHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserAdminHandler(repository.NewUserRepo(db), repository.NewRoleRepo(db)), mock
}

func userRows(id, username, email, companyID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "credits",
		"role_id", "role_name", "privilege_rank", "company_id", "created_at"}).
		AddRow(id, username, email, "$2a$10$hash", 0, "role-member", "Member", 0, companyID, time.Now())
}

func roleRows(id, name string, rank int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "privilege_rank"}).
		AddRow(id, name, "", rank)
}

func TestGetUserTenantScope(t *testing.T) {
	t.Run("tenant admin cannot see users of another tenant", func(t *testing.T) {
		h, mock := newUserAdminHandler(t)

		// the company filter turns the foreign row into a miss
		mock.ExpectQuery(regexp.QuoteMeta("FROM users u")).
			WithArgs("u-other", "tenant-a").
			WillReturnError(sql.ErrNoRows)

		c, rec := newJSONContext(http.MethodGet, "/api/users/u-other", "")
		c.SetParamNames("userId")
		c.SetParamValues("u-other")
		asTenantAdmin(c, "admin-a", "tenant-a")

		require.NoError(t, h.Get(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "User not found or not authorized to view this user.")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("super admin reads across tenants", func(t *testing.T) {
		h, mock := newUserAdminHandler(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users u")).
			WithArgs("u-other").
			WillReturnRows(userRows("u-other", "bob", "bob@other.test", "tenant-b"))

		c, rec := newJSONContext(http.MethodGet, "/api/users/u-other", "")
		c.SetParamNames("userId")
		c.SetParamValues("u-other")
		asSuperAdmin(c, "root")

		require.NoError(t, h.Get(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "bob@other.test")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAssignRolePrivilegeCeiling(t *testing.T) {
	t.Run("tenant admin may not grant an admin-ranked role", func(t *testing.T) {
		h, mock := newUserAdminHandler(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM roles")).
			WithArgs("role-tadmin").
			WillReturnRows(roleRows("role-tadmin", "Tenant Admin", 1))

		c, rec := newJSONContext(http.MethodPost, "/api/users/u2/assign-role", `{"roleId":"role-tadmin"}`)
		c.SetParamNames("userId")
		c.SetParamValues("u2")
		asTenantAdmin(c, "admin-a", "tenant-a")

		require.NoError(t, h.AssignRole(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "Tenant Admins cannot assign Super Admin or Tenant Admin roles.")
		// the update never ran
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ceiling follows the stored rank, not the role name", func(t *testing.T) {
		h, mock := newUserAdminHandler(t)

		// a role renamed to something harmless still carries its admin rank
		mock.ExpectQuery(regexp.QuoteMeta("FROM roles")).
			WithArgs("role-x").
			WillReturnRows(roleRows("role-x", "Helpdesk", 2))

		c, rec := newJSONContext(http.MethodPost, "/api/users/u2/assign-role", `{"roleId":"role-x"}`)
		c.SetParamNames("userId")
		c.SetParamValues("u2")
		asTenantAdmin(c, "admin-a", "tenant-a")

		require.NoError(t, h.AssignRole(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tenant admin assigns a member role within the tenant", func(t *testing.T) {
		h, mock := newUserAdminHandler(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM roles")).
			WithArgs("role-member").
			WillReturnRows(roleRows("role-member", "Member", 0))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role_id = ?")).
			WithArgs("role-member", "u2", "tenant-a").
			WillReturnResult(sqlmock.NewResult(0, 1))

		c, rec := newJSONContext(http.MethodPost, "/api/users/u2/assign-role", `{"roleId":"role-member"}`)
		c.SetParamNames("userId")
		c.SetParamValues("u2")
		asTenantAdmin(c, "admin-a", "tenant-a")

		require.NoError(t, h.AssignRole(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Role Member assigned to user u2 successfully.")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("out-of-tenant target reads as 404", func(t *testing.T) {
		h, mock := newUserAdminHandler(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM roles")).
			WithArgs("role-member").
			WillReturnRows(roleRows("role-member", "Member", 0))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role_id = ?")).
			WithArgs("role-member", "u-foreign", "tenant-a").
			WillReturnResult(sqlmock.NewResult(0, 0))

		c, rec := newJSONContext(http.MethodPost, "/api/users/u-foreign/assign-role", `{"roleId":"role-member"}`)
		c.SetParamNames("userId")
		c.SetParamValues("u-foreign")
		asTenantAdmin(c, "admin-a", "tenant-a")

		require.NoError(t, h.AssignRole(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "User not found or not authorized to assign role to this user.")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateUserCeiling(t *testing.T) {
	h, mock := newUserAdminHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM roles")).
		WithArgs("role-super").
		WillReturnRows(roleRows("role-super", "Super Admin", 2))

	body := `{"username":"bob","email":"bob@a.test","roleId":"role-super"}`
	c, rec := newJSONContext(http.MethodPut, "/api/users/u2", body)
	c.SetParamNames("userId")
	c.SetParamValues("u2")
	asTenantAdmin(c, "admin-a", "tenant-a")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserScoped(t *testing.T) {
	h, mock := newUserAdminHandler(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
		WithArgs("u-foreign", "tenant-a").
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, rec := newJSONContext(http.MethodDelete, "/api/users/u-foreign", "")
	c.SetParamNames("userId")
	c.SetParamValues("u-foreign")
	asTenantAdmin(c, "admin-a", "tenant-a")

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
