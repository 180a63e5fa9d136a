package handler

import (
	"errors"
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapiree/billing-portal/internal/repository"
)

func newRoleAdminHandler(t *testing.T) (*RoleAdminHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRoleAdminHandler(repository.NewRoleRepo(db)), mock
}

func TestCreateRoleCeiling(t *testing.T) {
	t.Run("tenant admin may not create an admin-named role", func(t *testing.T) {
		h, mock := newRoleAdminHandler(t)

		body := `{"name":"Super Admin","description":"all powers"}`
		c, rec := newJSONContext(http.MethodPost, "/api/auth/roles", body)
		asTenantAdmin(c, "admin-a", "tenant-a")

		require.NoError(t, h.CreateRole(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("role and permission links commit together", func(t *testing.T) {
		h, mock := newRoleAdminHandler(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO roles")).
			WithArgs(sqlmock.AnyArg(), "Billing Clerk", "runs invoices", 0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO role_permissions")).
			WithArgs(sqlmock.AnyArg(), "perm-1", sqlmock.AnyArg(), "perm-2").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		body := `{"name":"Billing Clerk","description":"runs invoices","permissionIds":["perm-1","perm-2"]}`
		c, rec := newJSONContext(http.MethodPost, "/api/auth/roles", body)
		asSuperAdmin(c, "root")

		require.NoError(t, h.CreateRole(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "Role created successfully.")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateRoleRenameCeiling(t *testing.T) {
	h, mock := newRoleAdminHandler(t)

	// renaming into an admin-ranked name is the same escalation as assigning one
	body := `{"name":"Tenant Admin","description":"promoted"}`
	c, rec := newJSONContext(http.MethodPut, "/api/auth/roles/role-1", body)
	c.SetParamNames("roleId")
	c.SetParamValues("role-1")
	asTenantAdmin(c, "admin-a", "tenant-a")

	require.NoError(t, h.UpdateRole(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoleFailureRollsBack(t *testing.T) {
	h, mock := newRoleAdminHandler(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role_id = NULL WHERE role_id = ?")).
		WithArgs("role-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM roles WHERE id = ?")).
		WithArgs("role-1").
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	c, rec := newJSONContext(http.MethodDelete, "/api/auth/roles/role-1", "")
	c.SetParamNames("roleId")
	c.SetParamValues("role-1")
	asSuperAdmin(c, "root")

	require.NoError(t, h.DeleteRole(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoleDetachesUsersFirst(t *testing.T) {
	h, mock := newRoleAdminHandler(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role_id = NULL WHERE role_id = ?")).
		WithArgs("role-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM roles WHERE id = ?")).
		WithArgs("role-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newJSONContext(http.MethodDelete, "/api/auth/roles/role-1", "")
	c.SetParamNames("roleId")
	c.SetParamValues("role-1")
	asSuperAdmin(c, "root")

	require.NoError(t, h.DeleteRole(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Role deleted successfully.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRolePermissionsRequiresArray(t *testing.T) {
	h, mock := newRoleAdminHandler(t)

	c, rec := newJSONContext(http.MethodPut, "/api/auth/roles/role-1/permissions", `{}`)
	c.SetParamNames("roleId")
	c.SetParamValues("role-1")
	asSuperAdmin(c, "root")

	require.NoError(t, h.UpdateRolePermissions(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
