package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/kapiree/billing-portal/internal/model"
)

// RoleRepo provides CRUD on roles, the role_permissions join table and the
// permissions reference data. Role deletion nulls user references before
// removing the role, inside the caller's transaction, so users survive
// their role.
type RoleRepo struct{ db *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{db: db} }

func (r *RoleRepo) DB() *sql.DB { return r.db }

// List returns every role.
func (r *RoleRepo) List(ctx context.Context) ([]model.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, description, privilege_rank FROM roles ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	roles := make([]model.Role, 0)
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.PrivilegeRank); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetByID fetches a single role. The privilege rank drives the assignment
// ceiling, so every role mutation path reads the target through here first.
func (r *RoleRepo) GetByID(ctx context.Context, id string) (model.Role, error) {
	var role model.Role
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, privilege_rank FROM roles WHERE id = ? LIMIT 1", id).
		Scan(&role.ID, &role.Name, &role.Description, &role.PrivilegeRank)
	return role, err
}

// rankForName maps the two reserved role names onto their ranks so that
// creating or renaming a role keeps the rank in lockstep with the label the
// rest of the platform recognizes.
func rankForName(name string) int {
	switch strings.TrimSpace(name) {
	case "Super Admin":
		return model.RankSuperAdmin
	case "Tenant Admin":
		return model.RankTenantAdmin
	default:
		return model.RankMember
	}
}

// RankForName is exported for handlers enforcing the privilege ceiling on
// role creation and renames.
func RankForName(name string) int { return rankForName(name) }

// CreateTx inserts a role and its permission links inside an existing
// transaction.
func (r *RoleRepo) CreateTx(ctx context.Context, tx *sql.Tx, id, name, description string, permissionIDs []string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO roles (id, name, description, privilege_rank) VALUES (?,?,?,?)",
		id, name, description, rankForName(name))
	if err != nil {
		return err
	}
	return r.insertPermissionLinksTx(ctx, tx, id, permissionIDs)
}

// Update rewrites a role's name and description (and the derived rank).
// Returns affected rows; zero means the role does not exist.
func (r *RoleRepo) Update(ctx context.Context, id, name, description string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE roles SET name = ?, description = ?, privilege_rank = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		name, description, rankForName(name), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReplacePermissionsTx swaps the full permission set of a role inside an
// existing transaction: delete everything, insert the new links.
func (r *RoleRepo) ReplacePermissionsTx(ctx context.Context, tx *sql.Tx, roleID string, permissionIDs []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM role_permissions WHERE role_id = ?", roleID); err != nil {
		return err
	}
	return r.insertPermissionLinksTx(ctx, tx, roleID, permissionIDs)
}

func (r *RoleRepo) insertPermissionLinksTx(ctx context.Context, tx *sql.Tx, roleID string, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	query := "INSERT INTO role_permissions (role_id, permission_id) VALUES "
	args := make([]interface{}, 0, len(permissionIDs)*2)
	for i, pid := range permissionIDs {
		if i > 0 {
			query += ","
		}
		query += "(?,?)"
		args = append(args, roleID, pid)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// DeleteTx removes a role inside an existing transaction. User references
// are nulled first; role_permissions rows cascade at the schema level.
// Returns affected rows for the role delete itself.
func (r *RoleRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id string) (int64, error) {
	if _, err := tx.ExecContext(ctx, "UPDATE users SET role_id = NULL WHERE role_id = ?", id); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM roles WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PermissionsForRole returns the permission rows linked to a role.
func (r *RoleRepo) PermissionsForRole(ctx context.Context, roleID string) ([]model.Permission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.description
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = ?`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	perms := make([]model.Permission, 0)
	for rows.Next() {
		var p model.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// PermissionNames returns just the capability strings for a role, in the
// shape the token claims carry. A nil roleID (user whose role was deleted)
// yields an empty list.
func (r *RoleRepo) PermissionNames(ctx context.Context, roleID *string) ([]string, error) {
	if roleID == nil {
		return []string{}, nil
	}
	perms, err := r.PermissionsForRole(ctx, *roleID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}
	return names, nil
}

// ListPermissions returns the full permissions reference table.
func (r *RoleRepo) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, description FROM permissions ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	perms := make([]model.Permission, 0)
	for rows.Next() {
		var p model.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
