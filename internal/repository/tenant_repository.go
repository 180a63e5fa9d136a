package repository

import (
	"context"
	"database/sql"

	"github.com/kapiree/billing-portal/internal/model"
)

// TenantRepo provides CRUD on the companies table. Tenant deletion detaches
// users (company_id nulled) before removing the company, inside the
// caller's transaction.
type TenantRepo struct{ db *sql.DB }

func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{db: db} }

func (r *TenantRepo) DB() *sql.DB { return r.db }

const tenantSelect = "SELECT id, name, admin_user_id, created_at, updated_at FROM companies"

// List returns every tenant, newest first.
func (r *TenantRepo) List(ctx context.Context) ([]model.Company, error) {
	rows, err := r.db.QueryContext(ctx, tenantSelect+" ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tenants := make([]model.Company, 0)
	for rows.Next() {
		var t model.Company
		if err := rows.Scan(&t.ID, &t.Name, &t.AdminUserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// GetByID fetches a single tenant.
func (r *TenantRepo) GetByID(ctx context.Context, id string) (model.Company, error) {
	var t model.Company
	err := r.db.QueryRowContext(ctx, tenantSelect+" WHERE id = ? LIMIT 1", id).
		Scan(&t.ID, &t.Name, &t.AdminUserID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// UserExists reports whether the given user id resolves to a row; used to
// validate admin_user_id before creating or updating a tenant.
func (r *TenantRepo) UserExists(ctx context.Context, userID string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, "SELECT id FROM users WHERE id = ? LIMIT 1", userID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a tenant with the caller-supplied id.
func (r *TenantRepo) Create(ctx context.Context, id, name, adminUserID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO companies (id, name, admin_user_id) VALUES (?,?,?)", id, name, adminUserID)
	return err
}

// Update rewrites a tenant's name and administrator. Returns affected rows;
// zero means the tenant does not exist.
func (r *TenantRepo) Update(ctx context.Context, id, name, adminUserID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE companies SET name = ?, admin_user_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		name, adminUserID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteTx removes a tenant inside an existing transaction, detaching its
// users first so they are kept (tenantless) rather than cascaded away.
func (r *TenantRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id string) (int64, error) {
	if _, err := tx.ExecContext(ctx, "UPDATE users SET company_id = NULL WHERE company_id = ?", id); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM companies WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
