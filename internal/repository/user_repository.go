package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// UserRepo provides reads and writes on the users table. Multi-tenant reads
// take an optional company filter: nil means unrestricted (Super Admin),
// otherwise every query is additionally constrained to the given company so
// out-of-tenant rows behave exactly like missing rows.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// DB exposes the underlying pool so handlers can open transactions spanning
// several repositories.
func (r *UserRepo) DB() *sql.DB { return r.db }

// UserAccount is a user row joined with its role. Role fields are nil when
// the role reference has been nulled by a role delete.
type UserAccount struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Credits      int
	RoleID       *string
	RoleName     *string
	RoleRank     int
	CompanyID    *string
	CreatedAt    time.Time
}

const userSelect = `SELECT u.id, u.username, u.email, u.password_hash, u.credits,
       r.id, r.name, COALESCE(r.privilege_rank, 0), u.company_id, u.created_at
FROM users u
LEFT JOIN roles r ON r.id = u.role_id`

func scanUserAccount(row *sql.Row) (UserAccount, error) {
	var u UserAccount
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Credits,
		&u.RoleID, &u.RoleName, &u.RoleRank, &u.CompanyID, &u.CreatedAt)
	return u, err
}

// GetByEmail fetches a user (with role) by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (UserAccount, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUserAccount(r.db.QueryRowContext(ctx, userSelect+" WHERE u.email = ? LIMIT 1", email))
}

// GetByID fetches a user (with role) by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (UserAccount, error) {
	return scanUserAccount(r.db.QueryRowContext(ctx, userSelect+" WHERE u.id = ? LIMIT 1", id))
}

// GetScoped fetches a user by id under the tenant filter. A user belonging
// to a different company comes back as sql.ErrNoRows, never as a
// permission error.
func (r *UserRepo) GetScoped(ctx context.Context, id string, companyFilter *string) (UserAccount, error) {
	q := userSelect + " WHERE u.id = ?"
	args := []interface{}{id}
	if companyFilter != nil {
		q += " AND u.company_id = ?"
		args = append(args, *companyFilter)
	}
	return scanUserAccount(r.db.QueryRowContext(ctx, q+" LIMIT 1", args...))
}

// ListScoped returns all users visible under the tenant filter, newest
// first.
func (r *UserRepo) ListScoped(ctx context.Context, companyFilter *string) ([]UserAccount, error) {
	q := userSelect
	args := []interface{}{}
	if companyFilter != nil {
		q += " WHERE u.company_id = ?"
		args = append(args, *companyFilter)
	}
	q += " ORDER BY u.created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]UserAccount, 0)
	for rows.Next() {
		var u UserAccount
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Credits,
			&u.RoleID, &u.RoleName, &u.RoleRank, &u.CompanyID, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ExistsByEmailTx reports whether a user with the given email already
// exists, inside the registration transaction.
func (r *UserRepo) ExistsByEmailTx(ctx context.Context, tx *sql.Tx, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var id string
	err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ? LIMIT 1", email).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTx inserts a new user row inside an existing transaction. The
// caller supplies the generated id and the bcrypt hash.
func (r *UserRepo) CreateTx(ctx context.Context, tx *sql.Tx, id, username, email, passwordHash, roleID, companyID string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := tx.ExecContext(ctx,
		"INSERT INTO users (id, username, email, password_hash, role_id, company_id) VALUES (?,?,?,?,?,?)",
		id, username, email, passwordHash, roleID, companyID)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrEmailExists
	}
	return err
}

// UpdateScoped rewrites username, email and role for a user under the
// tenant filter. It returns the number of affected rows; zero means the
// user does not exist or is outside the caller's tenant.
func (r *UserRepo) UpdateScoped(ctx context.Context, id, username, email, roleID string, companyFilter *string) (int64, error) {
	q := "UPDATE users SET username = ?, email = ?, role_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	args := []interface{}{username, strings.ToLower(strings.TrimSpace(email)), roleID, id}
	if companyFilter != nil {
		q += " AND company_id = ?"
		args = append(args, *companyFilter)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AssignRoleScoped points a user at a new role under the tenant filter.
func (r *UserRepo) AssignRoleScoped(ctx context.Context, userID, roleID string, companyFilter *string) (int64, error) {
	q := "UPDATE users SET role_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	args := []interface{}{roleID, userID}
	if companyFilter != nil {
		q += " AND company_id = ?"
		args = append(args, *companyFilter)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteScoped removes a user under the tenant filter.
func (r *UserRepo) DeleteScoped(ctx context.Context, id string, companyFilter *string) (int64, error) {
	q := "DELETE FROM users WHERE id = ?"
	args := []interface{}{id}
	if companyFilter != nil {
		q += " AND company_id = ?"
		args = append(args, *companyFilter)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AddCredits increments the cached credit balance. The update is relative
// (credits = credits + n) so concurrent writers compose without a
// read-modify-write race.
func (r *UserRepo) AddCredits(ctx context.Context, userID string, n int) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET credits = credits + ? WHERE id = ?", n, userID)
	return err
}

// AddCreditsTx is AddCredits inside an existing transaction; used by the
// credit-pack purchase flow so the balance moves atomically with the
// ownership and ledger inserts.
func (r *UserRepo) AddCreditsTx(ctx context.Context, tx *sql.Tx, userID string, n int) error {
	_, err := tx.ExecContext(ctx, "UPDATE users SET credits = credits + ? WHERE id = ?", n, userID)
	return err
}

// Credits reads the cached balance.
func (r *UserRepo) Credits(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT credits FROM users WHERE id = ?", userID).Scan(&n)
	return n, err
}

// UpdatePasswordTx replaces the password hash inside the reset transaction.
func (r *UserRepo) UpdatePasswordTx(ctx context.Context, tx *sql.Tx, userID, hash string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", hash, userID)
	return err
}
