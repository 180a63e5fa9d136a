package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/kapiree/billing-portal/internal/model"
)

// ResetTokenRepo stores single-use password reset tokens.
type ResetTokenRepo struct{ db *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{db: db} }

func (r *ResetTokenRepo) DB() *sql.DB { return r.db }

func (r *ResetTokenRepo) Create(ctx context.Context, id, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (id, user_id, token, expires_at) VALUES (?, ?, ?, ?)",
		id, userID, token, expiresAt)
	return err
}

// GetValidTx reads an unexpired token inside the reset transaction.
// sql.ErrNoRows covers both unknown and expired tokens; callers report the
// two cases identically.
func (r *ResetTokenRepo) GetValidTx(ctx context.Context, tx *sql.Tx, token string) (model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	err := tx.QueryRowContext(ctx,
		"SELECT id, user_id, token, expires_at FROM password_reset_tokens WHERE token = ? AND expires_at > NOW()",
		token).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt)
	return t, err
}

// DeleteAllForUserTx removes every outstanding token for a user. Used when
// a reset completes so older emailed links die with the one that was used.
func (r *ResetTokenRepo) DeleteAllForUserTx(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := tx.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE user_id = ?", userID)
	return err
}
