package repository

import (
	"context"
	"database/sql"

	"github.com/kapiree/billing-portal/internal/model"
)

// TransactionRepo writes and reads the append-only billing ledger. There
// are deliberately no update or delete methods.
type TransactionRepo struct{ db *sql.DB }

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

// InsertTx appends a ledger row inside an existing transaction so the
// ledger entry commits or rolls back together with the billing change it
// records.
func (r *TransactionRepo) InsertTx(ctx context.Context, tx *sql.Tx, t model.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions
		   (id, user_id, item_type, item_id, item_name, transaction_type, amount_paid, currency, status, invoice_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.ItemType, t.ItemID, t.ItemName, t.TransactionType,
		t.AmountPaid, t.Currency, t.Status, t.InvoiceURL)
	return err
}

// ListByUser returns a user's ledger newest first.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID string) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, item_type, item_id, item_name, transaction_type,
		        amount_paid, currency, status, invoice_url, transaction_date
		 FROM transactions
		 WHERE user_id = ?
		 ORDER BY transaction_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]model.Transaction, 0)
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.ItemType, &t.ItemID, &t.ItemName,
			&t.TransactionType, &t.AmountPaid, &t.Currency, &t.Status,
			&t.InvoiceURL, &t.TransactionDate); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
