package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/kapiree/billing-portal/internal/model"
)

// CreditPackRepo covers both the credit pack catalog
// (credit_packs_definition) and the per-user purchased packs
// (user_credit_packs).
type CreditPackRepo struct{ db *sql.DB }

func NewCreditPackRepo(db *sql.DB) *CreditPackRepo { return &CreditPackRepo{db: db} }

func (r *CreditPackRepo) DB() *sql.DB { return r.db }

const packDefSelect = `SELECT id, name, description, credits_amount, price, currency, validity_days
FROM credit_packs_definition`

func scanPackDef(row interface{ Scan(...any) error }) (model.CreditPackDefinition, error) {
	var d model.CreditPackDefinition
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.CreditsAmount, &d.Price,
		&d.Currency, &d.ValidityDays)
	return d, err
}

func (r *CreditPackRepo) ListDefinitions(ctx context.Context) ([]model.CreditPackDefinition, error) {
	rows, err := r.db.QueryContext(ctx, packDefSelect+" ORDER BY price ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs := make([]model.CreditPackDefinition, 0)
	for rows.Next() {
		d, err := scanPackDef(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func (r *CreditPackRepo) GetDefinition(ctx context.Context, id string) (model.CreditPackDefinition, error) {
	return scanPackDef(r.db.QueryRowContext(ctx, packDefSelect+" WHERE id = ?", id))
}

// GetDefinitionTx reads a pack definition inside a purchase transaction so
// the priced amount cannot change under the buyer's feet.
func (r *CreditPackRepo) GetDefinitionTx(ctx context.Context, tx *sql.Tx, id string) (model.CreditPackDefinition, error) {
	return scanPackDef(tx.QueryRowContext(ctx, packDefSelect+" WHERE id = ?", id))
}

func (r *CreditPackRepo) CreateDefinition(ctx context.Context, d model.CreditPackDefinition) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_packs_definition (id, name, description, credits_amount, price, currency, validity_days)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Description, d.CreditsAmount, d.Price, d.Currency, d.ValidityDays)
	return err
}

func (r *CreditPackRepo) UpdateDefinition(ctx context.Context, d model.CreditPackDefinition) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credit_packs_definition
		 SET name = ?, description = ?, credits_amount = ?, price = ?, currency = ?, validity_days = ?
		 WHERE id = ?`,
		d.Name, d.Description, d.CreditsAmount, d.Price, d.Currency, d.ValidityDays, d.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *CreditPackRepo) DeleteDefinition(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM credit_packs_definition WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertUserPackTx records a purchased pack for a user. expiration is nil
// for packs without a validity window.
func (r *CreditPackRepo) InsertUserPackTx(ctx context.Context, tx *sql.Tx, id, userID, defID string, credits int, expiration *time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO user_credit_packs (id, user_id, credit_pack_def_id, credits_remaining, expiration_date)
		 VALUES (?, ?, ?, ?, ?)`,
		id, userID, defID, credits, expiration)
	return err
}

// OwnedPack is one usable purchased pack joined with its definition, in
// the shape the subscription overview returns.
type OwnedPack struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	CreditsRemaining int        `json:"credits_remaining"`
	TotalCredits     int        `json:"total_credits"`
	ExpirationDate   *time.Time `json:"expiration_date"`
}

// UsablePacks lists a user's packs that still hold credits and have not
// expired.
func (r *CreditPackRepo) UsablePacks(ctx context.Context, userID string) ([]OwnedPack, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ucp.id, cpd.name, ucp.credits_remaining, cpd.credits_amount, ucp.expiration_date
		 FROM user_credit_packs ucp
		 JOIN credit_packs_definition cpd ON cpd.id = ucp.credit_pack_def_id
		 WHERE ucp.user_id = ? AND ucp.credits_remaining > 0
		   AND (ucp.expiration_date IS NULL OR ucp.expiration_date > NOW())`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	packs := make([]OwnedPack, 0)
	for rows.Next() {
		var p OwnedPack
		if err := rows.Scan(&p.ID, &p.Name, &p.CreditsRemaining, &p.TotalCredits,
			&p.ExpirationDate); err != nil {
			return nil, err
		}
		packs = append(packs, p)
	}
	return packs, rows.Err()
}
