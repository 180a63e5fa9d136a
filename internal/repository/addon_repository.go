package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/kapiree/billing-portal/internal/model"
)

// AddOnRepo covers the add-on catalog (add_ons_definition) and per-user
// purchased add-ons (user_add_ons).
type AddOnRepo struct{ db *sql.DB }

func NewAddOnRepo(db *sql.DB) *AddOnRepo { return &AddOnRepo{db: db} }

func (r *AddOnRepo) DB() *sql.DB { return r.db }

const addOnDefSelect = "SELECT id, name, description, price, currency, `interval` FROM add_ons_definition"

func scanAddOnDef(row interface{ Scan(...any) error }) (model.AddOnDefinition, error) {
	var d model.AddOnDefinition
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Price, &d.Currency, &d.Interval)
	return d, err
}

func (r *AddOnRepo) ListDefinitions(ctx context.Context) ([]model.AddOnDefinition, error) {
	rows, err := r.db.QueryContext(ctx, addOnDefSelect+" ORDER BY price ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs := make([]model.AddOnDefinition, 0)
	for rows.Next() {
		d, err := scanAddOnDef(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func (r *AddOnRepo) GetDefinition(ctx context.Context, id string) (model.AddOnDefinition, error) {
	return scanAddOnDef(r.db.QueryRowContext(ctx, addOnDefSelect+" WHERE id = ?", id))
}

// GetDefinitionTx reads an add-on definition inside a purchase transaction.
func (r *AddOnRepo) GetDefinitionTx(ctx context.Context, tx *sql.Tx, id string) (model.AddOnDefinition, error) {
	return scanAddOnDef(tx.QueryRowContext(ctx, addOnDefSelect+" WHERE id = ?", id))
}

// InsertUserAddOnTx records an active purchased add-on. endDate is nil for
// one-time add-ons with no recurring interval.
func (r *AddOnRepo) InsertUserAddOnTx(ctx context.Context, tx *sql.Tx, id, userID, defID string, endDate *time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO user_add_ons (id, user_id, add_on_def_id, status, end_date)
		 VALUES (?, ?, ?, 'active', ?)`,
		id, userID, defID, endDate)
	return err
}

// OwnedAddOn is one active purchased add-on joined with its definition,
// in the shape the subscription overview returns.
type OwnedAddOn struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ActiveForUser lists a user's add-ons that are active and not past their
// end date.
func (r *AddOnRepo) ActiveForUser(ctx context.Context, userID string) ([]OwnedAddOn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT uao.id, aod.name, aod.description
		 FROM user_add_ons uao
		 JOIN add_ons_definition aod ON aod.id = uao.add_on_def_id
		 WHERE uao.user_id = ? AND uao.status = 'active'
		   AND (uao.end_date IS NULL OR uao.end_date > NOW())`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addOns := make([]OwnedAddOn, 0)
	for rows.Next() {
		var a OwnedAddOn
		if err := rows.Scan(&a.ID, &a.Name, &a.Description); err != nil {
			return nil, err
		}
		addOns = append(addOns, a)
	}
	return addOns, rows.Err()
}
