package repository

import (
	"context"
	"database/sql"

	"github.com/kapiree/billing-portal/internal/model"
)

// PlanRepo provides CRUD on pricing plans. Plans are soft deleted: the
// public listing only shows active plans, but historical subscriptions keep
// a valid plan reference forever.
type PlanRepo struct{ db *sql.DB }

func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{db: db} }

const planSelect = "SELECT id, name, description, price, currency, `interval`, is_active, created_at, updated_at FROM plans"

// List returns plans, optionally restricted to active ones.
func (r *PlanRepo) List(ctx context.Context, activeOnly bool) ([]model.Plan, error) {
	q := planSelect
	if activeOnly {
		q += " WHERE is_active = TRUE"
	}
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	plans := make([]model.Plan, 0)
	for rows.Next() {
		var p model.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Currency,
			&p.Interval, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// GetByID fetches a single plan regardless of its active flag.
func (r *PlanRepo) GetByID(ctx context.Context, id string) (model.Plan, error) {
	var p model.Plan
	err := r.db.QueryRowContext(ctx, planSelect+" WHERE id = ? LIMIT 1", id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Currency,
			&p.Interval, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create inserts a new plan with the caller-supplied id.
func (r *PlanRepo) Create(ctx context.Context, p model.Plan) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO plans (id, name, description, price, currency, `interval`) VALUES (?,?,?,?,?,?)",
		p.ID, p.Name, p.Description, p.Price, p.Currency, p.Interval)
	return err
}

// Update rewrites the priced fields of a plan. Returns affected rows; zero
// means the plan does not exist.
func (r *PlanRepo) Update(ctx context.Context, p model.Plan) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE plans SET name = ?, description = ?, price = ?, currency = ?, `interval` = ? WHERE id = ?",
		p.Name, p.Description, p.Price, p.Currency, p.Interval, p.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Deactivate soft-deletes a plan by clearing its active flag.
func (r *PlanRepo) Deactivate(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE plans SET is_active = FALSE WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
