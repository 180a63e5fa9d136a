package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/kapiree/billing-portal/internal/model"
)

// SubscriptionRepo provides reads and transactional writes on the
// subscriptions table. "Current" always means the most recent active row
// for a user; cancelled rows stay behind as history.
type SubscriptionRepo struct{ db *sql.DB }

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

func (r *SubscriptionRepo) DB() *sql.DB { return r.db }

// RenewalInfo carries the subscription and plan fields needed by the renew
// and cancel workflows.
type RenewalInfo struct {
	ID           string
	PlanID       string
	EndDate      *time.Time
	PlanName     string
	PlanPrice    float64
	PlanCurrency string
	PlanInterval string
}

// CurrentActiveTx locates the most recent active subscription for a user
// inside an existing transaction, joined with its plan. sql.ErrNoRows means
// there is nothing to renew or cancel (a 404, not a validation error).
func (r *SubscriptionRepo) CurrentActiveTx(ctx context.Context, tx *sql.Tx, userID string) (RenewalInfo, error) {
	var info RenewalInfo
	err := tx.QueryRowContext(ctx,
		`SELECT s.id, s.plan_id, s.end_date, p.name, p.price, p.currency, p.`+"`interval`"+`
		 FROM subscriptions s
		 JOIN plans p ON p.id = s.plan_id
		 WHERE s.user_id = ? AND s.status = 'active'
		 ORDER BY s.start_date DESC LIMIT 1`, userID).
		Scan(&info.ID, &info.PlanID, &info.EndDate, &info.PlanName, &info.PlanPrice,
			&info.PlanCurrency, &info.PlanInterval)
	return info, err
}

// NextEndDate computes the renewed end date by adding one interval unit to
// the current end date, not to "now". Renewing late therefore never shifts
// the billing anchor. Only month and year extend; anything else is
// ErrUnsupportedInterval.
func NextEndDate(current time.Time, interval string) (time.Time, error) {
	switch interval {
	case model.IntervalMonth:
		return current.AddDate(0, 1, 0), nil
	case model.IntervalYear:
		return current.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, ErrUnsupportedInterval
	}
}

// RenewTx extends a subscription to the given end date and turns auto-renew
// back on, inside an existing transaction.
func (r *SubscriptionRepo) RenewTx(ctx context.Context, tx *sql.Tx, id string, newEnd time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE subscriptions SET end_date = ?, auto_renew = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		newEnd, id)
	return err
}

// CancelTx marks a subscription cancelled and disables auto-renew, leaving
// end_date untouched so the user keeps access through the paid period.
func (r *SubscriptionRepo) CancelTx(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE subscriptions SET status = 'cancelled', auto_renew = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		id)
	return err
}

// SubscriptionDetail is the current subscription joined with its plan, in
// the shape returned by the subscription overview endpoint.
type SubscriptionDetail struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	AutoRenew       bool       `json:"auto_renew"`
	PlanID          string     `json:"plan_id"`
	PlanName        string     `json:"plan_name"`
	PlanDescription string     `json:"plan_description"`
	Price           float64    `json:"price"`
	Currency        string     `json:"currency"`
	Interval        string     `json:"interval"`
}

// ActiveDetail returns the current subscription with plan details for the
// overview endpoint.
func (r *SubscriptionRepo) ActiveDetail(ctx context.Context, userID string) (SubscriptionDetail, error) {
	var d SubscriptionDetail
	err := r.db.QueryRowContext(ctx,
		`SELECT s.id, s.status, s.start_date, s.end_date, s.auto_renew,
		        p.id, p.name, p.description, p.price, p.currency, p.`+"`interval`"+`
		 FROM subscriptions s
		 JOIN plans p ON p.id = s.plan_id
		 WHERE s.user_id = ? AND s.status = 'active'
		 ORDER BY s.start_date DESC LIMIT 1`, userID).
		Scan(&d.ID, &d.Status, &d.StartDate, &d.EndDate, &d.AutoRenew,
			&d.PlanID, &d.PlanName, &d.PlanDescription, &d.Price, &d.Currency, &d.Interval)
	return d, err
}
