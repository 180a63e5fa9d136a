package model

import "time"

// Billing intervals accepted on plans and add-on definitions. Renewal only
// supports month and year; lifetime plans never renew.
const (
	IntervalMonth    = "month"
	IntervalYear     = "year"
	IntervalLifetime = "lifetime"
)

// Plan represents a row in the `plans` table. Plans are soft deleted via the
// IsActive flag so historical subscriptions keep a valid reference.
//
// Fields:
//
//	ID          – primary key (UUID string).
//	Name        – plan display name.
//	Description – marketing description.
//	Price       – list price per interval.
//	Currency    – ISO 4217 code.
//	Interval    – month, year or lifetime.
//	IsActive    – false once the plan is retired.
type Plan struct {
	ID          string    // plans.id
	Name        string    // plans.name
	Description string    // plans.description
	Price       float64   // plans.price
	Currency    string    // plans.currency
	Interval    string    // plans.interval
	IsActive    bool      // plans.is_active
	CreatedAt   time.Time // plans.created_at
	UpdatedAt   time.Time // plans.updated_at
}
