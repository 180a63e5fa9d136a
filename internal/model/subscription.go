package model

import "time"

// Subscription statuses. Cancelled is terminal: a later purchase creates a
// new row instead of reactivating an old one.
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// Subscription represents a row in the `subscriptions` table. Exactly one
// row is treated as "current" per user by selecting the most recent active
// row; historical rows are never deleted, only superseded by status change.
//
// Fields:
//
//	ID        – primary key (UUID string).
//	UserID    – owning user.
//	PlanID    – subscribed plan.
//	Status    – active or cancelled.
//	StartDate – when the subscription began.
//	EndDate   – end of the paid period (nullable for lifetime plans).
//	AutoRenew – whether the subscription renews automatically.
type Subscription struct {
	ID        string     // subscriptions.id
	UserID    string     // subscriptions.user_id
	PlanID    string     // subscriptions.plan_id
	Status    string     // subscriptions.status
	StartDate time.Time  // subscriptions.start_date
	EndDate   *time.Time // subscriptions.end_date (nullable)
	AutoRenew bool       // subscriptions.auto_renew
	CreatedAt time.Time  // subscriptions.created_at
	UpdatedAt time.Time  // subscriptions.updated_at
}
