// Package queue defines message payloads exchanged over the message broker
// and the background consumer that audits billing events.
package queue

// BillingEvent is published on the billing.events queue after a purchase,
// renewal or cancellation commits. It carries enough for downstream
// consumers to log, notify, or feed analytics without querying the primary
// database.
type BillingEvent struct {
	TransactionID   string  `json:"transaction_id"`
	UserID          string  `json:"user_id"`
	ItemType        string  `json:"item_type"`
	ItemID          string  `json:"item_id"`
	ItemName        string  `json:"item_name"`
	TransactionType string  `json:"transaction_type"`
	AmountPaid      float64 `json:"amount_paid"`
	Currency        string  `json:"currency"`
	OccurredAt      string  `json:"occurred_at"`
}

// PasswordResetEmail is published on the notification.emails queue with the
// fully rendered message, so whatever delivers mail needs no knowledge of
// templates or reset links.
type PasswordResetEmail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}
