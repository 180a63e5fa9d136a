package model

import "time"

// Ledger item types and transaction types recorded on transactions rows.
const (
	ItemSubscription = "subscription"
	ItemCreditPack   = "credit_pack"
	ItemAddOn        = "add_on"

	TxPurchase     = "Purchase"
	TxRenewal      = "Renewal"
	TxCancellation = "Cancellation"
)

// Transaction is one row of the append-only billing ledger. Rows are never
// mutated after insertion. ItemName snapshots the plan/pack/add-on name at
// the time of the event so later catalog edits do not rewrite history.
//
// Fields:
//
//	ID              – primary key (UUID string).
//	UserID          – user the event belongs to.
//	ItemType        – subscription, credit_pack or add_on.
//	ItemID          – id of the subscription / ownership row.
//	ItemName        – name snapshot.
//	TransactionType – Purchase, Renewal or Cancellation.
//	AmountPaid      – amount charged (0 for cancellations).
//	Currency        – ISO 4217 code.
//	Status          – settlement status ("Completed").
//	InvoiceURL      – optional link to an invoice document.
//	TransactionDate – when the event happened.
type Transaction struct {
	ID              string    // transactions.id
	UserID          string    // transactions.user_id
	ItemType        string    // transactions.item_type
	ItemID          string    // transactions.item_id
	ItemName        string    // transactions.item_name
	TransactionType string    // transactions.transaction_type
	AmountPaid      float64   // transactions.amount_paid
	Currency        string    // transactions.currency
	Status          string    // transactions.status
	InvoiceURL      *string   // transactions.invoice_url (nullable)
	TransactionDate time.Time // transactions.transaction_date
}

// PasswordResetToken models an entry in the `password_reset_tokens` table.
// Tokens are single-use: consumed tokens are deleted, and consumption also
// clears any other outstanding tokens for the same user.
type PasswordResetToken struct {
	ID        string    // password_reset_tokens.id
	UserID    string    // password_reset_tokens.user_id
	Token     string    // password_reset_tokens.token
	ExpiresAt time.Time // password_reset_tokens.expires_at
}
