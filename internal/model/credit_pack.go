package model

import "time"

// CreditPackDefinition represents a purchasable bundle of usage credits as
// stored in `credit_packs_definition`. ValidityDays of nil means purchased
// packs never expire.
type CreditPackDefinition struct {
	ID            string  // credit_packs_definition.id
	Name          string  // credit_packs_definition.name
	Description   string  // credit_packs_definition.description
	CreditsAmount int     // credit_packs_definition.credits_amount
	Price         float64 // credit_packs_definition.price
	Currency      string  // credit_packs_definition.currency
	ValidityDays  *int    // credit_packs_definition.validity_days (nullable)
}

// UserCreditPack represents one purchased pack in `user_credit_packs`.
// Packs are tracked per purchase, not merged, so multiple packs can expire
// independently. A pack is usable iff CreditsRemaining > 0 and
// ExpirationDate is nil or in the future.
type UserCreditPack struct {
	ID               string     // user_credit_packs.id
	UserID           string     // user_credit_packs.user_id
	CreditPackDefID  string     // user_credit_packs.credit_pack_def_id
	CreditsRemaining int        // user_credit_packs.credits_remaining
	ExpirationDate   *time.Time // user_credit_packs.expiration_date (nullable)
	PurchaseDate     time.Time  // user_credit_packs.purchase_date
}
