package model

import "time"

// AddOnDefinition represents a purchasable add-on in `add_ons_definition`.
// Interval of nil means a one-time purchase with no end date.
type AddOnDefinition struct {
	ID          string  // add_ons_definition.id
	Name        string  // add_ons_definition.name
	Description string  // add_ons_definition.description
	Price       float64 // add_ons_definition.price
	Currency    string  // add_ons_definition.currency
	Interval    *string // add_ons_definition.interval (nullable)
}

// UserAddOn represents one purchased add-on in `user_add_ons`. EndDate is
// computed at purchase time from the definition's interval; nil means the
// add-on never expires.
type UserAddOn struct {
	ID           string     // user_add_ons.id
	UserID       string     // user_add_ons.user_id
	AddOnDefID   string     // user_add_ons.add_on_def_id
	Status       string     // user_add_ons.status
	PurchaseDate time.Time  // user_add_ons.purchase_date
	EndDate      *time.Time // user_add_ons.end_date (nullable)
}
