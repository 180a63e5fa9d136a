package model

import "time"

// Company represents a tenant: an isolated customer organization. Most
// non-Super-Admin operations are implicitly scoped to the actor's own
// company via the users.company_id reference.
//
// Fields:
//
//	ID          – primary key (UUID string).
//	Name        – tenant display name.
//	AdminUserID – the designated tenant administrator (nullable).
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
type Company struct {
	ID          string    // companies.id
	Name        string    // companies.name
	AdminUserID *string   // companies.admin_user_id (nullable)
	CreatedAt   time.Time // companies.created_at
	UpdatedAt   time.Time // companies.updated_at
}
