package model

import "time"

// User represents an application user record as stored in the `users` table.
// Each field corresponds to a column in the database. The json tags are
// omitted here because these structs are primarily used internally by the
// repository layer; handlers define separate response types with appropriate
// JSON tags.
//
// Credits is a denormalized running balance. It is incremented exactly once
// per credit-granting event (relative SQL update) and never recomputed from
// the user_credit_packs rows.
//
// Fields:
//
//	ID           – primary key (UUID string).
//	Username     – display name.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	Credits      – cached credit balance.
//	RoleID       – foreign key into roles (nullable; nulled on role delete).
//	CompanyID    – foreign key into companies (nullable; nulled on tenant delete).
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Credits      int       // users.credits
	RoleID       *string   // users.role_id (nullable)
	CompanyID    *string   // users.company_id (nullable)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Privilege ranks stored on roles.privilege_rank. The rank, not the display
// name, drives tenant scoping and the assignment ceiling, so renaming a role
// cannot change what it may do.
const (
	RankMember      = 0 // ordinary tenant user
	RankTenantAdmin = 1 // administers a single tenant
	RankSuperAdmin  = 2 // unrestricted across tenants
)

// Role represents a row in the `roles` table. Roles bundle permissions via
// the role_permissions join table.
type Role struct {
	ID            string // roles.id
	Name          string // roles.name
	Description   string // roles.description
	PrivilegeRank int    // roles.privilege_rank
}

// Permission is a named capability ("Manage Users", "Manage Roles", ...)
// checked by the authorization middleware. Immutable reference data.
type Permission struct {
	ID          string // permissions.id
	Name        string // permissions.name
	Description string // permissions.description
}
