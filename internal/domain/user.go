package domain

import (
	"context"
	"time"
)

// Role is a user's role within its tenant
type Role string

const (
	RoleTenantAdmin Role = "tenantadmin"
	RoleUser        Role = "user"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleTenantAdmin || r == RoleUser
}

// User represents a member of exactly one tenant
type User struct {
	ID           string    `db:"id" json:"id"`
	TenantID     string    `db:"tenantid" json:"tenantId"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"passwordhash" json:"-"` // bcrypt, never serialized
	FullName     string    `db:"fullname" json:"fullName"`
	Role         Role      `db:"role" json:"role"`
	IsActive     bool      `db:"isactive" json:"isActive"`
	CreatedAt    time.Time `db:"createdat" json:"createdAt"`
	UpdatedAt    time.Time `db:"updatedat" json:"updatedAt"`
}

// UserRepository defines data access for users. Every lookup except the
// login lookup is scoped by tenant id.
type UserRepository interface {
	// Create inserts user unless its tenant already holds limit users, in
	// which case it returns ErrLimitExceeded. Count and insert are atomic.
	Create(ctx context.Context, user *User, limit int) error
	GetByID(ctx context.Context, tenantID, id string) (*User, error)
	// GetByEmailInTenant finds a user by email within the tenant owning subdomain.
	GetByEmailInTenant(ctx context.Context, email, subdomain string) (*User, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*User, error)
}
