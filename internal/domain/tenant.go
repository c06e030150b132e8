package domain

import (
	"context"
	"time"
)

// TenantStatus is the lifecycle state of a tenant
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantSuspended TenantStatus = "suspended"
)

// Plan is a subscription plan
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// PlanLimits caps the number of users and projects a tenant may own
type PlanLimits struct {
	MaxUsers    int
	MaxProjects int
}

var planLimits = map[Plan]PlanLimits{
	PlanFree:       {MaxUsers: 5, MaxProjects: 3},
	PlanPro:        {MaxUsers: 25, MaxProjects: 50},
	PlanEnterprise: {MaxUsers: 500, MaxProjects: 1000},
}

// LimitsFor returns the limits of a plan, falling back to the free plan.
func LimitsFor(p Plan) PlanLimits {
	if l, ok := planLimits[p]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// Tenant is an isolated customer organization and the root of all data scoping
type Tenant struct {
	ID               string       `db:"id" json:"id"`
	Name             string       `db:"name" json:"name"`
	Subdomain        string       `db:"subdomain" json:"subdomain"`
	Status           TenantStatus `db:"status" json:"status"`
	SubscriptionPlan Plan         `db:"subscriptionplan" json:"subscriptionPlan"`
	MaxUsers         int          `db:"maxusers" json:"maxUsers"`
	MaxProjects      int          `db:"maxprojects" json:"maxProjects"`
	CreatedAt        time.Time    `db:"createdat" json:"createdAt"`
	UpdatedAt        time.Time    `db:"updatedat" json:"updatedAt"`
}

// TenantRepository defines data access for tenants
type TenantRepository interface {
	// CreateWithAdmin stores the tenant and its first administrator atomically:
	// both rows are written or neither is.
	CreateWithAdmin(ctx context.Context, tenant *Tenant, admin *User) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
}
