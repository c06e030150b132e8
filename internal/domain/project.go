package domain

import (
	"context"
	"time"
)

// ProjectStatus is the state of a project
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectArchived  ProjectStatus = "archived"
	ProjectCompleted ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectArchived, ProjectCompleted:
		return true
	}
	return false
}

// Project groups tasks inside a tenant
type Project struct {
	ID          string        `db:"id" json:"id"`
	TenantID    string        `db:"tenantid" json:"tenantId"`
	Name        string        `db:"name" json:"name"`
	Description string        `db:"description" json:"description"`
	Status      ProjectStatus `db:"status" json:"status"`
	CreatedBy   string        `db:"createdby" json:"createdBy"`
	CreatedAt   time.Time     `db:"createdat" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updatedat" json:"updatedAt"`
}

// ProjectPatch holds a partial update; nil fields keep their stored value.
type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *ProjectStatus
}

// IsEmpty reports whether the patch changes nothing
func (p ProjectPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil
}

// ProjectRepository defines tenant-scoped data access for projects
type ProjectRepository interface {
	// Create inserts project unless its tenant already holds limit projects, in
	// which case it returns ErrLimitExceeded. Count and insert are atomic.
	Create(ctx context.Context, project *Project, limit int) error
	GetByID(ctx context.Context, tenantID, id string) (*Project, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*Project, error)
	Update(ctx context.Context, tenantID, id string, patch ProjectPatch) (*Project, error)
	// Delete reports whether a row matched (id, tenantID). Tasks of the
	// project are removed with it.
	Delete(ctx context.Context, tenantID, id string) (bool, error)
}
