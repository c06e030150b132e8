package domain

import (
	"context"
	"time"
)

// TaskStatus is the workflow state of a task
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

// TaskPriority orders tasks by urgency
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work inside a project. TenantID duplicates the owning
// project's tenant so every query can filter on it directly.
type Task struct {
	ID          string       `db:"id" json:"id"`
	ProjectID   string       `db:"projectid" json:"projectId"`
	TenantID    string       `db:"tenantid" json:"tenantId"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	Status      TaskStatus   `db:"status" json:"status"`
	Priority    TaskPriority `db:"priority" json:"priority"`
	AssignedTo  *string      `db:"assignedto" json:"assignedTo"`
	DueDate     *time.Time   `db:"duedate" json:"dueDate"`
	CreatedAt   time.Time    `db:"createdat" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updatedat" json:"updatedAt"`
}

// TaskPatch holds a partial update; nil fields keep their stored value.
// A non-nil empty AssignedTo clears the assignment.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
	AssignedTo  *string
	DueDate     *time.Time
}

// IsEmpty reports whether the patch changes nothing
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.AssignedTo == nil && p.DueDate == nil
}

// TaskFilter narrows a task listing. Zero values match everything.
type TaskFilter struct {
	Status     TaskStatus
	Priority   TaskPriority
	AssignedTo string
}

// TaskRepository defines tenant-scoped data access for tasks
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, tenantID, id string) (*Task, error)
	ListByProject(ctx context.Context, tenantID, projectID string, filter TaskFilter) ([]*Task, error)
	Update(ctx context.Context, tenantID, id string, patch TaskPatch) (*Task, error)
	// Delete reports whether a row matched (id, tenantID).
	Delete(ctx context.Context, tenantID, id string) (bool, error)
}
