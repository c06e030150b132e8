package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/yourorg/taskflow/internal/domain"
	"github.com/yourorg/taskflow/internal/observability/metrics"
	"github.com/yourorg/taskflow/internal/observability/tracing"
	"github.com/yourorg/taskflow/internal/security"
	"github.com/yourorg/taskflow/internal/security/auth"
)

// TaskService manages tasks inside the caller tenant's projects
type TaskService struct {
	tasks        domain.TaskRepository
	projects     domain.ProjectRepository
	users        domain.UserRepository
	authz        *security.AuthorizationService
	strictDelete bool
	logger       *slog.Logger
}

// NewTaskService creates a task service
func NewTaskService(
	tasks domain.TaskRepository,
	projects domain.ProjectRepository,
	users domain.UserRepository,
	authz *security.AuthorizationService,
	strictDelete bool,
	logger *slog.Logger,
) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	if authz == nil {
		authz = security.NewAuthorizationService(logger)
	}
	return &TaskService{
		tasks:        tasks,
		projects:     projects,
		users:        users,
		authz:        authz,
		strictDelete: strictDelete,
		logger:       logger,
	}
}

// CreateTaskInput is the payload for a new task
type CreateTaskInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	AssignedTo  *string `json:"assignedTo"`
	DueDate     *string `json:"dueDate"`
}

// UpdateTaskInput is a partial update; absent or null fields keep their
// value. An empty assignedTo clears the assignment.
type UpdateTaskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	AssignedTo  *string `json:"assignedTo"`
	DueDate     *string `json:"dueDate"`
}

// ListTasksQuery holds the optional listing filters
type ListTasksQuery struct {
	Status     string
	Priority   string
	AssignedTo string
}

func errTaskNotFound() error {
	return domain.Errorf(domain.ErrNotFound, "Task not found")
}

// checkAssignee requires userID to be a member of tenantID
func (s *TaskService) checkAssignee(ctx context.Context, tenantID, userID string) error {
	if _, err := s.users.GetByID(ctx, tenantID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return invalid("assignedTo must be a user of this tenant")
		}
		return err
	}
	return nil
}

// Create adds a task to a project of the caller's tenant
func (s *TaskService) Create(ctx context.Context, id auth.Identity, projectID string, in CreateTaskInput) (_ *domain.Task, err error) {
	ctx, span := tracing.Start(ctx, "TaskService.Create", id.TenantID)
	defer func() { tracing.End(span, err) }()

	if err := s.authz.ValidatePermission(id.Role, security.PermManageTasks); err != nil {
		return nil, err
	}

	if _, err := s.projects.GetByID(ctx, id.TenantID, projectID); err != nil {
		return nil, err
	}

	title, err := required("title", in.Title)
	if err != nil {
		return nil, err
	}
	priority := domain.PriorityMedium
	if in.Priority != "" {
		if priority, err = parsePriority(in.Priority); err != nil {
			return nil, err
		}
	}

	task := &domain.Task{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		TenantID:    id.TenantID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      domain.TaskTodo,
		Priority:    priority,
	}

	if in.AssignedTo != nil && strings.TrimSpace(*in.AssignedTo) != "" {
		assignee := strings.TrimSpace(*in.AssignedTo)
		if err := s.checkAssignee(ctx, id.TenantID, assignee); err != nil {
			return nil, err
		}
		task.AssignedTo = &assignee
	}
	if in.DueDate != nil {
		if task.DueDate, err = parseDueDate(*in.DueDate); err != nil {
			return nil, err
		}
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	metrics.ObserveMutation("task", "create")
	s.logger.Info("task created",
		slog.String("tenant_id", id.TenantID),
		slog.String("project_id", projectID),
		slog.String("task_id", task.ID),
	)
	return task, nil
}

// List returns a project's tasks matching q, newest first
func (s *TaskService) List(ctx context.Context, id auth.Identity, projectID string, q ListTasksQuery) ([]*domain.Task, error) {
	if err := s.authz.ValidatePermission(id.Role, security.PermReadTasks); err != nil {
		return nil, err
	}

	var filter domain.TaskFilter
	var err error
	if q.Status != "" {
		if filter.Status, err = parseTaskStatus(q.Status); err != nil {
			return nil, err
		}
	}
	if q.Priority != "" {
		if filter.Priority, err = parsePriority(q.Priority); err != nil {
			return nil, err
		}
	}
	filter.AssignedTo = strings.TrimSpace(q.AssignedTo)

	if _, err := s.projects.GetByID(ctx, id.TenantID, projectID); err != nil {
		return nil, err
	}
	return s.tasks.ListByProject(ctx, id.TenantID, projectID, filter)
}

// Get returns one task of the caller's tenant
func (s *TaskService) Get(ctx context.Context, id auth.Identity, taskID string) (*domain.Task, error) {
	if err := s.authz.ValidatePermission(id.Role, security.PermReadTasks); err != nil {
		return nil, err
	}
	return s.tasks.GetByID(ctx, id.TenantID, taskID)
}

// UpdateStatus moves a task to another workflow state
func (s *TaskService) UpdateStatus(ctx context.Context, id auth.Identity, taskID, status string) (*domain.Task, error) {
	return s.Update(ctx, id, taskID, UpdateTaskInput{Status: &status})
}

// Update applies a partial update to a task of the caller's tenant
func (s *TaskService) Update(ctx context.Context, id auth.Identity, taskID string, in UpdateTaskInput) (_ *domain.Task, err error) {
	ctx, span := tracing.Start(ctx, "TaskService.Update", id.TenantID)
	defer func() { tracing.End(span, err) }()

	if err := s.authz.ValidatePermission(id.Role, security.PermManageTasks); err != nil {
		return nil, err
	}

	patch, err := s.buildPatch(ctx, id.TenantID, in)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return s.tasks.GetByID(ctx, id.TenantID, taskID)
	}

	task, err := s.tasks.Update(ctx, id.TenantID, taskID, patch)
	if err != nil {
		return nil, err
	}
	metrics.ObserveMutation("task", "update")
	return task, nil
}

func (s *TaskService) buildPatch(ctx context.Context, tenantID string, in UpdateTaskInput) (domain.TaskPatch, error) {
	var patch domain.TaskPatch

	if in.Title != nil {
		title, err := required("title", *in.Title)
		if err != nil {
			return patch, err
		}
		patch.Title = &title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		patch.Description = &desc
	}
	if in.Status != nil {
		status, err := parseTaskStatus(*in.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &status
	}
	if in.Priority != nil {
		priority, err := parsePriority(*in.Priority)
		if err != nil {
			return patch, err
		}
		patch.Priority = &priority
	}
	if in.AssignedTo != nil {
		assignee := strings.TrimSpace(*in.AssignedTo)
		if assignee != "" {
			if err := s.checkAssignee(ctx, tenantID, assignee); err != nil {
				return patch, err
			}
		}
		patch.AssignedTo = &assignee
	}
	if in.DueDate != nil {
		due, err := parseDueDate(*in.DueDate)
		if err != nil {
			return patch, err
		}
		patch.DueDate = due
	}
	return patch, nil
}

// Delete removes a task of the caller's tenant
func (s *TaskService) Delete(ctx context.Context, id auth.Identity, taskID string) (err error) {
	ctx, span := tracing.Start(ctx, "TaskService.Delete", id.TenantID)
	defer func() { tracing.End(span, err) }()

	if err := s.authz.ValidatePermission(id.Role, security.PermManageTasks); err != nil {
		return err
	}

	deleted, err := s.tasks.Delete(ctx, id.TenantID, taskID)
	if err != nil {
		return err
	}
	if !deleted {
		if s.strictDelete {
			return errTaskNotFound()
		}
		return nil
	}

	metrics.ObserveMutation("task", "delete")
	s.logger.Info("task deleted",
		slog.String("tenant_id", id.TenantID),
		slog.String("task_id", taskID),
	)
	return nil
}
