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

// ProjectService manages the caller tenant's projects
type ProjectService struct {
	projects     domain.ProjectRepository
	tenants      domain.TenantRepository
	authz        *security.AuthorizationService
	strictDelete bool
	logger       *slog.Logger
}

// NewProjectService creates a project service. With strictDelete, deleting
// a project that does not exist fails with not found.
func NewProjectService(projects domain.ProjectRepository, tenants domain.TenantRepository, authz *security.AuthorizationService, strictDelete bool, logger *slog.Logger) *ProjectService {
	if logger == nil {
		logger = slog.Default()
	}
	if authz == nil {
		authz = security.NewAuthorizationService(logger)
	}
	return &ProjectService{
		projects:     projects,
		tenants:      tenants,
		authz:        authz,
		strictDelete: strictDelete,
		logger:       logger,
	}
}

// CreateProjectInput is the payload for a new project
type CreateProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// UpdateProjectInput is a partial update; absent fields keep their value
type UpdateProjectInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// Create adds a project to the caller's tenant, enforcing the plan limit
func (s *ProjectService) Create(ctx context.Context, id auth.Identity, in CreateProjectInput) (_ *domain.Project, err error) {
	ctx, span := tracing.Start(ctx, "ProjectService.Create", id.TenantID)
	defer func() { tracing.End(span, err) }()

	if err := s.authz.ValidatePermission(id.Role, security.PermManageProjects); err != nil {
		return nil, err
	}

	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}
	status := domain.ProjectActive
	if in.Status != "" {
		if status, err = parseProjectStatus(in.Status); err != nil {
			return nil, err
		}
	}

	tenant, err := s.tenants.GetByID(ctx, id.TenantID)
	if err != nil {
		return nil, err
	}

	project := &domain.Project{
		ID:          uuid.NewString(),
		TenantID:    id.TenantID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		CreatedBy:   id.UserID,
	}
	if err := s.projects.Create(ctx, project, tenant.MaxProjects); err != nil {
		if errors.Is(err, domain.ErrLimitExceeded) {
			metrics.ObserveQuotaRejection("project")
		}
		return nil, err
	}

	metrics.ObserveMutation("project", "create")
	s.logger.Info("project created",
		slog.String("tenant_id", id.TenantID),
		slog.String("project_id", project.ID),
	)
	return project, nil
}

// List returns the caller tenant's projects, newest first
func (s *ProjectService) List(ctx context.Context, id auth.Identity) ([]*domain.Project, error) {
	if err := s.authz.ValidatePermission(id.Role, security.PermReadProjects); err != nil {
		return nil, err
	}
	return s.projects.ListByTenant(ctx, id.TenantID)
}

// Get returns one project of the caller's tenant
func (s *ProjectService) Get(ctx context.Context, id auth.Identity, projectID string) (*domain.Project, error) {
	if err := s.authz.ValidatePermission(id.Role, security.PermReadProjects); err != nil {
		return nil, err
	}
	return s.projects.GetByID(ctx, id.TenantID, projectID)
}

// Update applies a partial update to a project of the caller's tenant
func (s *ProjectService) Update(ctx context.Context, id auth.Identity, projectID string, in UpdateProjectInput) (_ *domain.Project, err error) {
	ctx, span := tracing.Start(ctx, "ProjectService.Update", id.TenantID)
	defer func() { tracing.End(span, err) }()

	if err := s.authz.ValidatePermission(id.Role, security.PermManageProjects); err != nil {
		return nil, err
	}

	var patch domain.ProjectPatch
	if in.Name != nil {
		name, err := required("name", *in.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		patch.Description = &desc
	}
	if in.Status != nil {
		status, err := parseProjectStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		patch.Status = &status
	}

	if patch.IsEmpty() {
		return s.projects.GetByID(ctx, id.TenantID, projectID)
	}

	project, err := s.projects.Update(ctx, id.TenantID, projectID, patch)
	if err != nil {
		return nil, err
	}
	metrics.ObserveMutation("project", "update")
	return project, nil
}

// Delete removes a project and its tasks
func (s *ProjectService) Delete(ctx context.Context, id auth.Identity, projectID string) (err error) {
	ctx, span := tracing.Start(ctx, "ProjectService.Delete", id.TenantID)
	defer func() { tracing.End(span, err) }()

	if err := s.authz.ValidatePermission(id.Role, security.PermManageProjects); err != nil {
		return err
	}

	deleted, err := s.projects.Delete(ctx, id.TenantID, projectID)
	if err != nil {
		return err
	}
	if !deleted {
		if s.strictDelete {
			return domain.Errorf(domain.ErrNotFound, "Project not found")
		}
		return nil
	}

	metrics.ObserveMutation("project", "delete")
	s.logger.Info("project deleted",
		slog.String("tenant_id", id.TenantID),
		slog.String("project_id", projectID),
	)
	return nil
}
