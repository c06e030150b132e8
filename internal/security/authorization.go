package security

import (
	"log/slog"
	"slices"

	"github.com/yourorg/taskflow/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermViewTenant     Permission = "view_tenant"
	PermListUsers      Permission = "list_users"
	PermManageUsers    Permission = "manage_users"
	PermReadProjects   Permission = "read_projects"
	PermManageProjects Permission = "manage_projects"
	PermReadTasks      Permission = "read_tasks"
	PermManageTasks    Permission = "manage_tasks"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleTenantAdmin: {
		PermViewTenant,
		PermListUsers,
		PermManageUsers,
		PermReadProjects,
		PermManageProjects,
		PermReadTasks,
		PermManageTasks,
	},
	domain.RoleUser: {
		PermViewTenant,
		PermListUsers,
		PermReadProjects,
		PermManageProjects,
		PermReadTasks,
		PermManageTasks,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	return slices.Contains(RolePermissions[role], permission)
}

// ValidatePermission validates that a role has a specific permission
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return domain.Errorf(domain.ErrForbidden, "Insufficient permissions")
	}
	return nil
}

// ValidateTenantAccess checks that the caller's tenant is the one addressed
// by the request.
func (as *AuthorizationService) ValidateTenantAccess(callerTenantID, requestedTenantID string) error {
	if callerTenantID != requestedTenantID {
		as.logger.Warn("tenant access denied",
			slog.String("caller_tenant", callerTenantID),
			slog.String("requested_tenant", requestedTenantID),
		)
		return domain.Errorf(domain.ErrForbidden, "Access denied")
	}
	return nil
}
