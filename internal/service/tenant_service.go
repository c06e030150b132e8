package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yourorg/taskflow/internal/domain"
	"github.com/yourorg/taskflow/internal/observability/metrics"
	"github.com/yourorg/taskflow/internal/observability/tracing"
	"github.com/yourorg/taskflow/internal/security"
	"github.com/yourorg/taskflow/internal/security/auth"
)

// TenantService exposes tenant details and user management
type TenantService struct {
	tenants domain.TenantRepository
	users   domain.UserRepository
	authz   *security.AuthorizationService
	logger  *slog.Logger
}

// NewTenantService creates a tenant service
func NewTenantService(tenants domain.TenantRepository, users domain.UserRepository, authz *security.AuthorizationService, logger *slog.Logger) *TenantService {
	if logger == nil {
		logger = slog.Default()
	}
	if authz == nil {
		authz = security.NewAuthorizationService(logger)
	}
	return &TenantService{tenants: tenants, users: users, authz: authz, logger: logger}
}

// CreateUserInput is the payload for adding a user to a tenant
type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// access applies the tenant match check before the permission check
func (s *TenantService) access(id auth.Identity, tenantID string, perm security.Permission) error {
	if err := s.authz.ValidateTenantAccess(id.TenantID, tenantID); err != nil {
		return err
	}
	return s.authz.ValidatePermission(id.Role, perm)
}

// GetTenant returns the caller's own tenant
func (s *TenantService) GetTenant(ctx context.Context, id auth.Identity, tenantID string) (*domain.Tenant, error) {
	if err := s.access(id, tenantID, security.PermViewTenant); err != nil {
		return nil, err
	}
	return s.tenants.GetByID(ctx, tenantID)
}

// CreateUser adds a user to the tenant, enforcing the plan's user limit.
// Only tenant administrators may call it.
func (s *TenantService) CreateUser(ctx context.Context, id auth.Identity, tenantID string, in CreateUserInput) (_ *domain.User, err error) {
	ctx, span := tracing.Start(ctx, "TenantService.CreateUser", tenantID)
	defer func() { tracing.End(span, err) }()

	if err := s.access(id, tenantID, security.PermManageUsers); err != nil {
		return nil, err
	}

	email, err := normalizeEmail("email", in.Email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword("password", in.Password); err != nil {
		return nil, err
	}
	fullName, err := required("fullName", in.FullName)
	if err != nil {
		return nil, err
	}
	role := domain.RoleUser
	if in.Role != "" {
		role = domain.Role(in.Role)
		if !role.Valid() {
			return nil, invalid("role must be one of tenantadmin, user")
		}
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user, tenant.MaxUsers); err != nil {
		if errors.Is(err, domain.ErrLimitExceeded) {
			metrics.ObserveQuotaRejection("user")
			s.logger.Info("user limit reached",
				slog.String("tenant_id", tenantID),
				slog.Int("max_users", tenant.MaxUsers),
			)
		}
		return nil, err
	}

	metrics.ObserveMutation("user", "create")
	s.logger.Info("user created",
		slog.String("tenant_id", tenantID),
		slog.String("user_id", user.ID),
		slog.String("created_by", id.UserID),
	)
	return user, nil
}

// ListUsers returns the tenant's users, newest first
func (s *TenantService) ListUsers(ctx context.Context, id auth.Identity, tenantID string) ([]*domain.User, error) {
	if err := s.access(id, tenantID, security.PermListUsers); err != nil {
		return nil, err
	}
	return s.users.ListByTenant(ctx, tenantID)
}
