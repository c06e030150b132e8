package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/taskflow/internal/domain"
	"github.com/yourorg/taskflow/internal/observability/metrics"
	"github.com/yourorg/taskflow/internal/observability/tracing"
	"github.com/yourorg/taskflow/internal/security/auth"
)

// AuthService handles tenant registration and session tokens
type AuthService struct {
	tenants domain.TenantRepository
	users   domain.UserRepository
	tokens  *auth.TokenManager
	revoked auth.RevocationList
	logger  *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tenants domain.TenantRepository,
	users domain.UserRepository,
	tokens *auth.TokenManager,
	revoked auth.RevocationList,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		tenants: tenants,
		users:   users,
		tokens:  tokens,
		revoked: revoked,
		logger:  logger,
	}
}

// RegisterTenantInput is the self-service signup payload
type RegisterTenantInput struct {
	TenantName    string `json:"tenantName"`
	Subdomain     string `json:"subdomain"`
	AdminEmail    string `json:"adminEmail"`
	AdminPassword string `json:"adminPassword"`
	AdminFullName string `json:"adminFullName"`
}

// RegisterTenantResult identifies the new tenant and its administrator
type RegisterTenantResult struct {
	TenantID string      `json:"tenantId"`
	UserID   string      `json:"userId"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
}

// LoginInput carries credentials scoped to a tenant subdomain
type LoginInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	TenantSubdomain string `json:"tenantSubdomain"`
}

// SessionUser is the user block of a login response
type SessionUser struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	FullName string      `json:"fullName"`
	Role     domain.Role `json:"role"`
	TenantID string      `json:"tenantId"`
}

// SessionTenant is the tenant block of a login response
type SessionTenant struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Subdomain        string      `json:"subdomain"`
	SubscriptionPlan domain.Plan `json:"subscriptionPlan"`
}

// LoginResult represents login response
type LoginResult struct {
	Token     string        `json:"token"`
	ExpiresIn int           `json:"expiresIn"` // seconds
	User      SessionUser   `json:"user"`
	Tenant    SessionTenant `json:"tenant"`
}

// TokenResult is a freshly issued token
type TokenResult struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

// ProfileTenant is the tenant block of the caller profile
type ProfileTenant struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Subdomain        string      `json:"subdomain"`
	SubscriptionPlan domain.Plan `json:"subscriptionPlan"`
	MaxUsers         int         `json:"maxUsers"`
	MaxProjects      int         `json:"maxProjects"`
}

// Profile is the caller joined with its tenant
type Profile struct {
	ID       string        `json:"id"`
	Email    string        `json:"email"`
	FullName string        `json:"fullName"`
	Role     domain.Role   `json:"role"`
	IsActive bool          `json:"isActive"`
	Tenant   ProfileTenant `json:"tenant"`
}

// TokenInfo echoes a verified identity
type TokenInfo struct {
	UserID    string      `json:"userId"`
	TenantID  string      `json:"tenantId"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// RegisterTenant creates a tenant on the free plan together with its first
// administrator. Both records are written atomically.
func (s *AuthService) RegisterTenant(ctx context.Context, in RegisterTenantInput) (_ *RegisterTenantResult, err error) {
	ctx, span := tracing.Start(ctx, "AuthService.RegisterTenant", "")
	defer func() { tracing.End(span, err) }()

	name, err := required("tenantName", in.TenantName)
	if err != nil {
		return nil, err
	}
	subdomain, err := normalizeSubdomain(in.Subdomain)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail("adminEmail", in.AdminEmail)
	if err != nil {
		return nil, err
	}
	if err := checkPassword("adminPassword", in.AdminPassword); err != nil {
		return nil, err
	}
	fullName, err := required("adminFullName", in.AdminFullName)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.AdminPassword)
	if err != nil {
		return nil, err
	}

	limits := domain.LimitsFor(domain.PlanFree)
	tenant := &domain.Tenant{
		ID:               uuid.NewString(),
		Name:             name,
		Subdomain:        subdomain,
		Status:           domain.TenantActive,
		SubscriptionPlan: domain.PlanFree,
		MaxUsers:         limits.MaxUsers,
		MaxProjects:      limits.MaxProjects,
	}
	admin := &domain.User{
		ID:           uuid.NewString(),
		TenantID:     tenant.ID,
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         domain.RoleTenantAdmin,
		IsActive:     true,
	}

	if err := s.tenants.CreateWithAdmin(ctx, tenant, admin); err != nil {
		metrics.ObserveRegistration("failure")
		return nil, err
	}

	metrics.ObserveRegistration("success")
	s.logger.Info("tenant registered",
		slog.String("tenant_id", tenant.ID),
		slog.String("subdomain", tenant.Subdomain),
	)

	return &RegisterTenantResult{
		TenantID: tenant.ID,
		UserID:   admin.ID,
		Email:    admin.Email,
		Role:     admin.Role,
	}, nil
}

// Login authenticates a user of the tenant named by subdomain. Every
// credential failure returns the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	subdomain := strings.ToLower(strings.TrimSpace(in.TenantSubdomain))
	if email == "" || in.Password == "" || subdomain == "" {
		return nil, invalid("email, password and tenantSubdomain are required")
	}

	user, err := s.users.GetByEmailInTenant(ctx, email, subdomain)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			auth.CompareMissing(in.Password)
			return nil, s.loginFailed("unknown user", subdomain)
		}
		return nil, err
	}

	if !auth.ComparePassword(user.PasswordHash, in.Password) {
		return nil, s.loginFailed("wrong password", subdomain)
	}
	if !user.IsActive {
		return nil, s.loginFailed("inactive user", subdomain)
	}

	tenant, err := s.tenants.GetByID(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Status != domain.TenantActive {
		return nil, s.loginFailed("tenant suspended", subdomain)
	}

	token, _, err := s.tokens.Issue(user.ID, user.TenantID, user.Role)
	if err != nil {
		return nil, err
	}

	metrics.ObserveAuth("login", "success")
	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("tenant_id", user.TenantID),
	)

	return &LoginResult{
		Token:     token,
		ExpiresIn: s.expiresIn(),
		User: SessionUser{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role,
			TenantID: user.TenantID,
		},
		Tenant: SessionTenant{
			ID:               tenant.ID,
			Name:             tenant.Name,
			Subdomain:        tenant.Subdomain,
			SubscriptionPlan: tenant.SubscriptionPlan,
		},
	}, nil
}

func (s *AuthService) loginFailed(reason, subdomain string) error {
	metrics.ObserveAuth("login", "failure")
	s.logger.Info("login failed",
		slog.String("reason", reason),
		slog.String("subdomain", subdomain),
	)
	return domain.Errorf(domain.ErrInvalidCredentials, "Invalid credentials")
}

// Me returns the caller's profile with its tenant
func (s *AuthService) Me(ctx context.Context, id auth.Identity) (*Profile, error) {
	user, err := s.users.GetByID(ctx, id.TenantID, id.UserID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenants.GetByID(ctx, id.TenantID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
		IsActive: user.IsActive,
		Tenant: ProfileTenant{
			ID:               tenant.ID,
			Name:             tenant.Name,
			Subdomain:        tenant.Subdomain,
			SubscriptionPlan: tenant.SubscriptionPlan,
			MaxUsers:         tenant.MaxUsers,
			MaxProjects:      tenant.MaxProjects,
		},
	}, nil
}

// Logout revokes the presented token until it would have expired
func (s *AuthService) Logout(ctx context.Context, id auth.Identity) error {
	if err := s.revoked.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
		return err
	}
	s.logger.Info("user logged out", slog.String("user_id", id.UserID))
	return nil
}

// Refresh issues a new token for a caller that is still allowed to sign in
// and revokes the presented one.
func (s *AuthService) Refresh(ctx context.Context, id auth.Identity) (*TokenResult, error) {
	user, err := s.users.GetByID(ctx, id.TenantID, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	tenant, err := s.tenants.GetByID(ctx, id.TenantID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive || tenant.Status != domain.TenantActive {
		return nil, domain.ErrInvalidToken
	}

	token, _, err := s.tokens.Issue(user.ID, user.TenantID, user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.revoked.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
		return nil, err
	}

	return &TokenResult{Token: token, ExpiresIn: s.expiresIn()}, nil
}

// Validate echoes the verified identity
func (s *AuthService) Validate(id auth.Identity) TokenInfo {
	return TokenInfo{
		UserID:    id.UserID,
		TenantID:  id.TenantID,
		Role:      id.Role,
		ExpiresAt: id.ExpiresAt,
	}
}

func (s *AuthService) expiresIn() int {
	return int(s.tokens.TTL().Seconds())
}
