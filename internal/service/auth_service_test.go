package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/taskflow/internal/domain"
	"github.com/yourorg/taskflow/internal/repository/memstore"
	"github.com/yourorg/taskflow/internal/security"
	"github.com/yourorg/taskflow/internal/security/auth"
)

type fixture struct {
	store    *memstore.Store
	tokens   *auth.TokenManager
	revoked  *auth.MemoryRevocationList
	auth     *AuthService
	tenants  *TenantService
	projects *ProjectService
	tasks    *TaskService
}

func newFixture(t *testing.T, strictDelete bool) *fixture {
	t.Helper()
	store := memstore.New()
	tokens := auth.NewTokenManager("test-secret", "taskflow-test", time.Hour)
	revoked := auth.NewMemoryRevocationList()
	authz := security.NewAuthorizationService(nil)
	return &fixture{
		store:    store,
		tokens:   tokens,
		revoked:  revoked,
		auth:     NewAuthService(store.Tenants(), store.Users(), tokens, revoked, nil),
		tenants:  NewTenantService(store.Tenants(), store.Users(), authz, nil),
		projects: NewProjectService(store.Projects(), store.Tenants(), authz, strictDelete, nil),
		tasks:    NewTaskService(store.Tasks(), store.Projects(), store.Users(), authz, strictDelete, nil),
	}
}

// register creates a tenant and returns the admin's identity
func (f *fixture) register(t *testing.T, subdomain string) auth.Identity {
	t.Helper()
	res, err := f.auth.RegisterTenant(context.Background(), RegisterTenantInput{
		TenantName:    subdomain + " inc",
		Subdomain:     subdomain,
		AdminEmail:    "admin@" + subdomain + ".com",
		AdminPassword: "Admin@123",
		AdminFullName: "Admin " + subdomain,
	})
	require.NoError(t, err)
	return f.identity(t, res.UserID, res.TenantID, res.Role)
}

func (f *fixture) identity(t *testing.T, userID, tenantID string, role domain.Role) auth.Identity {
	t.Helper()
	_, id, err := f.tokens.Issue(userID, tenantID, role)
	require.NoError(t, err)
	return id
}

func TestRegisterTenant(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	res, err := f.auth.RegisterTenant(ctx, RegisterTenantInput{
		TenantName:    "Acme",
		Subdomain:     "Acme",
		AdminEmail:    "Admin@Acme.com",
		AdminPassword: "Admin@123",
		AdminFullName: "Acme Admin",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTenantAdmin, res.Role)
	assert.Equal(t, "admin@acme.com", res.Email)

	tenant, err := f.store.Tenants().GetByID(ctx, res.TenantID)
	require.NoError(t, err)
	assert.Equal(t, "acme", tenant.Subdomain)
	assert.Equal(t, domain.PlanFree, tenant.SubscriptionPlan)
	assert.Equal(t, 5, tenant.MaxUsers)
	assert.Equal(t, 3, tenant.MaxProjects)
	assert.Equal(t, domain.TenantActive, tenant.Status)

	// Duplicate subdomain
	_, err = f.auth.RegisterTenant(ctx, RegisterTenantInput{
		TenantName:    "Other",
		Subdomain:     "acme",
		AdminEmail:    "someone@else.com",
		AdminPassword: "Admin@123",
		AdminFullName: "Someone",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegisterTenantValidation(t *testing.T) {
	f := newFixture(t, false)
	valid := RegisterTenantInput{
		TenantName:    "Acme",
		Subdomain:     "acme",
		AdminEmail:    "admin@acme.com",
		AdminPassword: "Admin@123",
		AdminFullName: "Acme Admin",
	}

	cases := map[string]func(in *RegisterTenantInput){
		"missing name":    func(in *RegisterTenantInput) { in.TenantName = " " },
		"bad subdomain":   func(in *RegisterTenantInput) { in.Subdomain = "a_b" },
		"short subdomain": func(in *RegisterTenantInput) { in.Subdomain = "ab" },
		"bad email":       func(in *RegisterTenantInput) { in.AdminEmail = "not-an-email" },
		"short password":  func(in *RegisterTenantInput) { in.AdminPassword = "short" },
		"missing admin":   func(in *RegisterTenantInput) { in.AdminFullName = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			_, err := f.auth.RegisterTenant(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	admin := f.register(t, "acme")

	res, err := f.auth.Login(ctx, LoginInput{
		Email:           "ADMIN@acme.com",
		Password:        "Admin@123",
		TenantSubdomain: "acme",
	})
	require.NoError(t, err)
	assert.Equal(t, 3600, res.ExpiresIn)
	assert.Equal(t, admin.UserID, res.User.ID)
	assert.Equal(t, "acme", res.Tenant.Subdomain)

	id, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.TenantID, id.TenantID)
	assert.Equal(t, domain.RoleTenantAdmin, id.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	admin := f.register(t, "acme")
	f.register(t, "globex")

	cases := map[string]LoginInput{
		"wrong password":  {Email: "admin@acme.com", Password: "nope-nope", TenantSubdomain: "acme"},
		"unknown user":    {Email: "ghost@acme.com", Password: "Admin@123", TenantSubdomain: "acme"},
		"wrong subdomain": {Email: "admin@acme.com", Password: "Admin@123", TenantSubdomain: "globex"},
		"no such tenant":  {Email: "admin@acme.com", Password: "Admin@123", TenantSubdomain: "initech"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.auth.Login(ctx, in)
			assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
			assert.EqualError(t, err, "Invalid credentials")
		})
	}

	t.Run("suspended tenant", func(t *testing.T) {
		require.NoError(t, f.store.Tenants().SetStatus(admin.TenantID, domain.TenantSuspended))
		_, err := f.auth.Login(ctx, LoginInput{Email: "admin@acme.com", Password: "Admin@123", TenantSubdomain: "acme"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestLoginUnknownUserPaysHashCost(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.register(t, "acme")

	// warm the comparison hash so neither timing includes its generation
	auth.CompareMissing("warmup")

	timed := func(in LoginInput) time.Duration {
		start := time.Now()
		_, err := f.auth.Login(ctx, in)
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
		return time.Since(start)
	}

	wrongPassword := timed(LoginInput{Email: "admin@acme.com", Password: "nope-nope", TenantSubdomain: "acme"})
	unknownUser := timed(LoginInput{Email: "ghost@acme.com", Password: "nope-nope", TenantSubdomain: "acme"})
	assert.Greater(t, unknownUser, wrongPassword/4)
}

func TestLoginInactiveUser(t *testing.T) {
	f := newFixture(t, false)
	admin := f.register(t, "acme")
	require.NoError(t, f.store.Users().SetActive(admin.UserID, false))

	_, err := f.auth.Login(context.Background(), LoginInput{Email: "admin@acme.com", Password: "Admin@123", TenantSubdomain: "acme"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestMe(t *testing.T) {
	f := newFixture(t, false)
	admin := f.register(t, "acme")

	profile, err := f.auth.Me(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, "admin@acme.com", profile.Email)
	assert.True(t, profile.IsActive)
	assert.Equal(t, "acme", profile.Tenant.Subdomain)
	assert.Equal(t, 5, profile.Tenant.MaxUsers)
	assert.Equal(t, 3, profile.Tenant.MaxProjects)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	admin := f.register(t, "acme")

	require.NoError(t, f.auth.Logout(ctx, admin))

	revoked, err := f.revoked.IsRevoked(ctx, admin.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	admin := f.register(t, "acme")

	res, err := f.auth.Refresh(ctx, admin)
	require.NoError(t, err)

	fresh, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.NotEqual(t, admin.TokenID, fresh.TokenID)

	revoked, err := f.revoked.IsRevoked(ctx, admin.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked, "old token should be revoked")

	// Deactivated users cannot refresh
	require.NoError(t, f.store.Users().SetActive(admin.UserID, false))
	_, err = f.auth.Refresh(ctx, fresh)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestValidateEchoesIdentity(t *testing.T) {
	f := newFixture(t, false)
	admin := f.register(t, "acme")

	info := f.auth.Validate(admin)
	assert.Equal(t, admin.UserID, info.UserID)
	assert.Equal(t, admin.TenantID, info.TenantID)
	assert.Equal(t, admin.Role, info.Role)
	assert.Equal(t, admin.ExpiresAt, info.ExpiresAt)
}
