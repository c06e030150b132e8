package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/taskflow/internal/repository/memstore"
	"github.com/yourorg/taskflow/internal/security"
	"github.com/yourorg/taskflow/internal/security/auth"
	"github.com/yourorg/taskflow/internal/security/middleware"
	"github.com/yourorg/taskflow/internal/service"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Total   *int            `json:"total"`
}

type testAPI struct {
	t      *testing.T
	server *httptest.Server
}

func newTestAPI(t *testing.T, db Pinger) *testAPI {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	tokens := auth.NewTokenManager("router-test-secret", "taskflow-test", 24*time.Hour)
	revoked := auth.NewMemoryRevocationList()
	authz := security.NewAuthorizationService(log)

	if db == nil {
		db = store
	}

	router := NewRouter(RouterConfig{
		Auth:           service.NewAuthService(store.Tenants(), store.Users(), tokens, revoked, log),
		Tenants:        service.NewTenantService(store.Tenants(), store.Users(), authz, log),
		Projects:       service.NewProjectService(store.Projects(), store.Tenants(), authz, false, log),
		Tasks:          service.NewTaskService(store.Tasks(), store.Projects(), store.Users(), authz, false, log),
		Gate:           middleware.NewGate(tokens, revoked, log),
		DB:             db,
		Ready:          map[string]Pinger{"database": db},
		AllowedOrigins: []string{"http://localhost:3000"},
		Logger:         log,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testAPI{t: t, server: srv}
}

func (a *testAPI) do(method, path, token string, body any) (int, apiResponse) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func decodeData[T any](t *testing.T, r apiResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.Data, &v))
	return v
}

// registerAndLogin creates a tenant and returns the admin's token and tenant id
func (a *testAPI) registerAndLogin(subdomain string) (string, string) {
	a.t.Helper()
	status, _ := a.do(http.MethodPost, "/api/auth/register-tenant", "", map[string]string{
		"tenantName":    subdomain + " Corp",
		"subdomain":     subdomain,
		"adminEmail":    "admin@" + subdomain + ".com",
		"adminPassword": "Admin@123",
		"adminFullName": "Admin",
	})
	require.Equal(a.t, http.StatusCreated, status)

	status, resp := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":           "admin@" + subdomain + ".com",
		"password":        "Admin@123",
		"tenantSubdomain": subdomain,
	})
	require.Equal(a.t, http.StatusOK, status)
	login := decodeData[service.LoginResult](a.t, resp)
	return login.Token, login.Tenant.ID
}

func TestRegisterLoginMeScenario(t *testing.T) {
	api := newTestAPI(t, nil)

	status, resp := api.do(http.MethodPost, "/api/auth/register-tenant", "", map[string]string{
		"tenantName":    "Acme Corp",
		"subdomain":     "acme",
		"adminEmail":    "admin@acme.com",
		"adminPassword": "Admin@123",
		"adminFullName": "Acme Admin",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, resp.Success)
	reg := decodeData[service.RegisterTenantResult](t, resp)
	assert.Equal(t, "tenantadmin", string(reg.Role))
	assert.NotEmpty(t, reg.TenantID)

	status, resp = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":           "admin@acme.com",
		"password":        "Admin@123",
		"tenantSubdomain": "acme",
	})
	require.Equal(t, http.StatusOK, status)
	login := decodeData[service.LoginResult](t, resp)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, 86400, login.ExpiresIn)
	assert.Equal(t, reg.TenantID, login.User.TenantID)

	status, resp = api.do(http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decodeData[service.Profile](t, resp)
	assert.Equal(t, "admin@acme.com", me.Email)
	assert.Equal(t, "tenantadmin", string(me.Role))
	assert.Equal(t, "acme", me.Tenant.Subdomain)
	assert.Equal(t, "free", string(me.Tenant.SubscriptionPlan))
	assert.Equal(t, 5, me.Tenant.MaxUsers)
}

func TestRegisterDuplicateSubdomain(t *testing.T) {
	api := newTestAPI(t, nil)
	api.registerAndLogin("acme")

	status, resp := api.do(http.MethodPost, "/api/auth/register-tenant", "", map[string]string{
		"tenantName":    "Acme Again",
		"subdomain":     "acme",
		"adminEmail":    "other@acme.com",
		"adminPassword": "Admin@123",
		"adminFullName": "Other",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, resp.Success)
	assert.Equal(t, "Subdomain already taken", resp.Message)
}

func TestLoginFailures(t *testing.T) {
	api := newTestAPI(t, nil)
	api.registerAndLogin("acme")

	cases := map[string]map[string]string{
		"wrong password":  {"email": "admin@acme.com", "password": "Wrong@123", "tenantSubdomain": "acme"},
		"wrong subdomain": {"email": "admin@acme.com", "password": "Admin@123", "tenantSubdomain": "globex"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			status, resp := api.do(http.MethodPost, "/api/auth/login", "", body)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.False(t, resp.Success)
			assert.Equal(t, "Invalid credentials", resp.Message)
			assert.Empty(t, resp.Data)
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t, nil)

	status, resp := api.do(http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "No token provided", resp.Message)

	status, resp = api.do(http.MethodGet, "/api/projects", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", resp.Message)
}

func TestLogoutRevokesToken(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.registerAndLogin("acme")

	status, resp := api.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", resp.Message)

	status, _ = api.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRefreshIssuesNewToken(t *testing.T) {
	api := newTestAPI(t, nil)
	token, tenantID := api.registerAndLogin("acme")

	status, resp := api.do(http.MethodPost, "/api/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, status)
	fresh := decodeData[service.TokenResult](t, resp)
	require.NotEmpty(t, fresh.Token)

	status, _ = api.do(http.MethodGet, "/api/auth/validate", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, resp = api.do(http.MethodGet, "/api/auth/validate", fresh.Token, nil)
	require.Equal(t, http.StatusOK, status)
	info := decodeData[service.TokenInfo](t, resp)
	assert.Equal(t, tenantID, info.TenantID)
}

func TestUserManagement(t *testing.T) {
	api := newTestAPI(t, nil)
	token, tenantID := api.registerAndLogin("acme")
	_, otherTenant := api.registerAndLogin("globex")

	status, resp := api.do(http.MethodPost, "/api/tenants/"+tenantID+"/users", token, map[string]string{
		"email":    "dev@acme.com",
		"password": "Dev@12345",
		"fullName": "Dev",
	})
	require.Equal(t, http.StatusCreated, status)
	created := decodeData[CreatedUser](t, resp)
	assert.Equal(t, "user", string(created.Role))

	status, resp = api.do(http.MethodGet, "/api/tenants/"+tenantID+"/users", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, resp.Total)
	assert.Equal(t, 2, *resp.Total)
	assert.NotContains(t, string(resp.Data), "asswordHash")

	status, resp = api.do(http.MethodGet, "/api/tenants/"+otherTenant+"/users", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Access denied", resp.Message)

	status, _ = api.do(http.MethodGet, "/api/tenants/"+otherTenant, token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = api.do(http.MethodGet, "/api/tenants/"+tenantID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"subdomain":"acme"`)
}

func TestUserLimit(t *testing.T) {
	api := newTestAPI(t, nil)
	token, tenantID := api.registerAndLogin("acme")

	for _, email := range []string{"a@acme.com", "b@acme.com", "c@acme.com", "d@acme.com"} {
		status, _ := api.do(http.MethodPost, "/api/tenants/"+tenantID+"/users", token, map[string]string{
			"email": email, "password": "User@1234", "fullName": "U",
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, resp := api.do(http.MethodPost, "/api/tenants/"+tenantID+"/users", token, map[string]string{
		"email": "e@acme.com", "password": "User@1234", "fullName": "U",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "User limit reached", resp.Message)

	_, resp = api.do(http.MethodGet, "/api/tenants/"+tenantID+"/users", token, nil)
	require.NotNil(t, resp.Total)
	assert.Equal(t, 5, *resp.Total)
}

func TestProjectAndTaskLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.registerAndLogin("acme")

	status, resp := api.do(http.MethodPost, "/api/projects", token, map[string]string{
		"name": "Website", "description": "Redesign",
	})
	require.Equal(t, http.StatusCreated, status)
	project := decodeData[map[string]any](t, resp)
	projectID := project["id"].(string)
	assert.Equal(t, "active", project["status"])

	status, resp = api.do(http.MethodPost, "/api/projects/"+projectID+"/tasks", token, map[string]string{
		"title": "Mockups", "description": "Landing page", "priority": "high", "dueDate": "2026-12-31",
	})
	require.Equal(t, http.StatusCreated, status)
	task := decodeData[map[string]any](t, resp)
	taskID := task["id"].(string)
	assert.Equal(t, "todo", task["status"])

	status, resp = api.do(http.MethodPatch, "/api/tasks/"+taskID+"/status", token, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":"`+taskID+`","status":"in_progress"}`, string(resp.Data))

	// Partial update keeps omitted fields
	status, resp = api.do(http.MethodPut, "/api/tasks/"+taskID, token, map[string]string{"title": "Hi-fi mockups"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Task updated successfully", resp.Message)
	updated := decodeData[map[string]any](t, resp)
	assert.Equal(t, "Hi-fi mockups", updated["title"])
	assert.Equal(t, "Landing page", updated["description"])
	assert.Equal(t, "high", updated["priority"])
	assert.Equal(t, "in_progress", updated["status"])

	status, resp = api.do(http.MethodGet, "/api/projects/"+projectID+"/tasks?status=in_progress", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, resp.Total)
	assert.Equal(t, 1, *resp.Total)

	status, resp = api.do(http.MethodPut, "/api/projects/"+projectID, token, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"name":"Website"`)

	status, resp = api.do(http.MethodDelete, "/api/tasks/"+taskID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Task deleted successfully", resp.Message)

	status, resp = api.do(http.MethodDelete, "/api/projects/"+projectID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Project deleted successfully", resp.Message)

	status, resp = api.do(http.MethodGet, "/api/projects/"+projectID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Project not found", resp.Message)
}

func TestCrossTenantAccess(t *testing.T) {
	api := newTestAPI(t, nil)
	acme, _ := api.registerAndLogin("acme")
	globex, _ := api.registerAndLogin("globex")

	_, resp := api.do(http.MethodPost, "/api/projects", acme, map[string]string{"name": "Secret"})
	projectID := decodeData[map[string]any](t, resp)["id"].(string)
	_, resp = api.do(http.MethodPost, "/api/projects/"+projectID+"/tasks", acme, map[string]string{"title": "Hidden"})
	taskID := decodeData[map[string]any](t, resp)["id"].(string)

	requests := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/api/projects/" + projectID, nil},
		{http.MethodPut, "/api/projects/" + projectID, map[string]string{"name": "Mine"}},
		{http.MethodGet, "/api/projects/" + projectID + "/tasks", nil},
		{http.MethodPost, "/api/projects/" + projectID + "/tasks", map[string]string{"title": "Injected"}},
		{http.MethodGet, "/api/tasks/" + taskID, nil},
		{http.MethodPatch, "/api/tasks/" + taskID + "/status", map[string]string{"status": "completed"}},
		{http.MethodPut, "/api/tasks/" + taskID, map[string]string{"title": "Mine"}},
	}
	for _, tc := range requests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			status, _ := api.do(tc.method, tc.path, globex, tc.body)
			assert.Equal(t, http.StatusNotFound, status)
		})
	}

	_, resp = api.do(http.MethodGet, "/api/projects", globex, nil)
	require.NotNil(t, resp.Total)
	assert.Equal(t, 0, *resp.Total)

	status, resp := api.do(http.MethodGet, "/api/tasks/"+taskID, acme, nil)
	require.Equal(t, http.StatusOK, status)
	task := decodeData[map[string]any](t, resp)
	assert.Equal(t, "Hidden", task["title"])
	assert.Equal(t, "todo", task["status"])
}

func TestValidationErrors(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.registerAndLogin("acme")

	status, resp := api.do(http.MethodPost, "/api/projects", token, map[string]string{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "name is required", resp.Message)

	req, err := http.NewRequest(http.MethodPost, api.server.URL+"/api/projects", bytes.NewBufferString(`{"name":`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := api.server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	req, err = http.NewRequest(http.MethodPost, api.server.URL+"/api/projects", bytes.NewBufferString(`name=x`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	res2, err := api.server.Client().Do(req)
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, res2.StatusCode)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil)

	status, resp := api.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	health := decodeData[HealthResponse](t, resp)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "connected", health.Database)
	assert.False(t, health.Timestamp.IsZero())

	status, _ = api.do(http.MethodGet, "/api/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestHealthDatabaseDown(t *testing.T) {
	down := PingerFunc(func(context.Context) error {
		return errors.New("dial tcp 10.0.0.7:5432: connection refused")
	})
	api := newTestAPI(t, down)

	status, resp := api.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "disconnected", decodeData[HealthResponse](t, resp).Database)

	status, resp = api.do(http.MethodGet, "/api/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	ready := decodeData[ReadinessResponse](t, resp)
	assert.Equal(t, "not_ready", ready.Status)
	assert.Equal(t, "error", ready.Checks["database"])
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t, nil)

	status, resp := api.do(http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Route not found", resp.Message)
}
