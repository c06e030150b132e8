package handler

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourorg/taskflow/internal/envelope"
	"github.com/yourorg/taskflow/internal/observability/metrics"
	"github.com/yourorg/taskflow/internal/security/middleware"
	"github.com/yourorg/taskflow/internal/service"
)

// RouterConfig carries everything the HTTP surface depends on
type RouterConfig struct {
	Auth     *service.AuthService
	Tenants  *service.TenantService
	Projects *service.ProjectService
	Tasks    *service.TaskService
	Gate     *middleware.Gate

	// DB backs the health report; Ready lists readiness dependencies.
	DB    Pinger
	Ready map[string]Pinger

	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter builds the API handler with its middleware chain:
// request ID -> recover -> CORS -> content type -> sanitize -> metrics -> mux
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	authHandler := NewAuthHandler(cfg.Auth, log)
	tenantHandler := NewTenantHandler(cfg.Tenants, log)
	projectHandler := NewProjectHandler(cfg.Projects, log)
	taskHandler := NewTaskHandler(cfg.Tasks, log)
	healthHandler := NewHealthHandler(cfg.DB, cfg.Ready, log)
	protect := cfg.Gate.Protect

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /api/health", healthHandler.Health)
	mux.HandleFunc("GET /api/ready", healthHandler.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/auth/register-tenant", authHandler.RegisterTenant)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Session
	mux.Handle("GET /api/auth/me", protect(authHandler.Me))
	mux.Handle("POST /api/auth/logout", protect(authHandler.Logout))
	mux.Handle("POST /api/auth/refresh", protect(authHandler.Refresh))
	mux.Handle("GET /api/auth/validate", protect(authHandler.Validate))

	// Tenants and users
	mux.Handle("GET /api/tenants/{id}", protect(tenantHandler.Get))
	mux.Handle("GET /api/tenants/{tenantId}/users", protect(tenantHandler.ListUsers))
	mux.Handle("POST /api/tenants/{tenantId}/users", protect(tenantHandler.CreateUser))

	// Projects
	mux.Handle("GET /api/projects", protect(projectHandler.List))
	mux.Handle("POST /api/projects", protect(projectHandler.Create))
	mux.Handle("GET /api/projects/{projectId}", protect(projectHandler.Get))
	mux.Handle("PUT /api/projects/{projectId}", protect(projectHandler.Update))
	mux.Handle("DELETE /api/projects/{projectId}", protect(projectHandler.Delete))

	// Tasks
	mux.Handle("GET /api/projects/{projectId}/tasks", protect(taskHandler.List))
	mux.Handle("POST /api/projects/{projectId}/tasks", protect(taskHandler.Create))
	mux.Handle("GET /api/tasks/{taskId}", protect(taskHandler.Get))
	mux.Handle("PATCH /api/tasks/{taskId}/status", protect(taskHandler.UpdateStatus))
	mux.Handle("PUT /api/tasks/{taskId}", protect(taskHandler.Update))
	mux.Handle("DELETE /api/tasks/{taskId}", protect(taskHandler.Delete))

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		envelope.Fail(w, http.StatusNotFound, "Route not found")
	})

	var h http.Handler = metrics.HTTPMetricsMiddleware(mux)
	h = middleware.SanitizeInputs(log)(h)
	h = middleware.ValidateJSONContentType(log)(h)
	h = middleware.CORS(cfg.AllowedOrigins)(h)
	h = middleware.Recover(log)(h)
	h = middleware.RequestID(log)(h)
	return h
}
