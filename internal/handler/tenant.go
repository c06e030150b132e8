package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/taskflow/internal/domain"
	"github.com/yourorg/taskflow/internal/envelope"
	"github.com/yourorg/taskflow/internal/security/auth"
	"github.com/yourorg/taskflow/internal/service"
)

// TenantHandler serves tenant details and tenant user management
type TenantHandler struct {
	tenants *service.TenantService
	logger  *slog.Logger
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenants *service.TenantService, logger *slog.Logger) *TenantHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenantHandler{tenants: tenants, logger: logger}
}

// CreatedUser is the response body of a user creation
type CreatedUser struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	FullName string      `json:"fullName"`
	Role     domain.Role `json:"role"`
}

// Get handles GET /api/tenants/{id}
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	tenant, err := h.tenants.GetTenant(r.Context(), id, r.PathValue("id"))
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.OK(w, http.StatusOK, tenant)
}

// ListUsers handles GET /api/tenants/{tenantId}/users
func (h *TenantHandler) ListUsers(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	users, err := h.tenants.ListUsers(r.Context(), id, r.PathValue("tenantId"))
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.List(w, users)
}

// CreateUser handles POST /api/tenants/{tenantId}/users
func (h *TenantHandler) CreateUser(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req service.CreateUserInput
	if err := decodeJSON(w, r, &req); err != nil {
		envelope.Error(w, h.logger, err)
		return
	}

	user, err := h.tenants.CreateUser(r.Context(), id, r.PathValue("tenantId"), req)
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}

	envelope.OKWithMessage(w, http.StatusCreated, CreatedUser{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	}, "User created successfully")
}
