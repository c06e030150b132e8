package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/yourorg/taskflow/internal/domain"
	"github.com/yourorg/taskflow/internal/envelope"
	"github.com/yourorg/taskflow/internal/security/auth"
	"github.com/yourorg/taskflow/internal/service"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a bounded JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return domain.Errorf(domain.ErrValidation, "Request body too large")
		case errors.Is(err, io.EOF):
			return domain.Errorf(domain.ErrValidation, "Request body is required")
		default:
			return domain.Errorf(domain.ErrValidation, "Invalid JSON body")
		}
	}
	return nil
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterTenant handles POST /api/auth/register-tenant
func (h *AuthHandler) RegisterTenant(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterTenantInput
	if err := decodeJSON(w, r, &req); err != nil {
		envelope.Error(w, h.logger, err)
		return
	}

	res, err := h.authService.RegisterTenant(r.Context(), req)
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.OKWithMessage(w, http.StatusCreated, res, "Tenant registered successfully")
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := decodeJSON(w, r, &req); err != nil {
		envelope.Error(w, h.logger, err)
		return
	}

	res, err := h.authService.Login(r.Context(), req)
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.OK(w, http.StatusOK, res)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	profile, err := h.authService.Me(r.Context(), id)
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.OK(w, http.StatusOK, profile)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := h.authService.Logout(r.Context(), id); err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.Message(w, "Logged out successfully")
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	res, err := h.authService.Refresh(r.Context(), id)
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.OK(w, http.StatusOK, res)
}

// Validate handles GET /api/auth/validate
func (h *AuthHandler) Validate(w http.ResponseWriter, _ *http.Request, id auth.Identity) {
	envelope.OK(w, http.StatusOK, h.authService.Validate(id))
}
