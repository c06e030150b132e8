package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/taskflow/internal/envelope"
	"github.com/yourorg/taskflow/internal/security/auth"
	"github.com/yourorg/taskflow/internal/service"
)

// ProjectHandler serves the caller tenant's projects
type ProjectHandler struct {
	projects *service.ProjectService
	logger   *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projects *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectHandler{projects: projects, logger: logger}
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req service.CreateProjectInput
	if err := decodeJSON(w, r, &req); err != nil {
		envelope.Error(w, h.logger, err)
		return
	}

	project, err := h.projects.Create(r.Context(), id, req)
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.OK(w, http.StatusCreated, project)
}

// List handles GET /api/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	projects, err := h.projects.List(r.Context(), id)
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.List(w, projects)
}

// Get handles GET /api/projects/{projectId}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	project, err := h.projects.Get(r.Context(), id, r.PathValue("projectId"))
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.OK(w, http.StatusOK, project)
}

// Update handles PUT /api/projects/{projectId}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req service.UpdateProjectInput
	if err := decodeJSON(w, r, &req); err != nil {
		envelope.Error(w, h.logger, err)
		return
	}

	project, err := h.projects.Update(r.Context(), id, r.PathValue("projectId"), req)
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.OKWithMessage(w, http.StatusOK, project, "Project updated successfully")
}

// Delete handles DELETE /api/projects/{projectId}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := h.projects.Delete(r.Context(), id, r.PathValue("projectId")); err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.Message(w, "Project deleted successfully")
}
