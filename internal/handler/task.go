package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/taskflow/internal/domain"
	"github.com/yourorg/taskflow/internal/envelope"
	"github.com/yourorg/taskflow/internal/security/auth"
	"github.com/yourorg/taskflow/internal/service"
)

// TaskHandler serves tasks of the caller tenant's projects
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{tasks: tasks, logger: logger}
}

// StatusRequest is the body of a status change
type StatusRequest struct {
	Status string `json:"status"`
}

// StatusResponse echoes a task's new status
type StatusResponse struct {
	ID     string            `json:"id"`
	Status domain.TaskStatus `json:"status"`
}

// Create handles POST /api/projects/{projectId}/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req service.CreateTaskInput
	if err := decodeJSON(w, r, &req); err != nil {
		envelope.Error(w, h.logger, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), id, r.PathValue("projectId"), req)
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.OK(w, http.StatusCreated, task)
}

// List handles GET /api/projects/{projectId}/tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	q := r.URL.Query()
	tasks, err := h.tasks.List(r.Context(), id, r.PathValue("projectId"), service.ListTasksQuery{
		Status:     q.Get("status"),
		Priority:   q.Get("priority"),
		AssignedTo: q.Get("assignedTo"),
	})
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.List(w, tasks)
}

// Get handles GET /api/tasks/{taskId}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	task, err := h.tasks.Get(r.Context(), id, r.PathValue("taskId"))
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.OK(w, http.StatusOK, task)
}

// UpdateStatus handles PATCH /api/tasks/{taskId}/status
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		envelope.Error(w, h.logger, err)
		return
	}

	task, err := h.tasks.UpdateStatus(r.Context(), id, r.PathValue("taskId"), req.Status)
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.OK(w, http.StatusOK, StatusResponse{ID: task.ID, Status: task.Status})
}

// Update handles PUT /api/tasks/{taskId}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req service.UpdateTaskInput
	if err := decodeJSON(w, r, &req); err != nil {
		envelope.Error(w, h.logger, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), id, r.PathValue("taskId"), req)
	if err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.OKWithMessage(w, http.StatusOK, task, "Task updated successfully")
}

// Delete handles DELETE /api/tasks/{taskId}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := h.tasks.Delete(r.Context(), id, r.PathValue("taskId")); err != nil {
		envelope.Error(w, h.logger, err)
		return
	}
	envelope.Message(w, "Task deleted successfully")
}
