// Package envelope writes every API response in one JSON shape:
// {"success": bool, "data"?: any, "message"?: string, "total"?: int}.
package envelope

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/taskflow/internal/domain"
)

const internalMessage = "Internal server error"

// Response is the wire envelope
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Total   *int   `json:"total,omitempty"`
}

// Write encodes resp with the given status
func Write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a success envelope carrying data
func OK(w http.ResponseWriter, status int, data any) {
	Write(w, status, Response{Success: true, Data: data})
}

// OKWithMessage writes a success envelope carrying data and a message
func OKWithMessage(w http.ResponseWriter, status int, data any, message string) {
	Write(w, status, Response{Success: true, Data: data, Message: message})
}

// List writes a success envelope with the item count in total
func List[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	Write(w, http.StatusOK, Response{Success: true, Data: items, Total: &n})
}

// Message writes a success envelope with only a message
func Message(w http.ResponseWriter, message string) {
	Write(w, http.StatusOK, Response{Success: true, Message: message})
}

// Fail writes a failure envelope
func Fail(w http.ResponseWriter, status int, message string) {
	Write(w, status, Response{Success: false, Message: message})
}

// Error maps err onto a status code and writes a failure envelope. Errors
// outside the domain categories are logged and answered with a generic 500.
func Error(w http.ResponseWriter, log *slog.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		if log == nil {
			log = slog.Default()
		}
		log.Error("request failed", slog.String("error", err.Error()))
		Fail(w, status, internalMessage)
		return
	}
	Fail(w, status, clientMessage(err))
}

// StatusFor returns the HTTP status for an error category
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoToken), errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrLimitExceeded):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func clientMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Message
	}
	switch {
	case errors.Is(err, domain.ErrNoToken):
		return "No token provided"
	case errors.Is(err, domain.ErrInvalidToken):
		return "Invalid token"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, domain.ErrForbidden):
		return "Access denied"
	case errors.Is(err, domain.ErrNotFound):
		return "Not found"
	}
	return err.Error()
}
