package service

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/yourorg/taskflow/internal/domain"
)

const minPasswordLength = 8

var subdomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)

func invalid(format string, args ...any) error {
	return domain.Errorf(domain.ErrValidation, format, args...)
}

// required returns the trimmed value or a validation error naming field
func required(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", invalid("%s is required", field)
	}
	return v, nil
}

func normalizeEmail(field, value string) (string, error) {
	v, err := required(field, value)
	if err != nil {
		return "", err
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return "", invalid("%s must be a valid email address", field)
	}
	return strings.ToLower(v), nil
}

func normalizeSubdomain(value string) (string, error) {
	v, err := required("subdomain", value)
	if err != nil {
		return "", err
	}
	v = strings.ToLower(v)
	if !subdomainPattern.MatchString(v) {
		return "", invalid("subdomain must be 3-63 lowercase letters, digits or hyphens")
	}
	return v, nil
}

func checkPassword(field, value string) error {
	if len(value) < minPasswordLength {
		return invalid("%s must be at least %d characters", field, minPasswordLength)
	}
	return nil
}

// parseDueDate accepts a calendar date or an RFC 3339 timestamp. A timestamp
// keeps the calendar date of its own offset.
func parseDueDate(value string) (*time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, nil
	}
	if d, err := time.Parse(time.DateOnly, v); err == nil {
		return &d, nil
	}
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		y, m, day := ts.Date()
		d := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
		return &d, nil
	}
	return nil, invalid("dueDate must be YYYY-MM-DD")
}

func parseTaskStatus(value string) (domain.TaskStatus, error) {
	s := domain.TaskStatus(strings.TrimSpace(value))
	if !s.Valid() {
		return "", invalid("status must be one of todo, in_progress, completed")
	}
	return s, nil
}

func parsePriority(value string) (domain.TaskPriority, error) {
	p := domain.TaskPriority(strings.TrimSpace(value))
	if !p.Valid() {
		return "", invalid("priority must be one of low, medium, high")
	}
	return p, nil
}

func parseProjectStatus(value string) (domain.ProjectStatus, error) {
	s := domain.ProjectStatus(strings.TrimSpace(value))
	if !s.Valid() {
		return "", invalid("status must be one of active, archived, completed")
	}
	return s, nil
}
