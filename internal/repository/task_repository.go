package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/yourorg/taskflow/internal/domain"
)

var taskColumns = []string{
	"id", "projectid", "tenantid", "title", "description", "status",
	"priority", "assignedto", "duedate", "createdat", "updatedat",
}

// PostgresTaskRepository implements domain.TaskRepository. Every statement
// filters on tenantid.
type PostgresTaskRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresTaskRepository creates a new task repository
func NewPostgresTaskRepository(db *sqlx.DB, logger *slog.Logger) *PostgresTaskRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskRepository{db: db, logger: logger}
}

func errTaskNotFound() error {
	return domain.Errorf(domain.ErrNotFound, "Task not found")
}

// Create inserts a task
func (r *PostgresTaskRepository) Create(ctx context.Context, t *domain.Task) error {
	ts := now()
	t.CreatedAt, t.UpdatedAt = ts, ts

	query, args, err := psql.Insert("tasks").
		Columns(taskColumns...).
		Values(t.ID, t.ProjectID, t.TenantID, t.Title, t.Description, t.Status,
			t.Priority, t.AssignedTo, t.DueDate, t.CreatedAt, t.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return translate(err, "failed to create task", "Task already exists")
	}
	return nil
}

// GetByID retrieves a task of the given tenant
func (r *PostgresTaskRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Task, error) {
	query, args, err := psql.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"tenantid": tenantID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	t := &domain.Task{}
	if err := r.db.GetContext(ctx, t, query, args...); err != nil {
		if noRow(err) {
			return nil, errTaskNotFound()
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListByProject returns the project's tasks matching filter, newest first
func (r *PostgresTaskRepository) ListByProject(ctx context.Context, tenantID, projectID string, filter domain.TaskFilter) ([]*domain.Task, error) {
	q := psql.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"projectid": projectID}).
		Where(sq.Eq{"tenantid": tenantID})

	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Priority != "" {
		q = q.Where(sq.Eq{"priority": filter.Priority})
	}
	if filter.AssignedTo != "" {
		q = q.Where(sq.Eq{"assignedto": filter.AssignedTo})
	}

	query, args, err := q.OrderBy("createdat DESC").ToSql()
	if err != nil {
		return nil, err
	}

	out := []*domain.Task{}
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		// a malformed assignee filter cannot match any task
		if malformedID(err) {
			return []*domain.Task{}, nil
		}
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return out, nil
}

// Update applies the non-nil fields of patch and returns the stored row.
// An empty AssignedTo clears the assignment.
func (r *PostgresTaskRepository) Update(ctx context.Context, tenantID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	q := psql.Update("tasks").
		Set("updatedat", now())

	if patch.Title != nil {
		q = q.Set("title", *patch.Title)
	}
	if patch.Description != nil {
		q = q.Set("description", *patch.Description)
	}
	if patch.Status != nil {
		q = q.Set("status", *patch.Status)
	}
	if patch.Priority != nil {
		q = q.Set("priority", *patch.Priority)
	}
	if patch.AssignedTo != nil {
		if *patch.AssignedTo == "" {
			q = q.Set("assignedto", nil)
		} else {
			q = q.Set("assignedto", *patch.AssignedTo)
		}
	}
	if patch.DueDate != nil {
		q = q.Set("duedate", *patch.DueDate)
	}

	query, args, err := q.
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"tenantid": tenantID}).
		Suffix("RETURNING " + strings.Join(taskColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}

	t := &domain.Task{}
	if err := r.db.GetContext(ctx, t, query, args...); err != nil {
		if noRow(err) {
			return nil, errTaskNotFound()
		}
		return nil, translate(err, "failed to update task", "Task already exists")
	}
	return t, nil
}

// Delete removes a task and reports whether one matched
func (r *PostgresTaskRepository) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	query, args, err := psql.Delete("tasks").
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"tenantid": tenantID}).
		ToSql()
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if malformedID(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows > 0, nil
}
