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

var projectColumns = []string{
	"id", "tenantid", "name", "description", "status",
	"createdby", "createdat", "updatedat",
}

// PostgresProjectRepository implements domain.ProjectRepository. Every
// statement filters on tenantid.
type PostgresProjectRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresProjectRepository creates a new project repository
func NewPostgresProjectRepository(db *sqlx.DB, logger *slog.Logger) *PostgresProjectRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProjectRepository{db: db, logger: logger}
}

func errProjectNotFound() error {
	return domain.Errorf(domain.ErrNotFound, "Project not found")
}

// Create inserts a project unless the tenant already holds limit projects
func (r *PostgresProjectRepository) Create(ctx context.Context, p *domain.Project, limit int) error {
	ts := now()
	p.CreatedAt, p.UpdatedAt = ts, ts

	return cappedInsert{
		table:    "projects",
		tenantID: p.TenantID,
		limit:    limit,
		limitMsg: "Project limit reached",
		insert: psql.Insert("projects").
			Columns(projectColumns...).
			Values(p.ID, p.TenantID, p.Name, p.Description, p.Status, p.CreatedBy, p.CreatedAt, p.UpdatedAt),
		op:          "failed to create project",
		conflictMsg: "Project already exists",
	}.exec(ctx, r.db)
}

// GetByID retrieves a project of the given tenant
func (r *PostgresProjectRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Project, error) {
	query, args, err := psql.Select(projectColumns...).
		From("projects").
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"tenantid": tenantID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	p := &domain.Project{}
	if err := r.db.GetContext(ctx, p, query, args...); err != nil {
		if noRow(err) {
			return nil, errProjectNotFound()
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListByTenant returns the tenant's projects, newest first
func (r *PostgresProjectRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.Project, error) {
	query, args, err := psql.Select(projectColumns...).
		From("projects").
		Where(sq.Eq{"tenantid": tenantID}).
		OrderBy("createdat DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	out := []*domain.Project{}
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return out, nil
}

// Update applies the non-nil fields of patch and returns the stored row
func (r *PostgresProjectRepository) Update(ctx context.Context, tenantID, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	q := psql.Update("projects").
		Set("updatedat", now())

	if patch.Name != nil {
		q = q.Set("name", *patch.Name)
	}
	if patch.Description != nil {
		q = q.Set("description", *patch.Description)
	}
	if patch.Status != nil {
		q = q.Set("status", *patch.Status)
	}

	query, args, err := q.
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"tenantid": tenantID}).
		Suffix("RETURNING " + strings.Join(projectColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}

	p := &domain.Project{}
	if err := r.db.GetContext(ctx, p, query, args...); err != nil {
		if noRow(err) {
			return nil, errProjectNotFound()
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

// Delete removes the project; its tasks go with it through the foreign key
func (r *PostgresProjectRepository) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	query, args, err := psql.Delete("projects").
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
		return false, fmt.Errorf("failed to delete project: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows > 0, nil
}
