package repository

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/yourorg/taskflow/internal/domain"
)

var tenantColumns = []string{
	"id", "name", "subdomain", "status", "subscriptionplan",
	"maxusers", "maxprojects", "createdat", "updatedat",
}

// PostgresTenantRepository implements domain.TenantRepository using PostgreSQL
type PostgresTenantRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresTenantRepository creates a new tenant repository
func NewPostgresTenantRepository(db *sqlx.DB, logger *slog.Logger) *PostgresTenantRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTenantRepository{db: db, logger: logger}
}

// CreateWithAdmin inserts the tenant and its administrator in one
// transaction. Any failure rolls both back.
func (r *PostgresTenantRepository) CreateWithAdmin(ctx context.Context, tenant *domain.Tenant, admin *domain.User) error {
	ts := now()
	tenant.CreatedAt, tenant.UpdatedAt = ts, ts
	admin.CreatedAt, admin.UpdatedAt = ts, ts
	admin.TenantID = tenant.ID

	tenantQuery, tenantArgs, err := psql.Insert("tenants").
		Columns(tenantColumns...).
		Values(tenant.ID, tenant.Name, tenant.Subdomain, tenant.Status, tenant.SubscriptionPlan,
			tenant.MaxUsers, tenant.MaxProjects, tenant.CreatedAt, tenant.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}

	userQuery, userArgs, err := insertUser(admin).ToSql()
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin registration: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tenantQuery, tenantArgs...); err != nil {
		tx.Rollback()
		return translate(err, "failed to insert tenant", "Subdomain already taken")
	}

	if _, err := tx.ExecContext(ctx, userQuery, userArgs...); err != nil {
		tx.Rollback()
		return translate(err, "failed to insert admin user", "Email already registered")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration: %w", err)
	}

	r.logger.Debug("tenant registered",
		slog.String("tenant_id", tenant.ID),
		slog.String("subdomain", tenant.Subdomain),
	)
	return nil
}

// GetByID retrieves a tenant by ID
func (r *PostgresTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	query, args, err := psql.Select(tenantColumns...).
		From("tenants").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	t := &domain.Tenant{}
	if err := r.db.GetContext(ctx, t, query, args...); err != nil {
		if noRow(err) {
			return nil, domain.Errorf(domain.ErrNotFound, "Tenant not found")
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return t, nil
}
