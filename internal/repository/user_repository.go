package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/yourorg/taskflow/internal/domain"
)

var userColumns = []string{
	"id", "tenantid", "email", "passwordhash", "fullname",
	"role", "isactive", "createdat", "updatedat",
}

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sqlx.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserRepository{
		db:     db,
		logger: logger,
	}
}

func insertUser(u *domain.User) sq.InsertBuilder {
	return psql.Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.TenantID, u.Email, u.PasswordHash, u.FullName,
			u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
}

// Create inserts a user unless the tenant already holds limit users
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User, limit int) error {
	ts := now()
	user.CreatedAt, user.UpdatedAt = ts, ts

	err := cappedInsert{
		table:       "users",
		tenantID:    user.TenantID,
		limit:       limit,
		limitMsg:    "User limit reached",
		insert:      insertUser(user),
		op:          "failed to create user",
		conflictMsg: "Email already exists in this tenant",
	}.exec(ctx, r.db)
	if err != nil && !errors.Is(err, domain.ErrLimitExceeded) {
		r.logger.Error("failed to create user",
			slog.String("tenant_id", user.TenantID),
			slog.String("error", err.Error()),
		)
	}
	return err
}

// GetByID retrieves a user of the given tenant
func (r *PostgresUserRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.User, error) {
	query, args, err := psql.Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"tenantid": tenantID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	user := &domain.User{}
	if err := r.db.GetContext(ctx, user, query, args...); err != nil {
		if noRow(err) {
			return nil, domain.Errorf(domain.ErrNotFound, "User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByEmailInTenant looks a user up by email within the tenant that owns
// subdomain. It is the only user query keyed by subdomain instead of tenant id.
func (r *PostgresUserRepository) GetByEmailInTenant(ctx context.Context, email, subdomain string) (*domain.User, error) {
	cols := make([]string, len(userColumns))
	for i, c := range userColumns {
		cols[i] = "u." + c
	}

	query, args, err := psql.Select(cols...).
		From("users u").
		Join("tenants t ON t.id = u.tenantid").
		Where(sq.Eq{"u.email": email}).
		Where(sq.Eq{"t.subdomain": subdomain}).
		ToSql()
	if err != nil {
		return nil, err
	}

	user := &domain.User{}
	if err := r.db.GetContext(ctx, user, query, args...); err != nil {
		if noRow(err) {
			return nil, domain.Errorf(domain.ErrNotFound, "User not found")
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// ListByTenant lists the users of a tenant, newest first
func (r *PostgresUserRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.User, error) {
	query, args, err := psql.Select(userColumns...).
		From("users").
		Where(sq.Eq{"tenantid": tenantID}).
		OrderBy("createdat DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	users := []*domain.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		r.logger.Error("failed to list users by tenant",
			slog.String("tenant_id", tenantID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}
