package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/yourorg/taskflow/internal/domain"
)

// psql builds statements with PostgreSQL $n placeholders
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqInvalidTextRep      = "22P02"
)

// noRow reports whether err means the addressed row cannot exist: either no
// row matched or the id is not a valid UUID.
func noRow(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || malformedID(err)
}

func malformedID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRep
}

// translate maps driver errors onto domain categories. conflictMsg is the
// client message used for unique violations.
func translate(err error, op, conflictMsg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return domain.Errorf(domain.ErrConflict, "%s", conflictMsg)
		case pqForeignKeyViolation:
			return domain.Errorf(domain.ErrValidation, "Referenced record does not exist")
		case pqInvalidTextRep:
			return domain.Errorf(domain.ErrValidation, "Invalid identifier")
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// cappedInsert adds a tenant-owned row unless the tenant already holds limit
// rows of table
type cappedInsert struct {
	table       string
	tenantID    string
	limit       int
	limitMsg    string
	insert      sq.InsertBuilder
	op          string
	conflictMsg string
}

// exec runs the count and the insert in one transaction holding the tenant
// row lock, so concurrent creates for a tenant cannot overshoot the limit.
func (c cappedInsert) exec(ctx context.Context, db *sqlx.DB) error {
	lockQuery, lockArgs, err := psql.Select("id").
		From("tenants").
		Where(sq.Eq{"id": c.tenantID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return err
	}
	countQuery, countArgs, err := psql.Select("COUNT(*)").
		From(c.table).
		Where(sq.Eq{"tenantid": c.tenantID}).
		ToSql()
	if err != nil {
		return err
	}
	insertQuery, insertArgs, err := c.insert.ToSql()
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", c.op, err)
	}

	var locked string
	if err := tx.GetContext(ctx, &locked, lockQuery, lockArgs...); err != nil {
		tx.Rollback()
		if noRow(err) {
			return domain.Errorf(domain.ErrValidation, "Referenced record does not exist")
		}
		return fmt.Errorf("%s: %w", c.op, err)
	}

	var n int
	if err := tx.GetContext(ctx, &n, countQuery, countArgs...); err != nil {
		tx.Rollback()
		return fmt.Errorf("%s: %w", c.op, err)
	}
	if n >= c.limit {
		tx.Rollback()
		return domain.Errorf(domain.ErrLimitExceeded, "%s", c.limitMsg)
	}

	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		tx.Rollback()
		return translate(err, c.op, c.conflictMsg)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", c.op, err)
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}
