package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/repositories"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

// tenantPredicate returns the clause that restricts column to filter's
// school, using placeholder $next. Unrestricted filters add nothing.
func tenantPredicate(filter rbac.TenantFilter, column string, next int) (string, []interface{}, error) {
	if !filter.Valid() {
		return "", nil, repositories.ErrInvalidFilter
	}
	if id, ok := filter.TenantID(); ok {
		return fmt.Sprintf(" AND %s = $%d", column, next), []interface{}{id}, nil
	}
	return "", nil, nil
}

// checkWriteScope rejects writes of rows owned by a school outside filter
func checkWriteScope(filter rbac.TenantFilter, schoolID uuid.UUID) error {
	if !filter.Valid() {
		return repositories.ErrInvalidFilter
	}
	if !filter.Allows(schoolID) {
		return fmt.Errorf("%w: school %s", repositories.ErrOutOfScope, schoolID)
	}
	return nil
}

// translateError maps driver errors onto repository sentinels
func translateError(err error, op, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", repositories.ErrNotFound, entity)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%w: %s %s", repositories.ErrConflict, entity, pqErr.Constraint)
	}
	return fmt.Errorf("failed to %s %s: %w", op, entity, err)
}

// pagination clamps limit and offset and returns the LIMIT/OFFSET clause
func pagination(limit, offset, next int) (string, []interface{}) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", next, next+1), []interface{}{limit, offset}
}

const maxPageSize = 100

func checkAffected(result sql.Result, entity string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", repositories.ErrNotFound, entity)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
