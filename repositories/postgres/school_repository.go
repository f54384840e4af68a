package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/repositories"
)

const schoolColumns = `id, name, address, COALESCE(email, ''), COALESCE(phone, ''), created_at, updated_at`

// SchoolRepository implements the repositories.SchoolRepository interface.
// The tenant column of a school is its own id.
type SchoolRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSchoolRepository creates a new school repository
func NewSchoolRepository(db *DB, logger *zap.Logger) repositories.SchoolRepository {
	return &SchoolRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new school
func (r *SchoolRepository) Create(ctx context.Context, school *models.School) error {
	query := `
		INSERT INTO schools (id, name, address, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		school.ID,
		school.Name,
		school.Address,
		nullString(school.Email),
		nullString(school.Phone),
		school.CreatedAt,
		school.UpdatedAt,
	)
	if err != nil {
		return translateError(err, "create", "school")
	}

	r.logger.Debug("school created", zap.String("id", school.ID.String()), zap.String("name", school.Name))
	return nil
}

// GetByID retrieves a school by ID within filter
func (r *SchoolRepository) GetByID(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) (*models.School, error) {
	pred, args, err := tenantPredicate(filter, "id", 2)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + schoolColumns + ` FROM schools WHERE id = $1` + pred

	executor := GetExecutor(ctx, r.db)
	school, err := scanSchool(executor.QueryRowContext(ctx, query, append([]interface{}{id}, args...)...))
	if err != nil {
		return nil, translateError(err, "get", "school")
	}
	return school, nil
}

// List retrieves the schools visible through filter
func (r *SchoolRepository) List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.School, error) {
	pred, args, err := tenantPredicate(filter, "id", 1)
	if err != nil {
		return nil, err
	}
	page, pageArgs := pagination(limit, offset, len(args)+1)

	query := `SELECT ` + schoolColumns + ` FROM schools WHERE TRUE` + pred + ` ORDER BY name` + page

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, append(args, pageArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schools: %w", err)
	}
	defer rows.Close()

	var schools []*models.School
	for rows.Next() {
		school, err := scanSchool(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan school: %w", err)
		}
		schools = append(schools, school)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating school rows: %w", err)
	}

	return schools, nil
}

// Delete deletes a school and, by cascade, everything it owns
func (r *SchoolRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM schools WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete school: %w", err)
	}
	if err := checkAffected(result, "school"); err != nil {
		return err
	}

	r.logger.Debug("school deleted", zap.String("id", id.String()))
	return nil
}

func scanSchool(row rowScanner) (*models.School, error) {
	school := &models.School{}
	err := row.Scan(
		&school.ID,
		&school.Name,
		&school.Address,
		&school.Email,
		&school.Phone,
		&school.CreatedAt,
		&school.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return school, nil
}
