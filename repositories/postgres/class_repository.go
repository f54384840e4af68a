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

const classColumns = `id, school_id, name, grade, section, capacity, teacher_id, COALESCE(description, ''), created_at, updated_at`

// ClassRepository implements the repositories.ClassRepository interface
type ClassRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewClassRepository creates a new class repository
func NewClassRepository(db *DB, logger *zap.Logger) repositories.ClassRepository {
	return &ClassRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new class
func (r *ClassRepository) Create(ctx context.Context, filter rbac.TenantFilter, class *models.Class) error {
	if err := checkWriteScope(filter, class.SchoolID); err != nil {
		return err
	}

	query := `
		INSERT INTO classes (id, school_id, name, grade, section, capacity, teacher_id, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		class.ID,
		class.SchoolID,
		class.Name,
		class.Grade,
		class.Section,
		class.Capacity,
		class.TeacherID,
		nullString(class.Description),
		class.CreatedAt,
		class.UpdatedAt,
	)
	if err != nil {
		return translateError(err, "create", "class")
	}

	r.logger.Debug("class created",
		zap.String("id", class.ID.String()),
		zap.String("school_id", class.SchoolID.String()))
	return nil
}

// GetByID retrieves a class by ID within filter
func (r *ClassRepository) GetByID(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) (*models.Class, error) {
	pred, args, err := tenantPredicate(filter, "school_id", 2)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + classColumns + ` FROM classes WHERE id = $1` + pred

	executor := GetExecutor(ctx, r.db)
	class, err := scanClass(executor.QueryRowContext(ctx, query, append([]interface{}{id}, args...)...))
	if err != nil {
		return nil, translateError(err, "get", "class")
	}
	return class, nil
}

// List retrieves classes visible through filter, ordered by grade and section
func (r *ClassRepository) List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.Class, error) {
	pred, args, err := tenantPredicate(filter, "school_id", 1)
	if err != nil {
		return nil, err
	}
	page, pageArgs := pagination(limit, offset, len(args)+1)

	query := `SELECT ` + classColumns + ` FROM classes WHERE TRUE` + pred +
		` ORDER BY grade, section` + page

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, append(args, pageArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	var classes []*models.Class
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, class)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating class rows: %w", err)
	}

	return classes, nil
}

// Update replaces a class's details. The owning school never changes.
func (r *ClassRepository) Update(ctx context.Context, filter rbac.TenantFilter, class *models.Class) error {
	pred, args, err := tenantPredicate(filter, "school_id", 9)
	if err != nil {
		return err
	}

	query := `
		UPDATE classes
		SET name = $2,
		    grade = $3,
		    section = $4,
		    capacity = $5,
		    teacher_id = $6,
		    description = $7,
		    updated_at = $8
		WHERE id = $1` + pred

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, append([]interface{}{
		class.ID,
		class.Name,
		class.Grade,
		class.Section,
		class.Capacity,
		class.TeacherID,
		nullString(class.Description),
		class.UpdatedAt,
	}, args...)...)
	if err != nil {
		return translateError(err, "update", "class")
	}
	if err := checkAffected(result, "class"); err != nil {
		return err
	}

	r.logger.Debug("class updated", zap.String("id", class.ID.String()))
	return nil
}

// Delete removes a class
func (r *ClassRepository) Delete(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) error {
	pred, args, err := tenantPredicate(filter, "school_id", 2)
	if err != nil {
		return err
	}

	query := `DELETE FROM classes WHERE id = $1` + pred

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to delete class: %w", err)
	}
	if err := checkAffected(result, "class"); err != nil {
		return err
	}

	r.logger.Debug("class deleted", zap.String("id", id.String()))
	return nil
}

func scanClass(row rowScanner) (*models.Class, error) {
	class := &models.Class{}
	err := row.Scan(
		&class.ID,
		&class.SchoolID,
		&class.Name,
		&class.Grade,
		&class.Section,
		&class.Capacity,
		&class.TeacherID,
		&class.Description,
		&class.CreatedAt,
		&class.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return class, nil
}
