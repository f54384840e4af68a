package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/repositories"
)

const studentColumns = `id, school_id, user_id, student_number, first_name, last_name, grade, date_of_birth, active, created_at, updated_at`

// StudentRepository implements the repositories.StudentRepository interface
type StudentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *DB, logger *zap.Logger) repositories.StudentRepository {
	return &StudentRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new student
func (r *StudentRepository) Create(ctx context.Context, filter rbac.TenantFilter, student *models.Student) error {
	if err := checkWriteScope(filter, student.SchoolID); err != nil {
		return err
	}

	query := `
		INSERT INTO students (id, school_id, user_id, student_number, first_name, last_name, grade, date_of_birth, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		student.ID,
		student.SchoolID,
		student.UserID,
		student.StudentNumber,
		student.FirstName,
		student.LastName,
		student.Grade,
		nullTime(student.DateOfBirth),
		student.Active,
		student.CreatedAt,
		student.UpdatedAt,
	)
	if err != nil {
		return translateError(err, "create", "student")
	}

	r.logger.Debug("student created",
		zap.String("id", student.ID.String()),
		zap.String("school_id", student.SchoolID.String()))
	return nil
}

// GetByID retrieves a student by ID within filter
func (r *StudentRepository) GetByID(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) (*models.Student, error) {
	pred, args, err := tenantPredicate(filter, "school_id", 2)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1` + pred

	executor := GetExecutor(ctx, r.db)
	student, err := scanStudent(executor.QueryRowContext(ctx, query, append([]interface{}{id}, args...)...))
	if err != nil {
		return nil, translateError(err, "get", "student")
	}
	return student, nil
}

// List retrieves active students visible through filter
func (r *StudentRepository) List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.Student, error) {
	pred, args, err := tenantPredicate(filter, "school_id", 1)
	if err != nil {
		return nil, err
	}
	page, pageArgs := pagination(limit, offset, len(args)+1)

	query := `SELECT ` + studentColumns + ` FROM students WHERE active = true` + pred +
		` ORDER BY last_name, first_name` + page

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, append(args, pageArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}

	return students, nil
}

// Update updates a student's details. The owning school never changes.
func (r *StudentRepository) Update(ctx context.Context, filter rbac.TenantFilter, student *models.Student) error {
	pred, args, err := tenantPredicate(filter, "school_id", 7)
	if err != nil {
		return err
	}

	query := `
		UPDATE students
		SET first_name = $2,
		    last_name = $3,
		    grade = $4,
		    date_of_birth = $5,
		    updated_at = $6
		WHERE id = $1` + pred

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, append([]interface{}{
		student.ID,
		student.FirstName,
		student.LastName,
		student.Grade,
		nullTime(student.DateOfBirth),
		student.UpdatedAt,
	}, args...)...)
	if err != nil {
		return translateError(err, "update", "student")
	}
	if err := checkAffected(result, "student"); err != nil {
		return err
	}

	r.logger.Debug("student updated", zap.String("id", student.ID.String()))
	return nil
}

// Deactivate marks a student inactive
func (r *StudentRepository) Deactivate(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) error {
	pred, args, err := tenantPredicate(filter, "school_id", 3)
	if err != nil {
		return err
	}

	query := `UPDATE students SET active = false, updated_at = $2 WHERE id = $1 AND active = true` + pred

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, append([]interface{}{id, time.Now().UTC()}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to deactivate student: %w", err)
	}
	if err := checkAffected(result, "student"); err != nil {
		return err
	}

	r.logger.Debug("student deactivated", zap.String("id", id.String()))
	return nil
}

func scanStudent(row rowScanner) (*models.Student, error) {
	student := &models.Student{}
	var dob sql.NullTime
	err := row.Scan(
		&student.ID,
		&student.SchoolID,
		&student.UserID,
		&student.StudentNumber,
		&student.FirstName,
		&student.LastName,
		&student.Grade,
		&dob,
		&student.Active,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dob.Valid {
		student.DateOfBirth = &dob.Time
	}
	return student, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
