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

const guardianColumns = `g.id, g.school_id, g.user_id, g.first_name, g.last_name,
	COALESCE(g.email, ''), COALESCE(g.phone, ''), COALESCE(g.relationship, ''),
	(SELECT COUNT(*) FROM guardian_students gs WHERE gs.guardian_id = g.id),
	g.created_at, g.updated_at`

const dependentColumns = `s.id, s.school_id, s.user_id, s.student_number, s.first_name, s.last_name, s.grade, s.date_of_birth, s.active, s.created_at, s.updated_at`

// GuardianRepository implements the repositories.GuardianRepository interface
type GuardianRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewGuardianRepository creates a new guardian repository
func NewGuardianRepository(db *DB, logger *zap.Logger) repositories.GuardianRepository {
	return &GuardianRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new guardian
func (r *GuardianRepository) Create(ctx context.Context, filter rbac.TenantFilter, guardian *models.Guardian) error {
	if err := checkWriteScope(filter, guardian.SchoolID); err != nil {
		return err
	}

	query := `
		INSERT INTO guardians (id, school_id, user_id, first_name, last_name, email, phone, relationship, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		guardian.ID,
		guardian.SchoolID,
		guardian.UserID,
		guardian.FirstName,
		guardian.LastName,
		nullString(guardian.Email),
		nullString(guardian.Phone),
		nullString(guardian.Relationship),
		guardian.CreatedAt,
		guardian.UpdatedAt,
	)
	if err != nil {
		return translateError(err, "create", "guardian")
	}

	r.logger.Debug("guardian created",
		zap.String("id", guardian.ID.String()),
		zap.String("school_id", guardian.SchoolID.String()))
	return nil
}

// List retrieves guardians visible through filter with their dependent counts
func (r *GuardianRepository) List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.Guardian, error) {
	pred, args, err := tenantPredicate(filter, "g.school_id", 1)
	if err != nil {
		return nil, err
	}
	page, pageArgs := pagination(limit, offset, len(args)+1)

	query := `SELECT ` + guardianColumns + ` FROM guardians g WHERE TRUE` + pred +
		` ORDER BY g.last_name, g.first_name` + page

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, append(args, pageArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query guardians: %w", err)
	}
	defer rows.Close()

	var guardians []*models.Guardian
	for rows.Next() {
		guardian, err := scanGuardian(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guardian: %w", err)
		}
		guardians = append(guardians, guardian)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guardian rows: %w", err)
	}

	return guardians, nil
}

// GetByUserID retrieves the guardian record linked to a PARENT account
func (r *GuardianRepository) GetByUserID(ctx context.Context, filter rbac.TenantFilter, userID uuid.UUID) (*models.Guardian, error) {
	pred, args, err := tenantPredicate(filter, "g.school_id", 2)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + guardianColumns + ` FROM guardians g WHERE g.user_id = $1` + pred

	executor := GetExecutor(ctx, r.db)
	guardian, err := scanGuardian(executor.QueryRowContext(ctx, query, append([]interface{}{userID}, args...)...))
	if err != nil {
		return nil, translateError(err, "get", "guardian")
	}
	return guardian, nil
}

// LinkStudent records studentID as a dependent of guardian. Linking twice
// is a no-op.
func (r *GuardianRepository) LinkStudent(ctx context.Context, filter rbac.TenantFilter, guardian *models.Guardian, studentID uuid.UUID) error {
	if err := checkWriteScope(filter, guardian.SchoolID); err != nil {
		return err
	}

	query := `
		INSERT INTO guardian_students (guardian_id, student_id, school_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (guardian_id, student_id) DO NOTHING
	`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, guardian.ID, studentID, guardian.SchoolID); err != nil {
		return translateError(err, "link", "guardian student")
	}

	r.logger.Debug("student linked to guardian",
		zap.String("guardian_id", guardian.ID.String()),
		zap.String("student_id", studentID.String()))
	return nil
}

// ListDependents retrieves the active students linked to guardianID
func (r *GuardianRepository) ListDependents(ctx context.Context, filter rbac.TenantFilter, guardianID uuid.UUID, limit, offset int) ([]*models.Student, error) {
	pred, args, err := tenantPredicate(filter, "s.school_id", 2)
	if err != nil {
		return nil, err
	}
	page, pageArgs := pagination(limit, offset, len(args)+2)

	query := `SELECT ` + dependentColumns + `
		FROM students s
		JOIN guardian_students gs ON gs.student_id = s.id
		WHERE gs.guardian_id = $1 AND s.active = true` + pred +
		` ORDER BY s.last_name, s.first_name` + page

	queryArgs := append([]interface{}{guardianID}, args...)
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, append(queryArgs, pageArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependents: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dependent: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependent rows: %w", err)
	}

	return students, nil
}

// IsDependent reports whether studentID is linked to guardianID within filter
func (r *GuardianRepository) IsDependent(ctx context.Context, filter rbac.TenantFilter, guardianID, studentID uuid.UUID) (bool, error) {
	pred, args, err := tenantPredicate(filter, "school_id", 3)
	if err != nil {
		return false, err
	}

	query := `SELECT EXISTS (SELECT 1 FROM guardian_students WHERE guardian_id = $1 AND student_id = $2` + pred + `)`

	var linked bool
	executor := GetExecutor(ctx, r.db)
	err = executor.QueryRowContext(ctx, query, append([]interface{}{guardianID, studentID}, args...)...).Scan(&linked)
	if err != nil {
		return false, fmt.Errorf("failed to check dependent: %w", err)
	}
	return linked, nil
}

func scanGuardian(row rowScanner) (*models.Guardian, error) {
	guardian := &models.Guardian{}
	err := row.Scan(
		&guardian.ID,
		&guardian.SchoolID,
		&guardian.UserID,
		&guardian.FirstName,
		&guardian.LastName,
		&guardian.Email,
		&guardian.Phone,
		&guardian.Relationship,
		&guardian.StudentCount,
		&guardian.CreatedAt,
		&guardian.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return guardian, nil
}
