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

// AttendanceRepository implements the repositories.AttendanceRepository interface
type AttendanceRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *DB, logger *zap.Logger) repositories.AttendanceRepository {
	return &AttendanceRepository{
		db:     db,
		logger: logger,
	}
}

// Create records attendance. The row is only written when the student is
// active and belongs to record.SchoolID; a second record for the same day
// replaces the first.
func (r *AttendanceRepository) Create(ctx context.Context, filter rbac.TenantFilter, record *models.AttendanceRecord) error {
	if err := checkWriteScope(filter, record.SchoolID); err != nil {
		return err
	}

	query := `
		INSERT INTO attendance_records (id, school_id, student_id, date, status, notes, recorded_by, created_at)
		SELECT $1, s.school_id, s.id, $4, $5, $6, $7, $8
		FROM students s
		WHERE s.id = $3 AND s.school_id = $2 AND s.active = true
		ON CONFLICT (student_id, date) DO UPDATE
		SET status = EXCLUDED.status,
		    notes = EXCLUDED.notes,
		    recorded_by = EXCLUDED.recorded_by
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		record.ID,
		record.SchoolID,
		record.StudentID,
		record.Date,
		string(record.Status),
		record.Notes,
		record.RecordedBy,
		record.CreatedAt,
	)
	if err != nil {
		return translateError(err, "create", "attendance record")
	}
	if err := checkAffected(result, "student"); err != nil {
		return err
	}

	r.logger.Debug("attendance recorded",
		zap.String("student_id", record.StudentID.String()),
		zap.String("status", string(record.Status)))
	return nil
}

// ListByStudent retrieves a student's attendance, newest first
func (r *AttendanceRepository) ListByStudent(ctx context.Context, filter rbac.TenantFilter, studentID uuid.UUID, limit, offset int) ([]*models.AttendanceRecord, error) {
	pred, args, err := tenantPredicate(filter, "school_id", 2)
	if err != nil {
		return nil, err
	}
	page, pageArgs := pagination(limit, offset, len(args)+2)

	query := `
		SELECT id, school_id, student_id, date, status, notes, recorded_by, created_at
		FROM attendance_records
		WHERE student_id = $1` + pred + `
		ORDER BY date DESC` + page

	queryArgs := append([]interface{}{studentID}, args...)
	queryArgs = append(queryArgs, pageArgs...)

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []*models.AttendanceRecord
	for rows.Next() {
		rec := &models.AttendanceRecord{}
		var status string
		err := rows.Scan(
			&rec.ID,
			&rec.SchoolID,
			&rec.StudentID,
			&rec.Date,
			&status,
			&rec.Notes,
			&rec.RecordedBy,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		rec.Status = models.AttendanceStatus(status)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance rows: %w", err)
	}

	return records, nil
}
