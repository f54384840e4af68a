package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/repositories"
)

// RecordAttendanceInput records one student's attendance for a day
type RecordAttendanceInput struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED"`
	Notes     string    `json:"notes" validate:"max=1000"`
}

// AttendanceService records and reads attendance
type AttendanceService struct {
	students   repositories.StudentRepository
	attendance repositories.AttendanceRepository
	guardians  repositories.GuardianRepository
	txManager  repositories.TransactionManager
	logger     *zap.Logger
	now        func() time.Time
}

// NewAttendanceService creates a new AttendanceService
func NewAttendanceService(
	students repositories.StudentRepository,
	attendance repositories.AttendanceRepository,
	txManager repositories.TransactionManager,
	logger *zap.Logger,
) *AttendanceService {
	return &AttendanceService{
		students:   students,
		attendance: attendance,
		txManager:  txManager,
		logger:     logger,
		now:        time.Now,
	}
}

// WithGuardians lets PARENT callers read their own children's attendance.
// Without it their reads are denied.
func (s *AttendanceService) WithGuardians(guardians repositories.GuardianRepository) *AttendanceService {
	s.guardians = guardians
	return s
}

// Record writes attendance for a student in the caller's scope. The
// student lookup and the insert share one transaction. A zero date means today.
func (s *AttendanceService) Record(ctx context.Context, caller Caller, input RecordAttendanceInput) (*models.AttendanceRecord, error) {
	if err := validate(input); err != nil {
		return nil, err
	}
	status := models.AttendanceStatus(input.Status)
	if !status.IsValid() {
		return nil, ErrInvalidAttendanceStatus
	}
	date := input.Date
	if date.IsZero() {
		date = s.now()
	}

	record, err := WithTransactionResult(ctx, s.txManager, func(ctx context.Context, tx repositories.Transaction) (*models.AttendanceRecord, error) {
		student, err := s.students.GetByID(ctx, caller.Filter, input.StudentID)
		if err != nil {
			return nil, fromRepository(err, caller.Filter, ErrStudentNotFound, nil)
		}
		if _, err := rbac.RequireTenantAccess(caller.Identity, student.SchoolID); err != nil {
			return nil, Denied(err)
		}
		if !student.Active {
			return nil, NewDomainError(ErrorTypeValidation, "student is not active", nil)
		}

		rec := models.NewAttendanceRecord(student, date, status, caller.Identity.UserID)
		rec.Notes = input.Notes
		if err := s.attendance.Create(ctx, caller.Filter, rec); err != nil {
			return nil, fromRepository(err, caller.Filter, ErrStudentNotFound, nil)
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("attendance recorded",
		zap.String("student_id", record.StudentID.String()),
		zap.String("status", string(record.Status)),
		zap.String("recorded_by", caller.Identity.UserID.String()))
	return record, nil
}

// ListForStudent returns a student's attendance, newest first. PARENT
// callers only see students linked to their guardian record.
func (s *AttendanceService) ListForStudent(ctx context.Context, caller Caller, studentID uuid.UUID, limit, offset int) ([]*models.AttendanceRecord, error) {
	if caller.Identity.Role == rbac.RoleGuardian {
		if err := s.checkDependent(ctx, caller, studentID); err != nil {
			return nil, err
		}
	}
	if _, err := s.students.GetByID(ctx, caller.Filter, studentID); err != nil {
		return nil, fromRepository(err, caller.Filter, ErrStudentNotFound, nil)
	}
	records, err := s.attendance.ListByStudent(ctx, caller.Filter, studentID, limit, offset)
	if err != nil {
		return nil, fromRepository(err, caller.Filter, ErrStudentNotFound, nil)
	}
	return records, nil
}

func (s *AttendanceService) checkDependent(ctx context.Context, caller Caller, studentID uuid.UUID) error {
	notLinked := rbac.Denied(rbac.ErrRoleNotAllowed, "student %s is not a dependent", studentID)
	if s.guardians == nil {
		return Denied(notLinked)
	}

	guardian, err := s.guardians.GetByUserID(ctx, caller.Filter, caller.Identity.UserID)
	if err != nil {
		return fromRepository(err, caller.Filter, ErrGuardianNotFound, nil)
	}
	linked, err := s.guardians.IsDependent(ctx, caller.Filter, guardian.ID, studentID)
	if err != nil {
		return fromRepository(err, caller.Filter, ErrStudentNotFound, nil)
	}
	if !linked {
		return Denied(notLinked)
	}
	return nil
}
