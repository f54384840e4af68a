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

// CreateStudentInput is a request to enrol a student
type CreateStudentInput struct {
	SchoolID      *uuid.UUID `json:"school_id"`
	StudentNumber string     `json:"student_number" validate:"required,max=50"`
	FirstName     string     `json:"first_name" validate:"required,max=255"`
	LastName      string     `json:"last_name" validate:"max=255"`
	Grade         int        `json:"grade" validate:"gte=0,lte=13"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
}

// UpdateStudentInput changes a student's details. Nil fields are left as they are.
type UpdateStudentInput struct {
	SchoolID    *uuid.UUID `json:"school_id"`
	FirstName   *string    `json:"first_name" validate:"omitempty,min=1,max=255"`
	LastName    *string    `json:"last_name" validate:"omitempty,max=255"`
	Grade       *int       `json:"grade" validate:"omitempty,gte=0,lte=13"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}

// StudentService manages enrolment
type StudentService struct {
	students repositories.StudentRepository
	logger   *zap.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(students repositories.StudentRepository, logger *zap.Logger) *StudentService {
	return &StudentService{students: students, logger: logger}
}

// List returns active students visible to the caller
func (s *StudentService) List(ctx context.Context, caller Caller, limit, offset int) ([]*models.Student, error) {
	students, err := s.students.List(ctx, caller.Filter, limit, offset)
	if err != nil {
		return nil, fromRepository(err, caller.Filter, ErrStudentNotFound, nil)
	}
	return students, nil
}

// Get returns one student
func (s *StudentService) Get(ctx context.Context, caller Caller, id uuid.UUID) (*models.Student, error) {
	student, err := s.students.GetByID(ctx, caller.Filter, id)
	if err != nil {
		return nil, fromRepository(err, caller.Filter, ErrStudentNotFound, nil)
	}
	return student, nil
}

// Create enrols a student in the caller's school, or in input.SchoolID
// when the caller may act on it.
func (s *StudentService) Create(ctx context.Context, caller Caller, input CreateStudentInput) (*models.Student, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	schoolID, err := caller.targetSchool(input.SchoolID)
	if err != nil {
		return nil, err
	}

	student := models.NewStudent(schoolID, input.StudentNumber, input.FirstName, input.LastName, input.Grade)
	student.DateOfBirth = input.DateOfBirth

	if err := s.students.Create(ctx, caller.Filter, student); err != nil {
		return nil, fromRepository(err, caller.Filter, ErrStudentNotFound, ErrDuplicateStudentNumber)
	}

	s.logger.Info("student created",
		zap.String("student_id", student.ID.String()),
		zap.String("school_id", schoolID.String()),
		zap.String("created_by", caller.Identity.UserID.String()))
	return student, nil
}

// Update changes a student's details. A request naming another school,
// or a student owned by one, is rejected before anything is written.
func (s *StudentService) Update(ctx context.Context, caller Caller, id uuid.UUID, input UpdateStudentInput) (*models.Student, error) {
	if err := validate(input); err != nil {
		return nil, err
	}
	if input.SchoolID != nil {
		if _, err := rbac.RequireTenantAccess(caller.Identity, *input.SchoolID); err != nil {
			return nil, Denied(err)
		}
	}

	student, err := s.students.GetByID(ctx, caller.Filter, id)
	if err != nil {
		return nil, fromRepository(err, caller.Filter, ErrStudentNotFound, nil)
	}
	if _, err := rbac.RequireTenantAccess(caller.Identity, student.SchoolID); err != nil {
		return nil, Denied(err)
	}
	if input.SchoolID != nil && *input.SchoolID != student.SchoolID {
		return nil, NewDomainError(ErrorTypeValidation, "students cannot move between schools", nil)
	}

	if input.FirstName != nil {
		student.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		student.LastName = *input.LastName
	}
	if input.Grade != nil {
		student.Grade = *input.Grade
	}
	if input.DateOfBirth != nil {
		student.DateOfBirth = input.DateOfBirth
	}
	student.UpdatedAt = time.Now().UTC()

	if err := s.students.Update(ctx, caller.Filter, student); err != nil {
		return nil, fromRepository(err, caller.Filter, ErrStudentNotFound, nil)
	}
	return student, nil
}

// Deactivate withdraws a student. Attendance history is kept.
func (s *StudentService) Deactivate(ctx context.Context, caller Caller, id uuid.UUID) error {
	student, err := s.students.GetByID(ctx, caller.Filter, id)
	if err != nil {
		return fromRepository(err, caller.Filter, ErrStudentNotFound, nil)
	}
	if _, err := rbac.RequireTenantAccess(caller.Identity, student.SchoolID); err != nil {
		return Denied(err)
	}
	if err := s.students.Deactivate(ctx, caller.Filter, id); err != nil {
		return fromRepository(err, caller.Filter, ErrStudentNotFound, nil)
	}

	s.logger.Info("student deactivated",
		zap.String("student_id", id.String()),
		zap.String("deactivated_by", caller.Identity.UserID.String()))
	return nil
}
