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

// ClassInput creates or replaces a class
type ClassInput struct {
	SchoolID    *uuid.UUID `json:"school_id"`
	Name        string     `json:"name" validate:"required,max=255"`
	Grade       string     `json:"grade" validate:"required,max=20"`
	Section     string     `json:"section" validate:"required,max=10"`
	Capacity    int        `json:"capacity" validate:"required,gte=1,lte=500"`
	TeacherID   *uuid.UUID `json:"teacher_id"`
	Description string     `json:"description" validate:"max=1000"`
}

// ClassService manages classes and their assigned teachers
type ClassService struct {
	classes repositories.ClassRepository
	users   repositories.UserRepository
	logger  *zap.Logger
}

// NewClassService creates a new ClassService
func NewClassService(classes repositories.ClassRepository, users repositories.UserRepository, logger *zap.Logger) *ClassService {
	return &ClassService{classes: classes, users: users, logger: logger}
}

// List returns classes visible to the caller
func (s *ClassService) List(ctx context.Context, caller Caller, limit, offset int) ([]*models.Class, error) {
	classes, err := s.classes.List(ctx, caller.Filter, limit, offset)
	if err != nil {
		return nil, fromRepository(err, caller.Filter, ErrClassNotFound, nil)
	}
	return classes, nil
}

// Get returns one class
func (s *ClassService) Get(ctx context.Context, caller Caller, id uuid.UUID) (*models.Class, error) {
	class, err := s.classes.GetByID(ctx, caller.Filter, id)
	if err != nil {
		return nil, fromRepository(err, caller.Filter, ErrClassNotFound, nil)
	}
	return class, nil
}

// Create adds a class to the caller's school, or to input.SchoolID when
// the caller may act on it. An assigned teacher must be TEACHER staff of
// that same school.
func (s *ClassService) Create(ctx context.Context, caller Caller, input ClassInput) (*models.Class, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	schoolID, err := caller.targetSchool(input.SchoolID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTeacher(ctx, caller, schoolID, input.TeacherID); err != nil {
		return nil, err
	}

	class := models.NewClass(schoolID, input.Name, input.Grade, input.Section, input.Capacity)
	class.AssignTeacher(input.TeacherID)
	class.Description = input.Description

	if err := s.classes.Create(ctx, caller.Filter, class); err != nil {
		return nil, fromRepository(err, caller.Filter, ErrClassNotFound, ErrDuplicateClass)
	}

	s.logger.Info("class created",
		zap.String("class_id", class.ID.String()),
		zap.String("school_id", schoolID.String()),
		zap.String("created_by", caller.Identity.UserID.String()))
	return class, nil
}

// Update replaces a class's details. Classes never move between schools.
func (s *ClassService) Update(ctx context.Context, caller Caller, id uuid.UUID, input ClassInput) (*models.Class, error) {
	if err := validate(input); err != nil {
		return nil, err
	}
	if input.SchoolID != nil {
		if _, err := rbac.RequireTenantAccess(caller.Identity, *input.SchoolID); err != nil {
			return nil, Denied(err)
		}
	}

	class, err := s.classes.GetByID(ctx, caller.Filter, id)
	if err != nil {
		return nil, fromRepository(err, caller.Filter, ErrClassNotFound, nil)
	}
	if _, err := rbac.RequireTenantAccess(caller.Identity, class.SchoolID); err != nil {
		return nil, Denied(err)
	}
	if input.SchoolID != nil && *input.SchoolID != class.SchoolID {
		return nil, NewDomainError(ErrorTypeValidation, "classes cannot move between schools", nil)
	}
	if err := s.checkTeacher(ctx, caller, class.SchoolID, input.TeacherID); err != nil {
		return nil, err
	}

	class.Name = input.Name
	class.Grade = input.Grade
	class.Section = input.Section
	class.Capacity = input.Capacity
	class.Description = input.Description
	class.AssignTeacher(input.TeacherID)
	class.UpdatedAt = time.Now().UTC()

	if err := s.classes.Update(ctx, caller.Filter, class); err != nil {
		return nil, fromRepository(err, caller.Filter, ErrClassNotFound, ErrDuplicateClass)
	}
	return class, nil
}

// Delete removes a class
func (s *ClassService) Delete(ctx context.Context, caller Caller, id uuid.UUID) error {
	class, err := s.classes.GetByID(ctx, caller.Filter, id)
	if err != nil {
		return fromRepository(err, caller.Filter, ErrClassNotFound, nil)
	}
	if _, err := rbac.RequireTenantAccess(caller.Identity, class.SchoolID); err != nil {
		return Denied(err)
	}
	if err := s.classes.Delete(ctx, caller.Filter, id); err != nil {
		return fromRepository(err, caller.Filter, ErrClassNotFound, nil)
	}

	s.logger.Info("class deleted",
		zap.String("class_id", id.String()),
		zap.String("deleted_by", caller.Identity.UserID.String()))
	return nil
}

// checkTeacher resolves teacherID within the caller's scope
func (s *ClassService) checkTeacher(ctx context.Context, caller Caller, schoolID uuid.UUID, teacherID *uuid.UUID) error {
	if teacherID == nil {
		return nil
	}

	user, err := s.users.GetByID(ctx, caller.Filter, *teacherID)
	if err != nil {
		return fromReference(err, caller.Filter, "teacher not found")
	}
	if user.Role != rbac.RoleStaff || !user.Active {
		return NewDomainError(ErrorTypeValidation, "assigned user is not an active teacher", nil)
	}
	if !user.SchoolID.Valid || user.SchoolID.UUID != schoolID {
		return NewDomainError(ErrorTypeValidation, "teacher belongs to another school", nil)
	}
	return nil
}
