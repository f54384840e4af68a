package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/repositories"
)

// CreateSchoolInput is a request to register a school
type CreateSchoolInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=50"`
}

// SchoolService manages tenants
type SchoolService struct {
	schools repositories.SchoolRepository
	logger  *zap.Logger
}

// NewSchoolService creates a new SchoolService
func NewSchoolService(schools repositories.SchoolRepository, logger *zap.Logger) *SchoolService {
	return &SchoolService{schools: schools, logger: logger}
}

// List returns the schools visible to the caller
func (s *SchoolService) List(ctx context.Context, caller Caller, limit, offset int) ([]*models.School, error) {
	schools, err := s.schools.List(ctx, caller.Filter, limit, offset)
	if err != nil {
		return nil, fromRepository(err, caller.Filter, ErrSchoolNotFound, nil)
	}
	return schools, nil
}

// Get returns one school. Asking for another school is denied before
// any lookup.
func (s *SchoolService) Get(ctx context.Context, caller Caller, id uuid.UUID) (*models.School, error) {
	if _, err := rbac.RequireTenantAccess(caller.Identity, id); err != nil {
		return nil, Denied(err)
	}
	school, err := s.schools.GetByID(ctx, caller.Filter, id)
	if err != nil {
		return nil, fromRepository(err, caller.Filter, ErrSchoolNotFound, nil)
	}
	return school, nil
}

// Create registers a school
func (s *SchoolService) Create(ctx context.Context, caller Caller, input CreateSchoolInput) (*models.School, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	school := models.NewSchool(input.Name, input.Address)
	school.Email = input.Email
	school.Phone = input.Phone

	if err := s.schools.Create(ctx, school); err != nil {
		return nil, fromRepository(err, caller.Filter, ErrSchoolNotFound, nil)
	}

	s.logger.Info("school created",
		zap.String("school_id", school.ID.String()),
		zap.String("created_by", caller.Identity.UserID.String()))
	return school, nil
}

// Delete removes a school and everything it owns. The delete is
// unscoped, so only unrestricted callers get here.
func (s *SchoolService) Delete(ctx context.Context, caller Caller, id uuid.UUID) error {
	if !caller.Filter.Unrestricted() {
		return Denied(rbac.Denied(rbac.ErrRoleNotAllowed, "%s cannot delete schools", caller.Identity.Role))
	}
	if err := s.schools.Delete(ctx, id); err != nil {
		return fromRepository(err, caller.Filter, ErrSchoolNotFound, nil)
	}

	s.logger.Warn("school deleted",
		zap.String("school_id", id.String()),
		zap.String("deleted_by", caller.Identity.UserID.String()))
	return nil
}
