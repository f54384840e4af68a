package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/repositories"
)

// CreateUserInput is a request to create an account
type CreateUserInput struct {
	Email    string     `json:"email" validate:"required,email,max=255"`
	Name     string     `json:"name" validate:"max=255"`
	Password string     `json:"password" validate:"required,min=8,max=72"`
	Role     string     `json:"role" validate:"required,oneof=SUPER_ADMIN SCHOOL_ADMIN TEACHER PARENT STUDENT"`
	SchoolID *uuid.UUID `json:"school_id"`
}

// UserService manages accounts within the caller's scope
type UserService struct {
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(users repositories.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Me returns the caller's own account. A missing row is reported as
// ErrUserNotFound whatever the scope, since the id is the caller's own.
func (s *UserService) Me(ctx context.Context, caller Caller) (*models.User, error) {
	user, err := s.users.GetByID(ctx, caller.Filter, caller.Identity.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fromRepository(err, caller.Filter, ErrUserNotFound, nil)
	}
	return user, nil
}

// List returns the accounts visible to the caller
func (s *UserService) List(ctx context.Context, caller Caller, limit, offset int) ([]*models.User, error) {
	users, err := s.users.List(ctx, caller.Filter, limit, offset)
	if err != nil {
		return nil, fromRepository(err, caller.Filter, ErrUserNotFound, nil)
	}
	return users, nil
}

// Create adds an account. Only global admins may create global admins,
// and a school-bound role always needs a school the caller can access.
func (s *UserService) Create(ctx context.Context, caller Caller, input CreateUserInput) (*models.User, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	role, err := rbac.ParseRole(input.Role)
	if err != nil {
		return nil, NewDomainError(ErrorTypeValidation, "invalid role", err)
	}

	var schoolID *uuid.UUID
	if role.IsGlobal() {
		if !caller.Identity.Role.IsGlobal() {
			return nil, Denied(rbac.Denied(rbac.ErrRoleNotAllowed, "%s cannot grant %s", caller.Identity.Role, role))
		}
		if input.SchoolID != nil {
			return nil, NewDomainError(ErrorTypeValidation, "global administrators have no school", nil)
		}
	} else {
		target, err := caller.targetSchool(input.SchoolID)
		if err != nil {
			return nil, err
		}
		schoolID = &target
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(strings.ToLower(strings.TrimSpace(input.Email)), input.Name, hash, role, schoolID)
	if err := s.users.Create(ctx, caller.Filter, user); err != nil {
		return nil, fromRepository(err, caller.Filter, ErrUserNotFound, ErrDuplicateEmail)
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", role.String()),
		zap.String("created_by", caller.Identity.UserID.String()))
	return user, nil
}
