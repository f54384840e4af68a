package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/repositories"
)

// CreateGuardianInput registers a parent or carer and links their children
type CreateGuardianInput struct {
	SchoolID     *uuid.UUID  `json:"school_id"`
	UserID       *uuid.UUID  `json:"user_id"`
	FirstName    string      `json:"first_name" validate:"required,max=255"`
	LastName     string      `json:"last_name" validate:"required,max=255"`
	Email        string      `json:"email" validate:"omitempty,email,max=255"`
	Phone        string      `json:"phone" validate:"max=50"`
	Relationship string      `json:"relationship" validate:"max=50"`
	StudentIDs   []uuid.UUID `json:"student_ids" validate:"max=20"`
}

// GuardianService manages guardians and the students they are responsible for
type GuardianService struct {
	guardians repositories.GuardianRepository
	users     repositories.UserRepository
	students  repositories.StudentRepository
	txManager repositories.TransactionManager
	logger    *zap.Logger
}

// NewGuardianService creates a new GuardianService
func NewGuardianService(
	guardians repositories.GuardianRepository,
	users repositories.UserRepository,
	students repositories.StudentRepository,
	txManager repositories.TransactionManager,
	logger *zap.Logger,
) *GuardianService {
	return &GuardianService{
		guardians: guardians,
		users:     users,
		students:  students,
		txManager: txManager,
		logger:    logger,
	}
}

// List returns guardians visible to the caller
func (s *GuardianService) List(ctx context.Context, caller Caller, limit, offset int) ([]*models.Guardian, error) {
	guardians, err := s.guardians.List(ctx, caller.Filter, limit, offset)
	if err != nil {
		return nil, fromRepository(err, caller.Filter, ErrGuardianNotFound, nil)
	}
	return guardians, nil
}

// Create registers a guardian in the target school. The linked PARENT
// account and every listed student must belong to that school. All rows
// are written in one transaction.
func (s *GuardianService) Create(ctx context.Context, caller Caller, input CreateGuardianInput) (*models.Guardian, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	schoolID, err := caller.targetSchool(input.SchoolID)
	if err != nil {
		return nil, err
	}

	guardian, err := WithTransactionResult(ctx, s.txManager, func(ctx context.Context, tx repositories.Transaction) (*models.Guardian, error) {
		guardian := models.NewGuardian(schoolID, input.FirstName, input.LastName)
		guardian.Email = input.Email
		guardian.Phone = input.Phone
		guardian.Relationship = input.Relationship

		if input.UserID != nil {
			if err := s.checkAccount(ctx, caller, schoolID, *input.UserID); err != nil {
				return nil, err
			}
			guardian.UserID = uuid.NullUUID{UUID: *input.UserID, Valid: true}
		}

		if err := s.guardians.Create(ctx, caller.Filter, guardian); err != nil {
			return nil, fromRepository(err, caller.Filter, ErrGuardianNotFound, ErrDuplicateGuardian)
		}

		linked := make(map[uuid.UUID]struct{}, len(input.StudentIDs))
		for _, studentID := range input.StudentIDs {
			if _, ok := linked[studentID]; ok {
				continue
			}
			student, err := s.students.GetByID(ctx, caller.Filter, studentID)
			if err != nil {
				return nil, fromReference(err, caller.Filter, "student not found")
			}
			if student.SchoolID != schoolID {
				return nil, NewDomainError(ErrorTypeValidation, "student belongs to another school", nil)
			}
			if err := s.guardians.LinkStudent(ctx, caller.Filter, guardian, studentID); err != nil {
				return nil, fromRepository(err, caller.Filter, ErrStudentNotFound, nil)
			}
			linked[studentID] = struct{}{}
		}
		guardian.StudentCount = len(linked)
		return guardian, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("guardian created",
		zap.String("guardian_id", guardian.ID.String()),
		zap.String("school_id", schoolID.String()),
		zap.Int("students", guardian.StudentCount),
		zap.String("created_by", caller.Identity.UserID.String()))
	return guardian, nil
}

// Dependents returns the students linked to the calling PARENT account.
// An account with no guardian record has no dependents.
func (s *GuardianService) Dependents(ctx context.Context, caller Caller, limit, offset int) ([]*models.Student, error) {
	guardian, err := s.guardians.GetByUserID(ctx, caller.Filter, caller.Identity.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return []*models.Student{}, nil
		}
		return nil, fromRepository(err, caller.Filter, ErrGuardianNotFound, nil)
	}

	students, err := s.guardians.ListDependents(ctx, caller.Filter, guardian.ID, limit, offset)
	if err != nil {
		return nil, fromRepository(err, caller.Filter, ErrStudentNotFound, nil)
	}
	return students, nil
}

func (s *GuardianService) checkAccount(ctx context.Context, caller Caller, schoolID, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, caller.Filter, userID)
	if err != nil {
		return fromReference(err, caller.Filter, "user not found")
	}
	if user.Role != rbac.RoleGuardian {
		return NewDomainError(ErrorTypeValidation, "linked account must have the PARENT role", nil)
	}
	if !user.SchoolID.Valid || user.SchoolID.UUID != schoolID {
		return NewDomainError(ErrorTypeValidation, "linked account belongs to another school", nil)
	}
	return nil
}
