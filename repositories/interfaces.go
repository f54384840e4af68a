package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/rbac"
)

var (
	// ErrNotFound is returned when no row matches inside the caller's scope
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint
	ErrConflict = errors.New("conflict")

	// ErrInvalidFilter is returned for a zero-value tenant filter. No query is issued.
	ErrInvalidFilter = errors.New("invalid tenant filter")

	// ErrOutOfScope is returned when a write targets a school the filter excludes
	ErrOutOfScope = errors.New("record outside tenant scope")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context carrying the transaction. Repositories
	// called with it run their statements inside the transaction.
	Context() context.Context
}

// SchoolRepository handles school data operations. A restricted filter
// only ever matches the caller's own school.
type SchoolRepository interface {
	Create(ctx context.Context, school *models.School) error
	GetByID(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) (*models.School, error)
	List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.School, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create inserts user. Its school must pass filter; schoolless users
	// need an unrestricted filter.
	Create(ctx context.Context, filter rbac.TenantFilter, user *models.User) error

	// GetByEmail is the unscoped lookup used before a caller is authenticated
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	GetByID(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.User, error)
}

// StudentRepository handles student data operations
type StudentRepository interface {
	Create(ctx context.Context, filter rbac.TenantFilter, student *models.Student) error
	GetByID(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) (*models.Student, error)
	List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.Student, error)
	Update(ctx context.Context, filter rbac.TenantFilter, student *models.Student) error

	// Deactivate soft-deletes a student; attendance history is kept
	Deactivate(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) error
}

// AttendanceRepository handles attendance data operations
type AttendanceRepository interface {
	Create(ctx context.Context, filter rbac.TenantFilter, record *models.AttendanceRecord) error
	ListByStudent(ctx context.Context, filter rbac.TenantFilter, studentID uuid.UUID, limit, offset int) ([]*models.AttendanceRecord, error)
}

// ClassRepository handles class data operations
type ClassRepository interface {
	Create(ctx context.Context, filter rbac.TenantFilter, class *models.Class) error
	GetByID(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) (*models.Class, error)
	List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.Class, error)
	Update(ctx context.Context, filter rbac.TenantFilter, class *models.Class) error
	Delete(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) error
}

// GuardianRepository handles guardians and their links to students
type GuardianRepository interface {
	Create(ctx context.Context, filter rbac.TenantFilter, guardian *models.Guardian) error
	List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.Guardian, error)

	// GetByUserID finds the guardian record behind a PARENT account
	GetByUserID(ctx context.Context, filter rbac.TenantFilter, userID uuid.UUID) (*models.Guardian, error)

	// LinkStudent records guardian as a carer of studentID. Both must
	// belong to the guardian's school.
	LinkStudent(ctx context.Context, filter rbac.TenantFilter, guardian *models.Guardian, studentID uuid.UUID) error

	ListDependents(ctx context.Context, filter rbac.TenantFilter, guardianID uuid.UUID, limit, offset int) ([]*models.Student, error)
	IsDependent(ctx context.Context, filter rbac.TenantFilter, guardianID, studentID uuid.UUID) (bool, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Schools    SchoolRepository
	Users      UserRepository
	Students   StudentRepository
	Attendance AttendanceRepository
	Classes    ClassRepository
	Guardians  GuardianRepository
}
