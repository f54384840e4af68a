package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/session"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, filter rbac.TenantFilter, user *models.User) error {
	return m.Called(ctx, filter, user).Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, filter, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, filter, limit, offset)
	if u := args.Get(0); u != nil {
		return u.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSchoolRepository struct {
	mock.Mock
}

func (m *MockSchoolRepository) Create(ctx context.Context, school *models.School) error {
	return m.Called(ctx, school).Error(0)
}

func (m *MockSchoolRepository) GetByID(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) (*models.School, error) {
	args := m.Called(ctx, filter, id)
	if s := args.Get(0); s != nil {
		return s.(*models.School), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSchoolRepository) List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.School, error) {
	args := m.Called(ctx, filter, limit, offset)
	if s := args.Get(0); s != nil {
		return s.([]*models.School), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSchoolRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) Create(ctx context.Context, filter rbac.TenantFilter, student *models.Student) error {
	return m.Called(ctx, filter, student).Error(0)
}

func (m *MockStudentRepository) GetByID(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) (*models.Student, error) {
	args := m.Called(ctx, filter, id)
	if s := args.Get(0); s != nil {
		return s.(*models.Student), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStudentRepository) List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.Student, error) {
	args := m.Called(ctx, filter, limit, offset)
	if s := args.Get(0); s != nil {
		return s.([]*models.Student), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStudentRepository) Update(ctx context.Context, filter rbac.TenantFilter, student *models.Student) error {
	return m.Called(ctx, filter, student).Error(0)
}

func (m *MockStudentRepository) Deactivate(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) error {
	return m.Called(ctx, filter, id).Error(0)
}

type MockAttendanceRepository struct {
	mock.Mock
}

func (m *MockAttendanceRepository) Create(ctx context.Context, filter rbac.TenantFilter, record *models.AttendanceRecord) error {
	return m.Called(ctx, filter, record).Error(0)
}

func (m *MockAttendanceRepository) ListByStudent(ctx context.Context, filter rbac.TenantFilter, studentID uuid.UUID, limit, offset int) ([]*models.AttendanceRecord, error) {
	args := m.Called(ctx, filter, studentID, limit, offset)
	if r := args.Get(0); r != nil {
		return r.([]*models.AttendanceRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockClassRepository struct {
	mock.Mock
}

func (m *MockClassRepository) Create(ctx context.Context, filter rbac.TenantFilter, class *models.Class) error {
	return m.Called(ctx, filter, class).Error(0)
}

func (m *MockClassRepository) GetByID(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) (*models.Class, error) {
	args := m.Called(ctx, filter, id)
	if c := args.Get(0); c != nil {
		return c.(*models.Class), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClassRepository) List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.Class, error) {
	args := m.Called(ctx, filter, limit, offset)
	if c := args.Get(0); c != nil {
		return c.([]*models.Class), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClassRepository) Update(ctx context.Context, filter rbac.TenantFilter, class *models.Class) error {
	return m.Called(ctx, filter, class).Error(0)
}

func (m *MockClassRepository) Delete(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) error {
	return m.Called(ctx, filter, id).Error(0)
}

type MockGuardianRepository struct {
	mock.Mock
}

func (m *MockGuardianRepository) Create(ctx context.Context, filter rbac.TenantFilter, guardian *models.Guardian) error {
	return m.Called(ctx, filter, guardian).Error(0)
}

func (m *MockGuardianRepository) List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.Guardian, error) {
	args := m.Called(ctx, filter, limit, offset)
	if g := args.Get(0); g != nil {
		return g.([]*models.Guardian), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGuardianRepository) GetByUserID(ctx context.Context, filter rbac.TenantFilter, userID uuid.UUID) (*models.Guardian, error) {
	args := m.Called(ctx, filter, userID)
	if g := args.Get(0); g != nil {
		return g.(*models.Guardian), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGuardianRepository) LinkStudent(ctx context.Context, filter rbac.TenantFilter, guardian *models.Guardian, studentID uuid.UUID) error {
	return m.Called(ctx, filter, guardian, studentID).Error(0)
}

func (m *MockGuardianRepository) ListDependents(ctx context.Context, filter rbac.TenantFilter, guardianID uuid.UUID, limit, offset int) ([]*models.Student, error) {
	args := m.Called(ctx, filter, guardianID, limit, offset)
	if s := args.Get(0); s != nil {
		return s.([]*models.Student), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGuardianRepository) IsDependent(ctx context.Context, filter rbac.TenantFilter, guardianID, studentID uuid.UUID) (bool, error) {
	args := m.Called(ctx, filter, guardianID, studentID)
	return args.Bool(0), args.Error(1)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(subject session.Subject) (string, *session.Claims, error) {
	args := m.Called(subject)
	if c := args.Get(1); c != nil {
		return args.String(0), c.(*session.Claims), args.Error(2)
	}
	return args.String(0), nil, args.Error(2)
}

type MockSessionRevoker struct {
	mock.Mock
}

func (m *MockSessionRevoker) Revoke(ctx context.Context, id rbac.Identity) error {
	return m.Called(ctx, id).Error(0)
}

// callerFor builds a caller the way the request middleware would
func callerFor(role rbac.Role, school *uuid.UUID) Caller {
	c, err := NewCaller(rbac.NewIdentity(uuid.New(), role, school))
	if err != nil {
		panic(err)
	}
	return c
}
