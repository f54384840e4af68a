package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/services"
)

type MockSchoolService struct {
	mock.Mock
}

func (m *MockSchoolService) List(ctx context.Context, caller services.Caller, limit, offset int) ([]*models.School, error) {
	args := m.Called(ctx, caller, limit, offset)
	if s := args.Get(0); s != nil {
		return s.([]*models.School), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSchoolService) Get(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.School, error) {
	args := m.Called(ctx, caller, id)
	if s := args.Get(0); s != nil {
		return s.(*models.School), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSchoolService) Create(ctx context.Context, caller services.Caller, input services.CreateSchoolInput) (*models.School, error) {
	args := m.Called(ctx, caller, input)
	if s := args.Get(0); s != nil {
		return s.(*models.School), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSchoolService) Delete(ctx context.Context, caller services.Caller, id uuid.UUID) error {
	return m.Called(ctx, caller, id).Error(0)
}

type MockStudentService struct {
	mock.Mock
}

func (m *MockStudentService) List(ctx context.Context, caller services.Caller, limit, offset int) ([]*models.Student, error) {
	args := m.Called(ctx, caller, limit, offset)
	if s := args.Get(0); s != nil {
		return s.([]*models.Student), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStudentService) Get(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.Student, error) {
	args := m.Called(ctx, caller, id)
	if s := args.Get(0); s != nil {
		return s.(*models.Student), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStudentService) Create(ctx context.Context, caller services.Caller, input services.CreateStudentInput) (*models.Student, error) {
	args := m.Called(ctx, caller, input)
	if s := args.Get(0); s != nil {
		return s.(*models.Student), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStudentService) Update(ctx context.Context, caller services.Caller, id uuid.UUID, input services.UpdateStudentInput) (*models.Student, error) {
	args := m.Called(ctx, caller, id, input)
	if s := args.Get(0); s != nil {
		return s.(*models.Student), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStudentService) Deactivate(ctx context.Context, caller services.Caller, id uuid.UUID) error {
	return m.Called(ctx, caller, id).Error(0)
}

type MockAttendanceService struct {
	mock.Mock
}

func (m *MockAttendanceService) Record(ctx context.Context, caller services.Caller, input services.RecordAttendanceInput) (*models.AttendanceRecord, error) {
	args := m.Called(ctx, caller, input)
	if r := args.Get(0); r != nil {
		return r.(*models.AttendanceRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAttendanceService) ListForStudent(ctx context.Context, caller services.Caller, studentID uuid.UUID, limit, offset int) ([]*models.AttendanceRecord, error) {
	args := m.Called(ctx, caller, studentID, limit, offset)
	if r := args.Get(0); r != nil {
		return r.([]*models.AttendanceRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Me(ctx context.Context, caller services.Caller) (*models.User, error) {
	args := m.Called(ctx, caller)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, caller services.Caller, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, caller, limit, offset)
	if u := args.Get(0); u != nil {
		return u.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) Create(ctx context.Context, caller services.Caller, input services.CreateUserInput) (*models.User, error) {
	args := m.Called(ctx, caller, input)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockClassService struct {
	mock.Mock
}

func (m *MockClassService) List(ctx context.Context, caller services.Caller, limit, offset int) ([]*models.Class, error) {
	args := m.Called(ctx, caller, limit, offset)
	if c := args.Get(0); c != nil {
		return c.([]*models.Class), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClassService) Get(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.Class, error) {
	args := m.Called(ctx, caller, id)
	if c := args.Get(0); c != nil {
		return c.(*models.Class), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClassService) Create(ctx context.Context, caller services.Caller, input services.ClassInput) (*models.Class, error) {
	args := m.Called(ctx, caller, input)
	if c := args.Get(0); c != nil {
		return c.(*models.Class), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClassService) Update(ctx context.Context, caller services.Caller, id uuid.UUID, input services.ClassInput) (*models.Class, error) {
	args := m.Called(ctx, caller, id, input)
	if c := args.Get(0); c != nil {
		return c.(*models.Class), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClassService) Delete(ctx context.Context, caller services.Caller, id uuid.UUID) error {
	return m.Called(ctx, caller, id).Error(0)
}

type MockGuardianService struct {
	mock.Mock
}

func (m *MockGuardianService) List(ctx context.Context, caller services.Caller, limit, offset int) ([]*models.Guardian, error) {
	args := m.Called(ctx, caller, limit, offset)
	if g := args.Get(0); g != nil {
		return g.([]*models.Guardian), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGuardianService) Create(ctx context.Context, caller services.Caller, input services.CreateGuardianInput) (*models.Guardian, error) {
	args := m.Called(ctx, caller, input)
	if g := args.Get(0); g != nil {
		return g.(*models.Guardian), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGuardianService) Dependents(ctx context.Context, caller services.Caller, limit, offset int) ([]*models.Student, error) {
	args := m.Called(ctx, caller, limit, offset)
	if s := args.Get(0); s != nil {
		return s.([]*models.Student), args.Error(1)
	}
	return nil, args.Error(1)
}

// authedRequest builds a request carrying the identity and filter the
// authentication middleware would attach.
func authedRequest(method, target, body string, role rbac.Role, school *uuid.UUID) (*http.Request, services.Caller) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)

	id := rbac.NewIdentity(uuid.New(), role, school)
	caller, err := services.NewCaller(id)
	if err != nil {
		panic(err)
	}
	ctx := rbac.WithIdentity(r.Context(), id)
	ctx = rbac.WithTenantFilter(ctx, caller.Filter)
	return r.WithContext(ctx), caller
}

// withURLParam sets a chi route parameter on r
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
