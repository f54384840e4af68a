package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/internal/observability"
	"github.com/Astonie/schoolyathu/rbac"
)

// MockResolver is a mock implementation of IdentityResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, raw string) (rbac.Identity, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(rbac.Identity), args.Error(1)
}

func newTestMiddleware(resolver IdentityResolver) (*AuthMiddleware, *observability.Metrics) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return NewAuthMiddleware(resolver, metrics, zap.NewNop()), metrics
}

func okHandler(t *testing.T, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func decodeReason(t *testing.T, w *httptest.ResponseRecorder) string {
	var body struct {
		Error   string                 `json:"error"`
		Details map[string]interface{} `json:"details"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	reason, _ := body.Details["reason"].(string)
	return reason
}

func TestAuthenticate(t *testing.T) {
	schoolID := uuid.New()

	t.Run("bearer token attaches identity and filter", func(t *testing.T) {
		resolver := new(MockResolver)
		m, metrics := newTestMiddleware(resolver)

		identity := rbac.NewIdentity(uuid.New(), rbac.RoleStaff, &schoolID)
		resolver.On("Resolve", mock.Anything, "valid-token").Return(identity, nil)

		var called bool
		handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			got, ok := rbac.IdentityFromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, identity, got)

			filter, ok := rbac.TenantFilterFromContext(r.Context())
			require.True(t, ok)
			tid, restricted := filter.TenantID()
			assert.True(t, restricted)
			assert.Equal(t, schoolID, tid)

			assert.Equal(t, identity.UserID, GetUserIDFromContext(r.Context()))
			assert.Equal(t, rbac.RoleStaff, GetRoleFromContext(r.Context()))
			sid, ok := GetSchoolIDFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, schoolID, sid)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuthDecisionsTotal.WithLabelValues(observability.OutcomeAuthenticated, "")))
		assert.Equal(t, 0.0, testutil.ToFloat64(metrics.AuthDecisionsTotal.WithLabelValues(observability.OutcomeAllowed, "")))
		resolver.AssertExpectations(t)
	})

	t.Run("session cookie is accepted", func(t *testing.T) {
		resolver := new(MockResolver)
		m, _ := newTestMiddleware(resolver)

		identity := rbac.NewIdentity(uuid.New(), rbac.RoleGuardian, &schoolID)
		resolver.On("Resolve", mock.Anything, "cookie-token").Return(identity, nil)

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: "cookie-token"})
		w := httptest.NewRecorder()
		m.Authenticate(okHandler(t, &called)).ServeHTTP(w, req)

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("header takes precedence over cookie", func(t *testing.T) {
		resolver := new(MockResolver)
		m, _ := newTestMiddleware(resolver)

		identity := rbac.NewIdentity(uuid.New(), rbac.RoleStaff, &schoolID)
		resolver.On("Resolve", mock.Anything, "header-token").Return(identity, nil)

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: "cookie-token"})
		w := httptest.NewRecorder()
		m.Authenticate(okHandler(t, &called)).ServeHTTP(w, req)

		assert.True(t, called)
		resolver.AssertNotCalled(t, "Resolve", mock.Anything, "cookie-token")
	})

	t.Run("custom cookie name", func(t *testing.T) {
		resolver := new(MockResolver)
		m, _ := newTestMiddleware(resolver)
		m.WithCookieName("sy_session")
		assert.Equal(t, "sy_session", m.CookieName())

		identity := rbac.NewIdentity(uuid.New(), rbac.RoleMember, &schoolID)
		resolver.On("Resolve", mock.Anything, "tok").Return(identity, nil)

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.AddCookie(&http.Cookie{Name: "sy_session", Value: "tok"})
		w := httptest.NewRecorder()
		m.Authenticate(okHandler(t, &called)).ServeHTTP(w, req)

		assert.True(t, called)
	})

	t.Run("missing credential on API path returns 401", func(t *testing.T) {
		resolver := new(MockResolver)
		m, metrics := newTestMiddleware(resolver)

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
		w := httptest.NewRecorder()
		m.Authenticate(okHandler(t, &called)).ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthenticated", decodeReason(t, w))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuthDecisionsTotal.WithLabelValues(observability.OutcomeDenied, "Unauthenticated")))
		resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("missing credential on page redirects to sign-in", func(t *testing.T) {
		m, _ := newTestMiddleware(new(MockResolver))

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/dashboard/teacher?tab=2", nil)
		w := httptest.NewRecorder()
		m.Authenticate(okHandler(t, &called)).ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/signin?callbackUrl=%2Fdashboard%2Fteacher%3Ftab%3D2", w.Header().Get("Location"))
	})

	t.Run("malformed authorization header is treated as missing", func(t *testing.T) {
		m, _ := newTestMiddleware(new(MockResolver))

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		m.Authenticate(okHandler(t, &called)).ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid role is denied with InvalidRole", func(t *testing.T) {
		resolver := new(MockResolver)
		m, _ := newTestMiddleware(resolver)

		resolver.On("Resolve", mock.Anything, "tok").
			Return(rbac.Identity{}, fmt.Errorf("claims: %w", rbac.ErrInvalidRole))

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		m.Authenticate(okHandler(t, &called)).ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "InvalidRole", decodeReason(t, w))
	})
}

func TestAuthenticatePublicPaths(t *testing.T) {
	paths := []string{"/", "/healthz", "/readyz", "/auth/signin", "/auth/error", "/api/auth/login", "/static/app.css"}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			resolver := new(MockResolver)
			m, metrics := newTestMiddleware(resolver)

			var called bool
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			m.Authenticate(okHandler(t, &called)).ServeHTTP(w, req)

			assert.True(t, called)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuthDecisionsTotal.WithLabelValues(observability.OutcomePublic, "")))
			resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
		})
	}
}

func TestIsPublicPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/healthz", true},
		{"/auth", true},
		{"/auth/signin", true},
		{"/api/auth/logout", true},
		{"/static/logo.png", true},
		{"/dashboard", false},
		{"/api/v1/schools", false},
		{"/authority", false},
		{"/api/authz", false},
		{"/staticfiles", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPublicPath(tt.path), tt.path)
	}

	assert.True(t, IsAPIPath("/api/v1/students"))
	assert.True(t, IsAPIPath("/api"))
	assert.False(t, IsAPIPath("/apiary"))
	assert.False(t, IsAPIPath("/dashboard"))
}

func TestAuthenticateStripsIdentityHeaders(t *testing.T) {
	resolver := new(MockResolver)
	m, _ := newTestMiddleware(resolver)

	schoolID := uuid.New()
	identity := rbac.NewIdentity(uuid.New(), rbac.RoleMember, &schoolID)
	resolver.On("Resolve", mock.Anything, "tok").Return(identity, nil)

	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("X-User-Role"))
		assert.Empty(t, r.Header.Get("X-School-Id"))
		assert.Empty(t, r.Header.Get("X-User-Id"))
		assert.Equal(t, rbac.RoleMember, GetRoleFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("X-User-Role", "SUPER_ADMIN")
	req.Header.Set("X-School-Id", uuid.NewString())
	req.Header.Set("X-User-Id", uuid.NewString())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	schoolID := uuid.New()
	m, _ := newTestMiddleware(new(MockResolver))

	serve := func(id *rbac.Identity, path string, roles ...rbac.Role) (*httptest.ResponseRecorder, bool) {
		var called bool
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if id != nil {
			req = req.WithContext(rbac.WithIdentity(req.Context(), *id))
		}
		w := httptest.NewRecorder()
		m.RequireRole(roles...)(okHandler(t, &called)).ServeHTTP(w, req)
		return w, called
	}

	t.Run("allowed role passes", func(t *testing.T) {
		id := rbac.NewIdentity(uuid.New(), rbac.RoleTenantAdmin, &schoolID)
		w, called := serve(&id, "/api/v1/users", rbac.RoleTenantAdmin)
		assert.True(t, called)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("global admin is not implied", func(t *testing.T) {
		id := rbac.NewIdentity(uuid.New(), rbac.RoleGlobalAdmin, nil)
		w, called := serve(&id, "/api/v1/users", rbac.RoleTenantAdmin)
		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Unauthorized", decodeReason(t, w))
	})

	t.Run("page denial redirects to error page", func(t *testing.T) {
		id := rbac.NewIdentity(uuid.New(), rbac.RoleMember, &schoolID)
		w, called := serve(&id, "/dashboard/admin", rbac.RoleTenantAdmin)
		assert.False(t, called)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/error?error=Unauthorized", w.Header().Get("Location"))
	})

	t.Run("no identity is unauthenticated", func(t *testing.T) {
		w, called := serve(nil, "/api/v1/users", rbac.RoleTenantAdmin)
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("repeated checks give the same outcome", func(t *testing.T) {
		id := rbac.NewIdentity(uuid.New(), rbac.RoleStaff, &schoolID)
		first, _ := serve(&id, "/api/v1/users", rbac.RoleTenantAdmin)
		second, _ := serve(&id, "/api/v1/users", rbac.RoleTenantAdmin)
		assert.Equal(t, first.Code, second.Code)
	})
}

func TestRequireAnyCapability(t *testing.T) {
	schoolID := uuid.New()
	m, _ := newTestMiddleware(new(MockResolver))

	handler := func(called *bool) http.Handler {
		return m.RequireAnyCapability(rbac.CapManageStudents, rbac.CapViewOwnStudents)(okHandler(t, called))
	}

	for _, tc := range []struct {
		role rbac.Role
		want int
	}{
		{rbac.RoleTenantAdmin, http.StatusOK},
		{rbac.RoleStaff, http.StatusOK},
		{rbac.RoleGuardian, http.StatusForbidden},
		{rbac.RoleMember, http.StatusForbidden},
	} {
		t.Run(tc.role.String(), func(t *testing.T) {
			var called bool
			id := rbac.NewIdentity(uuid.New(), tc.role, &schoolID)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
			req = req.WithContext(rbac.WithIdentity(req.Context(), id))
			w := httptest.NewRecorder()
			handler(&called).ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
			assert.Equal(t, tc.want == http.StatusOK, called)
		})
	}
}

// End-to-end authorization scenarios through the full middleware chain.
func TestAuthorizationScenarios(t *testing.T) {
	school1 := uuid.New()
	school2 := uuid.New()

	chain := func(m *AuthMiddleware, inner http.Handler, guards ...func(http.Handler) http.Handler) http.Handler {
		h := inner
		for i := len(guards) - 1; i >= 0; i-- {
			h = guards[i](h)
		}
		return m.Authenticate(h)
	}

	t.Run("staff may record attendance but not manage the school", func(t *testing.T) {
		resolver := new(MockResolver)
		m, metrics := newTestMiddleware(resolver)
		resolver.On("Resolve", mock.Anything, "staff").
			Return(rbac.NewIdentity(uuid.New(), rbac.RoleStaff, &school1), nil)

		var recorded, managed bool
		attendance := chain(m, okHandler(t, &recorded), m.RequireCapability(rbac.CapRecordAttendance))
		settings := chain(m, okHandler(t, &managed), m.RequireCapability(rbac.CapManageTenant))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance", nil)
		req.Header.Set("Authorization", "Bearer staff")
		w := httptest.NewRecorder()
		attendance.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, recorded)

		req = httptest.NewRequest(http.MethodPut, "/api/v1/schools/settings", nil)
		req.Header.Set("Authorization", "Bearer staff")
		w = httptest.NewRecorder()
		settings.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, managed)

		// Each request counts once as authenticated and once at its guard;
		// a guard denial is never also counted as allowed.
		decisions := metrics.AuthDecisionsTotal
		assert.Equal(t, 2.0, testutil.ToFloat64(decisions.WithLabelValues(observability.OutcomeAuthenticated, "")))
		assert.Equal(t, 1.0, testutil.ToFloat64(decisions.WithLabelValues(observability.OutcomeAllowed, "")))
		assert.Equal(t, 1.0, testutil.ToFloat64(decisions.WithLabelValues(observability.OutcomeDenied, "Unauthorized")))
	})

	t.Run("global admin gets an unrestricted filter", func(t *testing.T) {
		resolver := new(MockResolver)
		m, _ := newTestMiddleware(resolver)
		admin := rbac.NewIdentity(uuid.New(), rbac.RoleGlobalAdmin, nil)
		resolver.On("Resolve", mock.Anything, "admin").Return(admin, nil)

		handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			filter, ok := rbac.TenantFilterFromContext(r.Context())
			require.True(t, ok)
			assert.True(t, filter.Unrestricted())

			id, _ := rbac.IdentityFromContext(r.Context())
			assert.True(t, rbac.CanAccessTenant(id, uuid.New()))
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/schools", nil)
		req.Header.Set("Authorization", "Bearer admin")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("guardian without a school is forbidden not errored", func(t *testing.T) {
		resolver := new(MockResolver)
		m, metrics := newTestMiddleware(resolver)
		resolver.On("Resolve", mock.Anything, "orphan").
			Return(rbac.NewIdentity(uuid.New(), rbac.RoleGuardian, nil), nil)

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
		req.Header.Set("Authorization", "Bearer orphan")
		w := httptest.NewRecorder()
		m.Authenticate(okHandler(t, &called)).ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "NoTenantAccess", decodeReason(t, w))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuthDecisionsTotal.WithLabelValues(observability.OutcomeDenied, "NoTenantAccess")))

		req = httptest.NewRequest(http.MethodGet, "/dashboard/parent", nil)
		req.Header.Set("Authorization", "Bearer orphan")
		w = httptest.NewRecorder()
		m.Authenticate(okHandler(t, &called)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/error?error=NoTenantAccess", w.Header().Get("Location"))
	})

	t.Run("school admin cannot act on another school", func(t *testing.T) {
		resolver := new(MockResolver)
		m, _ := newTestMiddleware(resolver)
		resolver.On("Resolve", mock.Anything, "admin1").
			Return(rbac.NewIdentity(uuid.New(), rbac.RoleTenantAdmin, &school1), nil)

		var mutated bool
		handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := rbac.IdentityFromContext(r.Context())
			if _, err := rbac.RequireTenantAccess(id, school2); err != nil {
				WriteDenial(w, r, rbac.ReasonFor(err))
				return
			}
			mutated = true
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodPut, "/api/v1/students/"+uuid.NewString(), nil)
		req.Header.Set("Authorization", "Bearer admin1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.False(t, mutated)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Unauthorized", decodeReason(t, w))
	})

	t.Run("forged credential never attaches an identity", func(t *testing.T) {
		resolver := new(MockResolver)
		m, _ := newTestMiddleware(resolver)
		resolver.On("Resolve", mock.Anything, "forged").
			Return(rbac.Identity{}, fmt.Errorf("%w: signature mismatch", rbac.ErrCredentialInvalid))

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: "forged"})
		w := httptest.NewRecorder()
		m.Authenticate(okHandler(t, &called)).ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), SignInPath)
	})
}

func TestGetRequestIDFromContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", GetRequestIDFromContext(ctx))
	assert.Empty(t, GetRequestIDFromContext(context.Background()))
	assert.Equal(t, uuid.Nil, GetUserIDFromContext(context.Background()))
	assert.Equal(t, rbac.RoleUnknown, GetRoleFromContext(context.Background()))
}
