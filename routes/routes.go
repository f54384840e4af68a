package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/Astonie/schoolyathu/app"
	"github.com/Astonie/schoolyathu/handlers"
	"github.com/Astonie/schoolyathu/internal/observability"
	"github.com/Astonie/schoolyathu/middleware"
	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/utils"
)

const defaultRequestTimeout = 60 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	cfg := deps.Config
	authMW := deps.AuthMiddleware

	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	r.Use(chimw.Timeout(timeout))

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(observability.HTTPMetricsMiddleware(deps.Metrics))

	// Every request passes through authentication; public paths are
	// let through inside the middleware.
	r.Use(authMW.Authenticate)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "", nil)
	})

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	// Sign-in pages
	r.Get(middleware.SignInPath, deps.AuthHandler.HandleSignIn)
	r.Get(middleware.ErrorPath, deps.AuthHandler.HandleError)

	r.Route("/api/auth", func(r chi.Router) {
		loginLimit := cfg.Auth.LoginRateLimit
		if loginLimit > 0 {
			r.With(httprate.LimitByIP(loginLimit, time.Minute)).Post("/login", deps.AuthHandler.HandleLogin)
		} else {
			r.Post("/login", deps.AuthHandler.HandleLogin)
		}
		r.Post("/logout", deps.AuthHandler.HandleLogout)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/schools", func(r chi.Router) {
			r.With(authMW.RequireAnyCapability(rbac.CapViewAllIdentities, rbac.CapManageAllTenants)).
				Get("/", deps.SchoolHandler.HandleList)
			r.With(authMW.RequireCapability(rbac.CapCreateTenant)).
				Post("/", deps.SchoolHandler.HandleCreate)
			// Tenant access to a single school is checked by the service.
			r.Get("/{id}", deps.SchoolHandler.HandleGet)
			r.With(authMW.RequireCapability(rbac.CapDeleteTenant)).
				Delete("/{id}", deps.SchoolHandler.HandleDelete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", deps.UserHandler.HandleMe)
			r.With(authMW.RequireAnyCapability(rbac.CapManageMembers, rbac.CapViewAllIdentities)).
				Get("/", deps.UserHandler.HandleList)
			r.With(authMW.RequireAnyCapability(rbac.CapManageMembers, rbac.CapManageAllTenants)).
				Post("/", deps.UserHandler.HandleCreate)
		})

		r.Route("/students", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authMW.RequireAnyCapability(rbac.CapManageStudents, rbac.CapManageAllTenants, rbac.CapViewOwnStudents))
				r.Get("/", deps.StudentHandler.HandleList)
				r.Get("/{id}", deps.StudentHandler.HandleGet)
			})
			r.Group(func(r chi.Router) {
				r.Use(authMW.RequireAnyCapability(rbac.CapManageStudents, rbac.CapManageAllTenants))
				r.Post("/", deps.StudentHandler.HandleCreate)
				r.Patch("/{id}", deps.StudentHandler.HandleUpdate)
				r.Delete("/{id}", deps.StudentHandler.HandleDeactivate)
			})
		})

		r.Route("/classes", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authMW.RequireAnyCapability(rbac.CapManageClasses, rbac.CapManageAllTenants, rbac.CapManageOwnClasses))
				r.Get("/", deps.ClassHandler.HandleList)
				r.Get("/{id}", deps.ClassHandler.HandleGet)
			})
			r.Group(func(r chi.Router) {
				r.Use(authMW.RequireAnyCapability(rbac.CapManageClasses, rbac.CapManageAllTenants))
				r.Post("/", deps.ClassHandler.HandleCreate)
				r.Put("/{id}", deps.ClassHandler.HandleUpdate)
				r.Delete("/{id}", deps.ClassHandler.HandleDelete)
			})
		})

		r.Route("/parents", func(r chi.Router) {
			r.With(authMW.RequireAnyCapability(rbac.CapManageGuardians, rbac.CapViewAllIdentities)).
				Get("/", deps.GuardianHandler.HandleList)
			r.With(authMW.RequireAnyCapability(rbac.CapManageGuardians, rbac.CapManageAllTenants)).
				Post("/", deps.GuardianHandler.HandleCreate)
			r.With(authMW.RequireCapability(rbac.CapViewOwnDependents)).
				Get("/me/children", deps.GuardianHandler.HandleChildren)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.With(authMW.RequireCapability(rbac.CapRecordAttendance)).
				Post("/", deps.AttendanceHandler.HandleRecord)
			// Guardian reads are limited to linked children by the service.
			r.With(authMW.RequireAnyCapability(rbac.CapRecordAttendance, rbac.CapManageStudents, rbac.CapManageAllTenants, rbac.CapViewOwnDependents)).
				Get("/", deps.AttendanceHandler.HandleList)
		})
	})

	// Role dashboards
	r.Get(handlers.DashboardPath, deps.DashboardHandler.HandleRedirect)
	for role, home := range handlers.RoleHomes() {
		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireRole(role))
			r.Get(home, deps.DashboardHandler.HandleHome)
			r.Get(home+"/*", deps.DashboardHandler.HandleHome)
		})
	}

	return r
}
