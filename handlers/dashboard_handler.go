package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/services"
	"github.com/Astonie/schoolyathu/utils"
)

// DashboardPath is the entry page every role is sent to after sign-in
const DashboardPath = "/dashboard"

// NavLink is one entry of a role's navigation
type NavLink struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

// DashboardResponse describes a role's home page
type DashboardResponse struct {
	Role         string    `json:"role"`
	SchoolID     string    `json:"school_id,omitempty"`
	Home         string    `json:"home"`
	Capabilities []string  `json:"capabilities"`
	Navigation   []NavLink `json:"navigation"`
}

type roleHome struct {
	slug  string
	links []NavLink
}

var roleHomes = map[rbac.Role]roleHome{
	rbac.RoleGlobalAdmin: {"super-admin", []NavLink{
		{"Schools", "/dashboard/super-admin/schools"},
		{"Users", "/dashboard/super-admin/users"},
		{"Settings", "/dashboard/super-admin/settings"},
	}},
	rbac.RoleTenantAdmin: {"school-admin", []NavLink{
		{"Dashboard", "/dashboard/school-admin"},
		{"Students", "/dashboard/school-admin/students"},
		{"Teachers", "/dashboard/school-admin/teachers"},
		{"Parents", "/dashboard/school-admin/parents"},
		{"Classes", "/dashboard/school-admin/classes"},
		{"Subjects", "/dashboard/school-admin/subjects"},
		{"Invoices", "/dashboard/school-admin/invoices"},
		{"Settings", "/dashboard/school-admin/settings"},
	}},
	rbac.RoleStaff: {"teacher", []NavLink{
		{"Dashboard", "/dashboard/teacher"},
		{"My Classes", "/dashboard/teacher/classes"},
		{"Students", "/dashboard/teacher/students"},
		{"Attendance", "/dashboard/teacher/attendance"},
		{"Grades", "/dashboard/teacher/grades"},
		{"Profile", "/dashboard/teacher/profile"},
	}},
	rbac.RoleGuardian: {"parent", []NavLink{
		{"Dashboard", "/dashboard/parent"},
		{"My Children", "/dashboard/parent/children"},
		{"Grades", "/dashboard/parent/grades"},
		{"Attendance", "/dashboard/parent/attendance"},
		{"Invoices", "/dashboard/parent/invoices"},
		{"Profile", "/dashboard/parent/profile"},
	}},
	rbac.RoleMember: {"student", []NavLink{
		{"Dashboard", "/dashboard/student"},
		{"My Grades", "/dashboard/student/grades"},
		{"Attendance", "/dashboard/student/attendance"},
		{"Assignments", "/dashboard/student/assignments"},
		{"Profile", "/dashboard/student/profile"},
	}},
}

// HomePath returns the dashboard a role lands on, or "" for unknown roles
func HomePath(role rbac.Role) string {
	home, ok := roleHomes[role]
	if !ok {
		return ""
	}
	return DashboardPath + "/" + home.slug
}

// DashboardHandler serves the role dashboards
type DashboardHandler struct {
	logger *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{logger: logger}
}

// HandleRedirect handles GET /dashboard by sending the caller to their role's home
func (h *DashboardHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	home := HomePath(caller.Identity.Role)
	if home == "" {
		HandleServiceError(w, r, services.Denied(rbac.ErrInvalidRole), h.logger)
		return
	}
	http.Redirect(w, r, home, http.StatusFound)
}

// HandleHome handles GET /dashboard/{role-home}. The route is guarded by
// role, so the caller's own home is always the one requested.
func (h *DashboardHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	home := roleHomes[caller.Identity.Role]

	writeJSONResult(w, h.logger, utils.WriteOK(w, DashboardResponse{
		Role:         caller.Identity.Role.String(),
		SchoolID:     caller.Identity.TenantString(),
		Home:         HomePath(caller.Identity.Role),
		Capabilities: capabilityNames(caller),
		Navigation:   home.links,
	}))
}

// RoleHomes lists every role with its dashboard path, for route setup
func RoleHomes() map[rbac.Role]string {
	out := make(map[rbac.Role]string, len(roleHomes))
	for role := range roleHomes {
		out[role] = HomePath(role)
	}
	return out
}

func capabilityNames(caller services.Caller) []string {
	caps := rbac.Capabilities(caller.Identity.Role)
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.String()
	}
	return names
}
