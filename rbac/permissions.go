package rbac

// permissionTable maps each role to the capabilities it holds. It is built
// once at package init and never written afterwards, so concurrent readers
// need no locking.
var permissionTable = map[Role][]Capability{
	RoleGlobalAdmin: {
		CapManageAllTenants,
		CapCreateTenant,
		CapDeleteTenant,
		CapViewAllIdentities,
	},
	RoleTenantAdmin: {
		CapManageTenant,
		CapManageMembers,
		CapManageStudents,
		CapManageStaff,
		CapManageGuardians,
		CapManageClasses,
		CapManageSubjects,
		CapViewReports,
		CapManageBilling,
	},
	RoleStaff: {
		CapManageOwnClasses,
		CapRecordAttendance,
		CapRecordGrades,
		CapViewOwnStudents,
		CapCreateAssignments,
	},
	RoleGuardian: {
		CapViewOwnDependents,
		CapViewGrades,
		CapViewAttendance,
		CapPayInvoices,
	},
	RoleMember: {
		CapViewOwnProfile,
		CapViewGrades,
		CapViewAttendance,
		CapViewAssignments,
	},
}

// grants is the set form of permissionTable used for lookups.
var grants = func() map[Role]map[Capability]struct{} {
	m := make(map[Role]map[Capability]struct{}, len(permissionTable))
	for role, caps := range permissionTable {
		set := make(map[Capability]struct{}, len(caps))
		for _, c := range caps {
			set[c] = struct{}{}
		}
		m[role] = set
	}
	return m
}()

// HasCapability reports whether role holds capability. Unknown roles and
// unknown capabilities always return false.
func HasCapability(role Role, capability Capability) bool {
	set, ok := grants[role]
	if !ok {
		return false
	}
	_, ok = set[capability]
	return ok
}

// HasCapabilityName is HasCapability for names that arrive as strings.
func HasCapabilityName(roleName, capabilityName string) bool {
	role, err := ParseRole(roleName)
	if err != nil {
		return false
	}
	capability, ok := ParseCapability(capabilityName)
	if !ok {
		return false
	}
	return HasCapability(role, capability)
}

// Capabilities returns a copy of the capabilities held by role.
func Capabilities(role Role) []Capability {
	caps := permissionTable[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}
