package rbac

// Capability names a single permitted action.
type Capability uint8

const (
	CapUnknown Capability = iota

	CapManageAllTenants
	CapCreateTenant
	CapDeleteTenant
	CapViewAllIdentities

	CapManageTenant
	CapManageMembers
	CapManageStudents
	CapManageStaff
	CapManageGuardians
	CapManageClasses
	CapManageSubjects
	CapViewReports
	CapManageBilling

	CapManageOwnClasses
	CapRecordAttendance
	CapRecordGrades
	CapViewOwnStudents
	CapCreateAssignments

	CapViewOwnDependents
	CapViewGrades
	CapViewAttendance
	CapPayInvoices

	CapViewOwnProfile
	CapViewAssignments

	capabilityCount
)

var capabilityNames = [capabilityCount]string{
	CapManageAllTenants:  "manage-all-tenants",
	CapCreateTenant:      "create-tenant",
	CapDeleteTenant:      "delete-tenant",
	CapViewAllIdentities: "view-all-identities",
	CapManageTenant:      "manage-tenant",
	CapManageMembers:     "manage-members",
	CapManageStudents:    "manage-students",
	CapManageStaff:       "manage-staff",
	CapManageGuardians:   "manage-guardians",
	CapManageClasses:     "manage-classes",
	CapManageSubjects:    "manage-subjects",
	CapViewReports:       "view-reports",
	CapManageBilling:     "manage-billing",
	CapManageOwnClasses:  "manage-own-classes",
	CapRecordAttendance:  "record-attendance",
	CapRecordGrades:      "record-grades",
	CapViewOwnStudents:   "view-own-students",
	CapCreateAssignments: "create-assignments",
	CapViewOwnDependents: "view-own-dependents",
	CapViewGrades:        "view-grades",
	CapViewAttendance:    "view-attendance",
	CapPayInvoices:       "pay-invoices",
	CapViewOwnProfile:    "view-own-profile",
	CapViewAssignments:   "view-assignments",
}

// ParseCapability looks up a capability by its kebab-case name.
func ParseCapability(name string) (Capability, bool) {
	if name == "" {
		return CapUnknown, false
	}
	for c := CapManageAllTenants; c < capabilityCount; c++ {
		if capabilityNames[c] == name {
			return c, true
		}
	}
	return CapUnknown, false
}

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	return c > CapUnknown && c < capabilityCount
}

func (c Capability) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return capabilityNames[c]
}
