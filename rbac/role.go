package rbac

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// Role is the closed set of roles a user can hold.
type Role uint8

const (
	// RoleUnknown is the zero value and is never valid
	RoleUnknown Role = iota
	// RoleGlobalAdmin operates across every school
	RoleGlobalAdmin
	// RoleTenantAdmin administers a single school
	RoleTenantAdmin
	// RoleStaff is a teacher within a school
	RoleStaff
	// RoleGuardian is a parent of one or more students
	RoleGuardian
	// RoleMember is a student
	RoleMember
)

// ErrInvalidRole is returned when a role name is not one of the known roles
var ErrInvalidRole = errors.New("invalid role")

// roleNames are the names stored in credentials and in the users table.
var roleNames = [...]string{
	RoleUnknown:     "",
	RoleGlobalAdmin: "SUPER_ADMIN",
	RoleTenantAdmin: "SCHOOL_ADMIN",
	RoleStaff:       "TEACHER",
	RoleGuardian:    "PARENT",
	RoleMember:      "STUDENT",
}

// Roles returns every valid role.
func Roles() []Role {
	return []Role{RoleGlobalAdmin, RoleTenantAdmin, RoleStaff, RoleGuardian, RoleMember}
}

// ParseRole converts a wire name into a Role. Matching is exact.
func ParseRole(name string) (Role, error) {
	for _, r := range Roles() {
		if roleNames[r] == name {
			return r, nil
		}
	}
	return RoleUnknown, fmt.Errorf("%w: %q", ErrInvalidRole, name)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r >= RoleGlobalAdmin && r <= RoleMember
}

// IsGlobal reports whether r bypasses tenant scoping.
func (r Role) IsGlobal() bool {
	return r == RoleGlobalAdmin
}

func (r Role) String() string {
	if !r.Valid() {
		return "UNKNOWN"
	}
	return roleNames[r]
}

// MarshalText implements encoding.TextMarshaler
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrInvalidRole
	}
	return []byte(roleNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value implements driver.Valuer so roles are stored by name.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, ErrInvalidRole
	}
	return roleNames[r], nil
}

// Scan implements sql.Scanner
func (r *Role) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidRole, src)
	}
}
