package rbac

import (
	"github.com/google/uuid"
)

type filterMode uint8

const (
	filterInvalid filterMode = iota
	filterUnrestricted
	filterTenant
)

// TenantFilter restricts data access to the records an identity may see.
// The zero value is invalid and is rejected by the data layer.
type TenantFilter struct {
	mode     filterMode
	tenantID uuid.UUID
}

// Unrestricted returns a filter that matches every school.
func Unrestricted() TenantFilter {
	return TenantFilter{mode: filterUnrestricted}
}

// ForTenant returns a filter that matches a single school.
func ForTenant(tenantID uuid.UUID) TenantFilter {
	return TenantFilter{mode: filterTenant, tenantID: tenantID}
}

// Valid reports whether f was produced by Unrestricted or ForTenant.
func (f TenantFilter) Valid() bool {
	return f.mode == filterUnrestricted || f.mode == filterTenant
}

// Unrestricted reports whether f matches every school.
func (f TenantFilter) Unrestricted() bool {
	return f.mode == filterUnrestricted
}

// TenantID returns the school f is restricted to.
func (f TenantFilter) TenantID() (uuid.UUID, bool) {
	if f.mode != filterTenant {
		return uuid.Nil, false
	}
	return f.tenantID, true
}

// Allows reports whether a record owned by tenantID passes the filter.
func (f TenantFilter) Allows(tenantID uuid.UUID) bool {
	switch f.mode {
	case filterUnrestricted:
		return true
	case filterTenant:
		return f.tenantID == tenantID
	default:
		return false
	}
}

func (f TenantFilter) String() string {
	switch f.mode {
	case filterUnrestricted:
		return "all"
	case filterTenant:
		return "school_id=" + f.tenantID.String()
	default:
		return "invalid"
	}
}

// ScopeFilter derives the data filter for an identity. Global admins are
// unrestricted whatever school they carry; every other role is confined to
// its own school and rejected with ErrNoTenant when it has none.
func ScopeFilter(id Identity) (TenantFilter, error) {
	if !id.Role.Valid() {
		return TenantFilter{}, ErrInvalidRole
	}
	if id.Role.IsGlobal() {
		return Unrestricted(), nil
	}
	tenantID, ok := id.Tenant()
	if !ok {
		return TenantFilter{}, Denied(ErrNoTenant, "role %s has no school", id.Role)
	}
	return ForTenant(tenantID), nil
}

// CanAccessTenant reports whether id may act on records of target.
func CanAccessTenant(id Identity, target uuid.UUID) bool {
	if id.Role.IsGlobal() {
		return true
	}
	if !id.Role.Valid() {
		return false
	}
	tenantID, ok := id.Tenant()
	return ok && tenantID == target
}

// RequireTenantAccess is CanAccessTenant as a guard.
func RequireTenantAccess(id Identity, target uuid.UUID) (Identity, error) {
	if !CanAccessTenant(id, target) {
		return id, Denied(ErrCrossTenant, "school %s", target)
	}
	return id, nil
}
