package rbac

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when no verified identity is present
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrCredentialInvalid is returned when a credential fails verification
	ErrCredentialInvalid = errors.New("credential invalid")

	// ErrRoleNotAllowed is returned when the identity's role lacks the required role or capability
	ErrRoleNotAllowed = errors.New("role not allowed")

	// ErrNoTenant is returned when a tenant-bound role has no school
	ErrNoTenant = errors.New("no tenant")

	// ErrCrossTenant is returned when an identity references another school
	ErrCrossTenant = errors.New("cross-tenant access")
)

// Reason is the machine-readable cause attached to a denial.
type Reason string

const (
	ReasonUnauthenticated Reason = "Unauthenticated"
	ReasonUnauthorized    Reason = "Unauthorized"
	ReasonNoTenantAccess  Reason = "NoTenantAccess"
	ReasonInvalidRole     Reason = "InvalidRole"
)

// ReasonFor maps an error from this package to its denial reason.
// Errors it does not recognise map to ReasonUnauthorized.
func ReasonFor(err error) Reason {
	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrCredentialInvalid):
		return ReasonUnauthenticated
	case errors.Is(err, ErrInvalidRole):
		return ReasonInvalidRole
	case errors.Is(err, ErrNoTenant):
		return ReasonNoTenantAccess
	default:
		return ReasonUnauthorized
	}
}

// Denied wraps a sentinel with request-specific detail while keeping it
// matchable with errors.Is.
func Denied(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
