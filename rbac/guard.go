package rbac

import (
	"context"
)

// RequireAuthenticated returns the identity attached to ctx, or
// ErrUnauthenticated when there is none.
func RequireAuthenticated(ctx context.Context) (Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok || !id.Role.Valid() {
		return Identity{}, ErrUnauthenticated
	}
	return id, nil
}

// RequireRole passes when the identity's role is in allowed. Global admins
// are not admitted unless listed.
func RequireRole(id Identity, allowed ...Role) (Identity, error) {
	for _, r := range allowed {
		if r.Valid() && id.Role == r {
			return id, nil
		}
	}
	return id, Denied(ErrRoleNotAllowed, "role %s", id.Role)
}

// RequireCapability passes when the identity's role holds capability.
func RequireCapability(id Identity, capability Capability) (Identity, error) {
	if HasCapability(id.Role, capability) {
		return id, nil
	}
	return id, Denied(ErrRoleNotAllowed, "role %s lacks %s", id.Role, capability)
}

// RequireAnyCapability passes when the identity's role holds at least one of caps.
func RequireAnyCapability(id Identity, caps ...Capability) (Identity, error) {
	for _, c := range caps {
		if HasCapability(id.Role, c) {
			return id, nil
		}
	}
	return id, Denied(ErrRoleNotAllowed, "role %s lacks %v", id.Role, caps)
}
