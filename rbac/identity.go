package rbac

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the authenticated caller for one request. It is built from a
// verified credential and passed by value, so handlers cannot alter it for
// code running after them.
//
// Role is taken from the credential as issued. A role change in the user
// store is only seen once the user signs in again.
type Identity struct {
	UserID    uuid.UUID
	Email     string
	Role      Role
	TenantID  uuid.NullUUID
	SessionID string
	ExpiresAt time.Time
}

// NewIdentity builds an identity. A nil tenant means the user belongs to no school.
func NewIdentity(userID uuid.UUID, role Role, tenantID *uuid.UUID) Identity {
	id := Identity{UserID: userID, Role: role}
	if tenantID != nil {
		id.TenantID = uuid.NullUUID{UUID: *tenantID, Valid: true}
	}
	return id
}

// Tenant returns the identity's school and whether it has one.
func (i Identity) Tenant() (uuid.UUID, bool) {
	return i.TenantID.UUID, i.TenantID.Valid
}

// TenantString returns the school id or an empty string.
func (i Identity) TenantString() string {
	if !i.TenantID.Valid {
		return ""
	}
	return i.TenantID.UUID.String()
}
