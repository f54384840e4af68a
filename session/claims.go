package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Astonie/schoolyathu/rbac"
)

var (
	// ErrInvalidToken is returned when the token is malformed, badly signed or rejected by claim checks
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked is returned when the token's session was signed out
	ErrTokenRevoked = errors.New("token revoked")

	// ErrMissingClaim is returned when a required claim is missing
	ErrMissingClaim = errors.New("missing required claim")
)

// Claims is the credential payload. Role holds the wire name of the role
// and SchoolID is empty for users without a school.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	SchoolID string `json:"school_id,omitempty"`
}

// Identity converts verified claims into an identity. An unknown role is
// reported as rbac.ErrInvalidRole so callers can tell it apart from a bad
// credential.
func (c *Claims) Identity() (rbac.Identity, error) {
	if c.Subject == "" {
		return rbac.Identity{}, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return rbac.Identity{}, fmt.Errorf("%w: sub is not a UUID", ErrInvalidToken)
	}

	role, err := rbac.ParseRole(c.Role)
	if err != nil {
		return rbac.Identity{}, err
	}

	var schoolID *uuid.UUID
	if c.SchoolID != "" {
		parsed, err := uuid.Parse(c.SchoolID)
		if err != nil {
			return rbac.Identity{}, fmt.Errorf("%w: school_id is not a UUID", ErrInvalidToken)
		}
		schoolID = &parsed
	}

	id := rbac.NewIdentity(userID, role, schoolID)
	id.Email = c.Email
	id.SessionID = c.ID
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id, nil
}
