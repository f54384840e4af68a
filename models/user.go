package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Astonie/schoolyathu/rbac"
)

// User is an account that can sign in. Global admins have no school.
type User struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	Email        string        `json:"email" db:"email"`
	Name         string        `json:"name,omitempty" db:"name"`
	PasswordHash string        `json:"-" db:"password_hash"` // Never expose in JSON
	Role         rbac.Role     `json:"role" db:"role"`
	SchoolID     uuid.NullUUID `json:"school_id" db:"school_id"`
	Active       bool          `json:"active" db:"active"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates an active user. schoolID is nil for global admins.
func NewUser(email, name, passwordHash string, role rbac.Role, schoolID *uuid.UUID) *User {
	now := time.Now().UTC()
	u := &User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if schoolID != nil {
		u.SchoolID = uuid.NullUUID{UUID: *schoolID, Valid: true}
	}
	return u
}

// Identity returns the identity a credential issued for u would carry
func (u *User) Identity() rbac.Identity {
	return rbac.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		TenantID: u.SchoolID,
	}
}
