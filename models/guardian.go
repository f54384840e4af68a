package models

import (
	"time"

	"github.com/google/uuid"
)

// Guardian is a parent or carer of one or more students in a school.
// UserID links the PARENT account that signs in on their behalf, if any.
type Guardian struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	SchoolID     uuid.UUID     `json:"school_id" db:"school_id"`
	UserID       uuid.NullUUID `json:"user_id" db:"user_id"`
	FirstName    string        `json:"first_name" db:"first_name"`
	LastName     string        `json:"last_name" db:"last_name"`
	Email        string        `json:"email,omitempty" db:"email"`
	Phone        string        `json:"phone,omitempty" db:"phone"`
	Relationship string        `json:"relationship,omitempty" db:"relationship"`
	StudentCount int           `json:"student_count" db:"-"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Guardian model
func (Guardian) TableName() string {
	return "guardians"
}

// NewGuardian creates a guardian in schoolID
func NewGuardian(schoolID uuid.UUID, firstName, lastName string) *Guardian {
	now := time.Now().UTC()
	return &Guardian{
		ID:        uuid.New(),
		SchoolID:  schoolID,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
