package models

import (
	"time"

	"github.com/google/uuid"
)

// School is the tenant. Every tenant-owned row carries its id.
type School struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Address   string    `json:"address" db:"address"`
	Email     string    `json:"email,omitempty" db:"email"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the School model
func (School) TableName() string {
	return "schools"
}

// NewSchool creates a new School instance
func NewSchool(name, address string) *School {
	now := time.Now().UTC()
	return &School{
		ID:        uuid.New(),
		Name:      name,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
