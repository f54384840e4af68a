package models

import (
	"time"

	"github.com/google/uuid"
)

// Student is enrolled in exactly one school. The student number is unique
// within that school.
type Student struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	SchoolID      uuid.UUID     `json:"school_id" db:"school_id"`
	UserID        uuid.NullUUID `json:"user_id" db:"user_id"`
	StudentNumber string        `json:"student_number" db:"student_number"`
	FirstName     string        `json:"first_name" db:"first_name"`
	LastName      string        `json:"last_name" db:"last_name"`
	Grade         int           `json:"grade" db:"grade"`
	DateOfBirth   *time.Time    `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Active        bool          `json:"active" db:"active"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Student model
func (Student) TableName() string {
	return "students"
}

// NewStudent creates an active student in schoolID
func NewStudent(schoolID uuid.UUID, studentNumber, firstName, lastName string, grade int) *Student {
	now := time.Now().UTC()
	return &Student{
		ID:            uuid.New(),
		SchoolID:      schoolID,
		StudentNumber: studentNumber,
		FirstName:     firstName,
		LastName:      lastName,
		Grade:         grade,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// FullName returns the student's display name
func (s *Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}
