package models

import (
	"time"

	"github.com/google/uuid"
)

// Class is a teaching group within one school. Grade and section together
// are unique per school.
type Class struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	SchoolID    uuid.UUID     `json:"school_id" db:"school_id"`
	Name        string        `json:"name" db:"name"`
	Grade       string        `json:"grade" db:"grade"`
	Section     string        `json:"section" db:"section"`
	Capacity    int           `json:"capacity" db:"capacity"`
	TeacherID   uuid.NullUUID `json:"teacher_id" db:"teacher_id"`
	Description string        `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Class model
func (Class) TableName() string {
	return "classes"
}

// NewClass creates a class without a teacher
func NewClass(schoolID uuid.UUID, name, grade, section string, capacity int) *Class {
	now := time.Now().UTC()
	return &Class{
		ID:        uuid.New(),
		SchoolID:  schoolID,
		Name:      name,
		Grade:     grade,
		Section:   section,
		Capacity:  capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AssignTeacher sets or clears the class teacher
func (c *Class) AssignTeacher(teacherID *uuid.UUID) {
	if teacherID == nil {
		c.TeacherID = uuid.NullUUID{}
		return
	}
	c.TeacherID = uuid.NullUUID{UUID: *teacherID, Valid: true}
}
