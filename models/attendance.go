package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus is the outcome recorded for a student on a day
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

// IsValid checks if the attendance status is valid
func (s AttendanceStatus) IsValid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// AttendanceRecord is one day's attendance for one student. SchoolID always
// matches the student's school.
type AttendanceRecord struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	SchoolID   uuid.UUID        `json:"school_id" db:"school_id"`
	StudentID  uuid.UUID        `json:"student_id" db:"student_id"`
	Date       time.Time        `json:"date" db:"date"`
	Status     AttendanceStatus `json:"status" db:"status"`
	Notes      string           `json:"notes,omitempty" db:"notes"`
	RecordedBy uuid.UUID        `json:"recorded_by" db:"recorded_by"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the AttendanceRecord model
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// NewAttendanceRecord creates a record for student, truncating date to the day
func NewAttendanceRecord(student *Student, date time.Time, status AttendanceStatus, recordedBy uuid.UUID) *AttendanceRecord {
	return &AttendanceRecord{
		ID:         uuid.New(),
		SchoolID:   student.SchoolID,
		StudentID:  student.ID,
		Date:       date.UTC().Truncate(24 * time.Hour),
		Status:     status,
		RecordedBy: recordedBy,
		CreatedAt:  time.Now().UTC(),
	}
}
