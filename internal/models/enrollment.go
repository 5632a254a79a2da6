package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// Enrollment captures a student's registration to a course.
type Enrollment struct {
	ID         string           `db:"id" json:"id"`
	TenantID   TenantID         `db:"tenant_id" json:"tenant_id"`
	CourseID   string           `db:"course_id" json:"course_id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	Status     EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt time.Time        `db:"enrolled_at" json:"enrolled_at"`
}
