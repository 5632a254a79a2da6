package models

import (
	"strings"
	"time"
)

// TransferMode controls whether the registry persists submissions.
type TransferMode string

const (
	TransferModeDryRun TransferMode = "dry_run"
	TransferModeLive   TransferMode = "live"
)

// ParseTransferMode normalises caller input. Anything other than "live"
// falls back to dry_run; the second return reports whether raw was recognised.
func ParseTransferMode(raw string) (TransferMode, bool) {
	switch TransferMode(strings.ToLower(strings.TrimSpace(raw))) {
	case TransferModeLive:
		return TransferModeLive, true
	case TransferModeDryRun:
		return TransferModeDryRun, true
	default:
		return TransferModeDryRun, false
	}
}

// IsDryRun reports whether the mode asks the registry to simulate.
func (m TransferMode) IsDryRun() bool {
	return m != TransferModeLive
}

// TransferJobStatus captures the job lifecycle.
type TransferJobStatus string

const (
	TransferJobRunning   TransferJobStatus = "running"
	TransferJobCompleted TransferJobStatus = "completed"
	TransferJobFailed    TransferJobStatus = "failed"
)

// TransferItemStatus captures the per-enrollment lifecycle.
type TransferItemStatus string

const (
	TransferItemPending     TransferItemStatus = "pending"
	TransferItemTransferred TransferItemStatus = "transferred"
	TransferItemFailed      TransferItemStatus = "failed"
)

// Item error codes assigned by the pipeline itself. Registry rejections carry
// the registry's own codes.
const (
	ItemErrorException = "EXCEPTION"
	ItemErrorJobFailed = "JOB_FAILED"
)

// TransferJob is one triggered registry transfer run for a course.
type TransferJob struct {
	ID           string            `db:"id" json:"id"`
	TenantID     TenantID          `db:"tenant_id" json:"tenant_id"`
	CourseID     string            `db:"course_id" json:"course_id"`
	Mode         TransferMode      `db:"mode" json:"mode"`
	Status       TransferJobStatus `db:"status" json:"status"`
	SuccessCount int               `db:"success_count" json:"success_count"`
	FailureCount int               `db:"failure_count" json:"failure_count"`
	ErrorMessage *string           `db:"error_message" json:"error_message,omitempty"`
	CreatedBy    *string           `db:"created_by" json:"created_by,omitempty"`
	StartedAt    time.Time         `db:"started_at" json:"started_at"`
	CompletedAt  *time.Time        `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
}

// IsTerminal reports whether the job reached completed or failed.
func (j *TransferJob) IsTerminal() bool {
	return j.Status == TransferJobCompleted || j.Status == TransferJobFailed
}

// Finish moves a running job to its outcome status. Terminal jobs are left untouched.
func (j *TransferJob) Finish(at time.Time) {
	if j.IsTerminal() {
		return
	}
	if j.FailureCount > 0 {
		j.Status = TransferJobFailed
	} else {
		j.Status = TransferJobCompleted
	}
	j.CompletedAt = &at
}

// Abort marks the job failed because the run itself broke.
func (j *TransferJob) Abort(message string, at time.Time) {
	if j.IsTerminal() {
		return
	}
	j.Status = TransferJobFailed
	j.ErrorMessage = &message
	j.CompletedAt = &at
}

// TransferJobItem is the per-enrollment unit of work within a job.
type TransferJobItem struct {
	ID            string             `db:"id" json:"id"`
	JobID         string             `db:"job_id" json:"job_id"`
	EnrollmentID  string             `db:"enrollment_id" json:"enrollment_id"`
	Position      int                `db:"position" json:"position"`
	Status        TransferItemStatus `db:"status" json:"status"`
	ErrorCode     *string            `db:"error_code" json:"error_code,omitempty"`
	ErrorMessage  *string            `db:"error_message" json:"error_message,omitempty"`
	TransferredAt *time.Time         `db:"transferred_at" json:"transferred_at,omitempty"`
}

// IsTerminal reports whether the item left pending.
func (i *TransferJobItem) IsTerminal() bool {
	return i.Status == TransferItemTransferred || i.Status == TransferItemFailed
}

// MarkTransferred records a registry acceptance. Returns false when the item
// was already terminal.
func (i *TransferJobItem) MarkTransferred(at time.Time) bool {
	if i.IsTerminal() {
		return false
	}
	i.Status = TransferItemTransferred
	i.ErrorCode = nil
	i.ErrorMessage = nil
	i.TransferredAt = &at
	return true
}

// MarkFailed records a failure with its code. Returns false when the item was
// already terminal.
func (i *TransferJobItem) MarkFailed(code, message string, at time.Time) bool {
	if i.IsTerminal() {
		return false
	}
	i.Status = TransferItemFailed
	i.ErrorCode = &code
	i.ErrorMessage = &message
	i.TransferredAt = &at
	return true
}

// TransferItemDetail enriches an item with enrollment and student fields for audit display.
type TransferItemDetail struct {
	TransferJobItem
	StudentID         string     `db:"student_id" json:"student_id"`
	StudentNationalID string     `db:"student_national_id" json:"student_national_id"`
	StudentFirstName  string     `db:"student_first_name" json:"student_first_name"`
	StudentLastName   string     `db:"student_last_name" json:"student_last_name"`
	EnrolledAt        *time.Time `db:"enrolled_at" json:"enrolled_at,omitempty"`
}

// TransferJobFilter narrows job listings.
type TransferJobFilter struct {
	CourseID string
	Page     int
	PageSize int
}

// TransferSnapshot is the fixed work set captured when a job starts.
type TransferSnapshot struct {
	Course      Course
	Enrollments []SnapshotEnrollment
}

// SnapshotEnrollment is one active enrollment with the student identity the registry needs.
type SnapshotEnrollment struct {
	EnrollmentID string    `db:"enrollment_id"`
	StudentID    string    `db:"student_id"`
	NationalID   string    `db:"national_id"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	BirthDate    time.Time `db:"birth_date"`
	EnrolledAt   time.Time `db:"enrolled_at"`
}
