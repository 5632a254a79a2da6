package dto

import (
	"time"

	"github.com/noah-isme/drivecourse-api/internal/models"
)

// TriggerTransferRequest carries the inputs of a registry transfer trigger.
type TriggerTransferRequest struct {
	CourseID string `json:"courseId" validate:"required"`
	Mode     string `json:"mode"`
}

// JobListQuery mirrors supported listing filters.
type JobListQuery struct {
	CourseID string `form:"courseId" validate:"omitempty,max=64"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// JobSummary is the list projection of a transfer job, without items.
type JobSummary struct {
	ID           string                   `json:"id"`
	CourseID     string                   `json:"courseId"`
	Mode         models.TransferMode      `json:"mode"`
	Status       models.TransferJobStatus `json:"status"`
	SuccessCount int                      `json:"successCount"`
	FailureCount int                      `json:"failureCount"`
	ErrorMessage *string                  `json:"errorMessage,omitempty"`
	CreatedBy    *string                  `json:"createdBy,omitempty"`
	StartedAt    time.Time                `json:"startedAt"`
	CompletedAt  *time.Time               `json:"completedAt,omitempty"`
	CreatedAt    time.Time                `json:"createdAt"`
}

// JobView is a transfer job with its ordered items.
type JobView struct {
	JobSummary
	TotalItems   int        `json:"totalItems"`
	PendingCount int        `json:"pendingCount"`
	Items        []ItemView `json:"items"`
}

// ItemView is one item with denormalized enrollment and student fields.
type ItemView struct {
	ID                string                    `json:"id"`
	EnrollmentID      string                    `json:"enrollmentId"`
	Position          int                       `json:"position"`
	Status            models.TransferItemStatus `json:"status"`
	ErrorCode         *string                   `json:"errorCode,omitempty"`
	ErrorMessage      *string                   `json:"errorMessage,omitempty"`
	TransferredAt     *time.Time                `json:"transferredAt,omitempty"`
	StudentID         string                    `json:"studentId,omitempty"`
	StudentNationalID string                    `json:"studentNationalId,omitempty"`
	StudentName       string                    `json:"studentName,omitempty"`
	EnrolledAt        *time.Time                `json:"enrolledAt,omitempty"`
}

// NewJobSummary projects a job row.
func NewJobSummary(job models.TransferJob) JobSummary {
	return JobSummary{
		ID:           job.ID,
		CourseID:     job.CourseID,
		Mode:         job.Mode,
		Status:       job.Status,
		SuccessCount: job.SuccessCount,
		FailureCount: job.FailureCount,
		ErrorMessage: copyString(job.ErrorMessage),
		CreatedBy:    copyString(job.CreatedBy),
		StartedAt:    job.StartedAt,
		CompletedAt:  copyTime(job.CompletedAt),
		CreatedAt:    job.CreatedAt,
	}
}

// NewJobView projects a job and its item rows.
func NewJobView(job models.TransferJob, items []models.TransferItemDetail) JobView {
	view := JobView{
		JobSummary: NewJobSummary(job),
		TotalItems: len(items),
		Items:      make([]ItemView, 0, len(items)),
	}
	for _, item := range items {
		if item.Status == models.TransferItemPending {
			view.PendingCount++
		}
		view.Items = append(view.Items, newItemView(item))
	}
	return view
}

func newItemView(item models.TransferItemDetail) ItemView {
	student := models.Student{FirstName: item.StudentFirstName, LastName: item.StudentLastName}
	return ItemView{
		ID:                item.ID,
		EnrollmentID:      item.EnrollmentID,
		Position:          item.Position,
		Status:            item.Status,
		ErrorCode:         copyString(item.ErrorCode),
		ErrorMessage:      copyString(item.ErrorMessage),
		TransferredAt:     copyTime(item.TransferredAt),
		StudentID:         item.StudentID,
		StudentNationalID: item.StudentNationalID,
		StudentName:       student.FullName(),
		EnrolledAt:        copyTime(item.EnrolledAt),
	}
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
