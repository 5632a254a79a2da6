package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drivecourse-api/internal/models"
)

func newTransferRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var transferJobRowColumns = []string{"id", "tenant_id", "course_id", "mode", "status", "success_count", "failure_count", "error_message", "created_by", "started_at", "completed_at", "created_at"}

func TestTransferRepositoryCreateJob(t *testing.T) {
	db, mock, cleanup := newTransferRepoMock(t)
	defer cleanup()
	repo := NewTransferRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transfer_jobs")).
		WithArgs(sqlmock.AnyArg(), "tenant-1", "course-1", "live", "running", 0, 0, nil, nil, sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.TransferJob{TenantID: "tenant-1", CourseID: "course-1", Mode: models.TransferModeLive}
	require.NoError(t, repo.CreateJob(context.Background(), job))
	require.NotEmpty(t, job.ID)
	require.Equal(t, models.TransferJobRunning, job.Status)
	require.False(t, job.StartedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepositoryCreateItemsSingleBatch(t *testing.T) {
	db, mock, cleanup := newTransferRepoMock(t)
	defer cleanup()
	repo := NewTransferRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transfer_job_items")).
		WithArgs(
			sqlmock.AnyArg(), "job-1", "enr-1", 0, "pending", nil, nil, nil,
			sqlmock.AnyArg(), "job-1", "enr-2", 1, "pending", nil, nil, nil,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	items := []models.TransferJobItem{
		{JobID: "job-1", EnrollmentID: "enr-1", Position: 0},
		{JobID: "job-1", EnrollmentID: "enr-2", Position: 1},
	}
	require.NoError(t, repo.CreateItems(context.Background(), items))
	require.NotEmpty(t, items[0].ID)
	require.NotEqual(t, items[0].ID, items[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepositoryRecordItemOutcome(t *testing.T) {
	db, mock, cleanup := newTransferRepoMock(t)
	defer cleanup()
	repo := NewTransferRepository(db)

	now := time.Now().UTC()
	item := &models.TransferJobItem{ID: "item-1", JobID: "job-1", Status: models.TransferItemPending}
	item.MarkTransferred(now)
	job := &models.TransferJob{ID: "job-1", Status: models.TransferJobRunning, SuccessCount: 1}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transfer_job_items SET status = $1, error_code = $2, error_message = $3, transferred_at = $4")).
		WithArgs("transferred", nil, nil, now, "item-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transfer_jobs SET success_count = $1, failure_count = $2 WHERE id = $3 AND status = $4")).
		WithArgs(1, 0, "job-1", "running").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.RecordItemOutcome(context.Background(), job, item))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepositoryFinalizeJobSkipsPendingItems(t *testing.T) {
	db, mock, cleanup := newTransferRepoMock(t)
	defer cleanup()
	repo := NewTransferRepository(db)

	now := time.Now().UTC()
	failed := models.TransferJobItem{ID: "item-1", Status: models.TransferItemPending}
	failed.MarkFailed(models.ItemErrorJobFailed, "boom", now)
	pending := models.TransferJobItem{ID: "item-2", Status: models.TransferItemPending}

	job := &models.TransferJob{ID: "job-1", Status: models.TransferJobRunning, FailureCount: 1}
	job.Abort("boom", now)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transfer_job_items SET")).
		WithArgs("failed", models.ItemErrorJobFailed, "boom", now, "item-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transfer_jobs SET status = $1, success_count = $2, failure_count = $3, error_message = $4, completed_at = $5")).
		WithArgs("failed", 0, 1, "boom", now, "job-1", "running").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.FinalizeJob(context.Background(), job, []models.TransferJobItem{failed, pending}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepositoryGetJob(t *testing.T) {
	db, mock, cleanup := newTransferRepoMock(t)
	defer cleanup()
	repo := NewTransferRepository(db)

	rows := sqlmock.NewRows(transferJobRowColumns).
		AddRow("job-1", "tenant-1", "course-1", "dry_run", "completed", 3, 0, nil, "user-1", time.Now(), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM transfer_jobs WHERE tenant_id = $1 AND id = $2")).
		WithArgs("tenant-1", "job-1").
		WillReturnRows(rows)

	job, err := repo.GetJob(context.Background(), "tenant-1", "job-1")
	require.NoError(t, err)
	require.Equal(t, models.TransferJobCompleted, job.Status)
	require.Equal(t, 3, job.SuccessCount)
	require.NotNil(t, job.CompletedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepositoryListItems(t *testing.T) {
	db, mock, cleanup := newTransferRepoMock(t)
	defer cleanup()
	repo := NewTransferRepository(db)

	rows := sqlmock.NewRows([]string{"id", "job_id", "enrollment_id", "position", "status", "error_code", "error_message", "transferred_at", "student_id", "student_national_id", "student_first_name", "student_last_name", "enrolled_at"}).
		AddRow("item-1", "job-1", "enr-1", 0, "transferred", nil, nil, time.Now(), "stu-1", "10000000146", "Ayse", "Yilmaz", time.Now()).
		AddRow("item-2", "job-1", "enr-2", 1, "pending", nil, nil, nil, "stu-2", "12345678950", "Mehmet", "Kaya", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM transfer_job_items i")).
		WithArgs("job-1").
		WillReturnRows(rows)

	items, err := repo.ListItems(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Ayse", items[0].StudentFirstName)
	require.Equal(t, models.TransferItemPending, items[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepositoryListJobsByCourse(t *testing.T) {
	db, mock, cleanup := newTransferRepoMock(t)
	defer cleanup()
	repo := NewTransferRepository(db)

	rows := sqlmock.NewRows(transferJobRowColumns).
		AddRow("job-2", "tenant-1", "course-1", "live", "running", 1, 0, nil, nil, time.Now(), nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM transfer_jobs WHERE tenant_id = $1 AND course_id = $2 ORDER BY started_at DESC, id DESC LIMIT 20 OFFSET 0")).
		WithArgs("tenant-1", "course-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM transfer_jobs WHERE tenant_id = $1 AND course_id = $2")).
		WithArgs("tenant-1", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	jobs, total, err := repo.ListJobs(context.Background(), "tenant-1", models.TransferJobFilter{CourseID: "course-1"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, 1, total)
	require.Nil(t, jobs[0].CompletedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepositoryListJobsEmpty(t *testing.T) {
	db, mock, cleanup := newTransferRepoMock(t)
	defer cleanup()
	repo := NewTransferRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM transfer_jobs WHERE tenant_id = $1 ORDER BY")).
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows(transferJobRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM transfer_jobs WHERE tenant_id = $1")).
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	jobs, total, err := repo.ListJobs(context.Background(), "tenant-1", models.TransferJobFilter{})
	require.NoError(t, err)
	require.Empty(t, jobs)
	require.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
