package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drivecourse-api/internal/models"
)

func TestAuditRepositoryCreateAuditLog(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()
	repo := NewAuditRepository(sqlx.NewDb(raw, "sqlmock"))

	userID := "user-1"
	jobID := "job-1"
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs(sqlmock.AnyArg(), "tenant-1", userID, models.AuditActionMebbisTransfer, "transfer_jobs", jobID, []byte(`{"status":"completed"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{
		TenantID:   "tenant-1",
		UserID:     &userID,
		Action:     models.AuditActionMebbisTransfer,
		Resource:   "transfer_jobs",
		ResourceID: &jobID,
		NewValues:  []byte(`{"status":"completed"}`),
	}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
