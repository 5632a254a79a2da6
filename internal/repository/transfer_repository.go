package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/drivecourse-api/internal/models"
)

// TransferRepository persists registry transfer jobs and their items.
// Rows are append-only: updates only ever move a row forward out of
// running/pending, and nothing is deleted.
type TransferRepository struct {
	db *sqlx.DB
}

// NewTransferRepository constructs the repository.
func NewTransferRepository(db *sqlx.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

const transferJobColumns = `id, tenant_id, course_id, mode, status, success_count, failure_count, error_message, created_by, started_at, completed_at, created_at`

// CreateJob inserts a new running job row.
func (r *TransferRepository) CreateJob(ctx context.Context, job *models.TransferJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.TransferJobRunning
	}
	now := time.Now().UTC()
	if job.StartedAt.IsZero() {
		job.StartedAt = now
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	const query = `INSERT INTO transfer_jobs (id, tenant_id, course_id, mode, status, success_count, failure_count, error_message, created_by, started_at, completed_at, created_at)
VALUES (:id, :tenant_id, :course_id, :mode, :status, :success_count, :failure_count, :error_message, :created_by, :started_at, :completed_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create transfer job: %w", err)
	}
	return nil
}

// CreateItems inserts all items of a job in one statement.
func (r *TransferRepository) CreateItems(ctx context.Context, items []models.TransferJobItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		if items[i].Status == "" {
			items[i].Status = models.TransferItemPending
		}
	}
	const query = `INSERT INTO transfer_job_items (id, job_id, enrollment_id, position, status, error_code, error_message, transferred_at)
VALUES (:id, :job_id, :enrollment_id, :position, :status, :error_code, :error_message, :transferred_at)`
	if _, err := r.db.NamedExecContext(ctx, query, items); err != nil {
		return fmt.Errorf("create transfer job items: %w", err)
	}
	return nil
}

// RecordItemOutcome stores an item's terminal state together with the job
// counters so readers see progress while the run is in flight.
func (r *TransferRepository) RecordItemOutcome(ctx context.Context, job *models.TransferJob, item *models.TransferJobItem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin item outcome tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := updatePendingItem(ctx, tx, item); err != nil {
		return err
	}
	const jobQuery = `UPDATE transfer_jobs SET success_count = $1, failure_count = $2 WHERE id = $3 AND status = $4`
	if _, err := tx.ExecContext(ctx, jobQuery, job.SuccessCount, job.FailureCount, job.ID, models.TransferJobRunning); err != nil {
		return fmt.Errorf("update transfer job counters: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit item outcome: %w", err)
	}
	return nil
}

// FinalizeJob writes the terminal job row and any items whose stored row is
// still pending. Rows already terminal are left untouched.
func (r *TransferRepository) FinalizeJob(ctx context.Context, job *models.TransferJob, items []models.TransferJobItem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finalize tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range items {
		if !items[i].IsTerminal() {
			continue
		}
		if err := updatePendingItem(ctx, tx, &items[i]); err != nil {
			return err
		}
	}

	const jobQuery = `UPDATE transfer_jobs SET status = $1, success_count = $2, failure_count = $3, error_message = $4, completed_at = $5
WHERE id = $6 AND status = $7`
	if _, err := tx.ExecContext(ctx, jobQuery, job.Status, job.SuccessCount, job.FailureCount, job.ErrorMessage, job.CompletedAt, job.ID, models.TransferJobRunning); err != nil {
		return fmt.Errorf("finalize transfer job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finalize: %w", err)
	}
	return nil
}

func updatePendingItem(ctx context.Context, tx *sqlx.Tx, item *models.TransferJobItem) error {
	const query = `UPDATE transfer_job_items SET status = $1, error_code = $2, error_message = $3, transferred_at = $4
WHERE id = $5 AND status = $6`
	if _, err := tx.ExecContext(ctx, query, item.Status, item.ErrorCode, item.ErrorMessage, item.TransferredAt, item.ID, models.TransferItemPending); err != nil {
		return fmt.Errorf("update transfer job item: %w", err)
	}
	return nil
}

// GetJob returns a tenant's job by identifier.
func (r *TransferRepository) GetJob(ctx context.Context, tenantID models.TenantID, id string) (*models.TransferJob, error) {
	query := `SELECT ` + transferJobColumns + ` FROM transfer_jobs WHERE tenant_id = $1 AND id = $2`
	var job models.TransferJob
	if err := r.db.GetContext(ctx, &job, query, tenantID, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListItems returns the job's items in snapshot order with student display fields.
func (r *TransferRepository) ListItems(ctx context.Context, jobID string) ([]models.TransferItemDetail, error) {
	const query = `SELECT i.id, i.job_id, i.enrollment_id, i.position, i.status, i.error_code, i.error_message, i.transferred_at,
COALESCE(s.id, '') AS student_id, COALESCE(s.national_id, '') AS student_national_id,
COALESCE(s.first_name, '') AS student_first_name, COALESCE(s.last_name, '') AS student_last_name, e.enrolled_at
FROM transfer_job_items i
LEFT JOIN enrollments e ON e.id = i.enrollment_id
LEFT JOIN students s ON s.id = e.student_id
WHERE i.job_id = $1
ORDER BY i.position ASC`
	var items []models.TransferItemDetail
	if err := r.db.SelectContext(ctx, &items, query, jobID); err != nil {
		return nil, fmt.Errorf("list transfer job items: %w", err)
	}
	return items, nil
}

// ListJobs returns job rows newest first.
func (r *TransferRepository) ListJobs(ctx context.Context, tenantID models.TenantID, filter models.TransferJobFilter) ([]models.TransferJob, int, error) {
	conditions := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	clause := " WHERE " + strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM transfer_jobs%s ORDER BY started_at DESC, id DESC LIMIT %d OFFSET %d`, transferJobColumns, clause, size, offset)
	var jobs []models.TransferJob
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list transfer jobs: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM transfer_jobs"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count transfer jobs: %w", err)
	}
	return jobs, total, nil
}
