package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/drivecourse-api/internal/dto"
	"github.com/noah-isme/drivecourse-api/internal/models"
	appErrors "github.com/noah-isme/drivecourse-api/pkg/errors"
	"github.com/noah-isme/drivecourse-api/pkg/registry"
)

const (
	itemOutcomeTransferred = "transferred"
	itemOutcomeRejected    = "rejected"
	itemOutcomeException   = "exception"

	defaultRejectionCode = "REJECTED"
)

type transferSnapshotLoader interface {
	LoadTransferSnapshot(ctx context.Context, tenantID models.TenantID, courseID string) (*models.TransferSnapshot, error)
}

type transferJobReader interface {
	GetJob(ctx context.Context, tenantID models.TenantID, id string) (*models.TransferJob, error)
	ListItems(ctx context.Context, jobID string) ([]models.TransferItemDetail, error)
}

type transferJobWriter interface {
	CreateJob(ctx context.Context, job *models.TransferJob) error
	CreateItems(ctx context.Context, items []models.TransferJobItem) error
	RecordItemOutcome(ctx context.Context, job *models.TransferJob, item *models.TransferJobItem) error
	FinalizeJob(ctx context.Context, job *models.TransferJob, items []models.TransferJobItem) error
}

type transferJobStore interface {
	transferJobReader
	transferJobWriter
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// TransferService runs registry transfer jobs for a course. A run is
// synchronous and sequential: snapshot, job row, item rows, one registry call
// per item, final save.
type TransferService struct {
	snapshots transferSnapshotLoader
	store     transferJobStore
	adapter   registry.Adapter
	audit     auditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTransferService constructs the orchestrator.
func NewTransferService(snapshots transferSnapshotLoader, store transferJobStore, adapter registry.Adapter, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TransferService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferService{
		snapshots: snapshots,
		store:     store,
		adapter:   adapter,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// TriggerTransfer pushes the course's active enrollments to the registry.
// NotFound and InvalidState are returned before any job row exists. Once the
// job row is written the call returns the job, whatever its outcome.
func (s *TransferService) TriggerTransfer(ctx context.Context, tenantID models.TenantID, req dto.TriggerTransferRequest, actorID string) (*dto.JobView, error) {
	if tenantID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tenant is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer request")
	}
	mode, recognised := models.ParseTransferMode(req.Mode)
	if !recognised && req.Mode != "" {
		s.logger.Warn("unrecognised transfer mode, using dry_run",
			zap.String("mode", req.Mode),
			zap.String("course_id", req.CourseID),
		)
	}

	snapshot, err := s.snapshots.LoadTransferSnapshot(ctx, tenantID, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course enrollments")
	}
	if len(snapshot.Enrollments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "course has no active enrollments")
	}

	// The run must finish even if the client goes away.
	runCtx := context.WithoutCancel(ctx)

	job := &models.TransferJob{
		TenantID:  tenantID,
		CourseID:  snapshot.Course.ID,
		Mode:      mode,
		Status:    models.TransferJobRunning,
		StartedAt: s.now(),
	}
	if actorID != "" {
		job.CreatedBy = &actorID
	}
	if err := s.store.CreateJob(runCtx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create transfer job")
	}

	log := s.logger.With(
		zap.String("job_id", job.ID),
		zap.String("tenant_id", string(tenantID)),
		zap.String("course_id", job.CourseID),
		zap.String("mode", string(mode)),
	)
	log.Info("registry transfer started", zap.Int("items", len(snapshot.Enrollments)))
	s.metrics.TransferStarted()

	items := make([]models.TransferJobItem, len(snapshot.Enrollments))
	for i, enrollment := range snapshot.Enrollments {
		items[i] = models.TransferJobItem{
			JobID:        job.ID,
			EnrollmentID: enrollment.EnrollmentID,
			Position:     i,
			Status:       models.TransferItemPending,
		}
	}

	if err := s.store.CreateItems(runCtx, items); err != nil {
		// Nothing was stored for the items, so the job ends with zero of them.
		items = nil
		s.abort(job, items, fmt.Errorf("create transfer items: %w", err), log)
	} else if err := s.execute(runCtx, job, snapshot, items); err != nil {
		s.abort(job, items, err, log)
	} else {
		job.Finish(s.now())
	}

	if err := s.store.FinalizeJob(runCtx, job, items); err != nil {
		log.Error("failed to persist final transfer state", zap.Error(err))
	}

	s.metrics.TransferFinished(job.Mode, job.Status)
	log.Info("registry transfer finished",
		zap.String("status", string(job.Status)),
		zap.Int("success", job.SuccessCount),
		zap.Int("failure", job.FailureCount),
	)
	s.recordAudit(runCtx, job, len(items), actorID, log)

	view, err := loadJobView(runCtx, s.store, tenantID, job.ID)
	if err != nil {
		log.Warn("failed to hydrate transfer job, returning in-memory state", zap.Error(err))
		fallback := snapshotView(*job, snapshot, items)
		return &fallback, nil
	}
	return view, nil
}

// execute runs the per-item loop. Registry failures are absorbed into the
// items; any error returned here is a failure of the run itself.
func (s *TransferService) execute(ctx context.Context, job *models.TransferJob, snapshot *models.TransferSnapshot, items []models.TransferJobItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transfer run panicked: %v", r)
		}
	}()

	for i := range items {
		item := &items[i]
		req := buildRegistryRequest(snapshot.Course, snapshot.Enrollments[i])

		start := time.Now()
		result, callErr := s.callAdapter(ctx, req, job.Mode.IsDryRun())
		at := s.now()

		var outcome string
		switch {
		case callErr != nil:
			item.MarkFailed(models.ItemErrorException, callErr.Error(), at)
			job.FailureCount++
			outcome = itemOutcomeException
		case result.Success:
			item.MarkTransferred(at)
			job.SuccessCount++
			outcome = itemOutcomeTransferred
		default:
			code := result.ErrorCode
			if code == "" {
				code = defaultRejectionCode
			}
			item.MarkFailed(code, result.ErrorMessage, at)
			job.FailureCount++
			outcome = itemOutcomeRejected
		}
		s.metrics.ObserveRegistryCall(job.Mode, outcome, time.Since(start))

		if err := s.store.RecordItemOutcome(ctx, job, item); err != nil {
			return fmt.Errorf("record outcome of item %s: %w", item.ID, err)
		}
	}
	return nil
}

// callAdapter turns adapter panics into errors so one item cannot stop the run.
func (s *TransferService) callAdapter(ctx context.Context, req registry.Request, dryRun bool) (result registry.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("registry adapter panicked: %v", r)
		}
	}()
	return s.adapter.Transfer(ctx, req, dryRun)
}

// abort fails the job and every item still pending.
func (s *TransferService) abort(job *models.TransferJob, items []models.TransferJobItem, cause error, log *zap.Logger) {
	at := s.now()
	message := cause.Error()
	for i := range items {
		if items[i].MarkFailed(models.ItemErrorJobFailed, message, at) {
			job.FailureCount++
		}
	}
	job.Abort(message, at)
	log.Error("registry transfer aborted", zap.Error(cause))
}

func (s *TransferService) recordAudit(ctx context.Context, job *models.TransferJob, itemCount int, actorID string, log *zap.Logger) {
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"courseId":     job.CourseID,
		"mode":         job.Mode,
		"status":       job.Status,
		"items":        itemCount,
		"successCount": job.SuccessCount,
		"failureCount": job.FailureCount,
	})
	if err != nil {
		log.Warn("failed to encode transfer audit payload", zap.Error(err))
		return
	}
	entry := &models.AuditLog{
		TenantID:   job.TenantID,
		Action:     models.AuditActionMebbisTransfer,
		Resource:   "transfer_jobs",
		ResourceID: &job.ID,
		NewValues:  payload,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		log.Warn("failed to record transfer audit log", zap.Error(err))
	}
}

func buildRegistryRequest(course models.Course, enrollment models.SnapshotEnrollment) registry.Request {
	return registry.Request{
		EnrollmentID:   enrollment.EnrollmentID,
		NationalID:     enrollment.NationalID,
		FirstName:      enrollment.FirstName,
		LastName:       enrollment.LastName,
		BirthDate:      enrollment.BirthDate,
		CategoryCode:   course.CategoryCode,
		EnrollmentDate: enrollment.EnrolledAt,
	}
}

func loadJobView(ctx context.Context, reader transferJobReader, tenantID models.TenantID, id string) (*dto.JobView, error) {
	job, err := reader.GetJob(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	items, err := reader.ListItems(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	view := dto.NewJobView(*job, items)
	return &view, nil
}

func snapshotView(job models.TransferJob, snapshot *models.TransferSnapshot, items []models.TransferJobItem) dto.JobView {
	details := make([]models.TransferItemDetail, len(items))
	for i, item := range items {
		enrollment := snapshot.Enrollments[item.Position]
		enrolledAt := enrollment.EnrolledAt
		details[i] = models.TransferItemDetail{
			TransferJobItem:   item,
			StudentID:         enrollment.StudentID,
			StudentNationalID: enrollment.NationalID,
			StudentFirstName:  enrollment.FirstName,
			StudentLastName:   enrollment.LastName,
			EnrolledAt:        &enrolledAt,
		}
	}
	return dto.NewJobView(job, details)
}
