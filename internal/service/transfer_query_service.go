package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/drivecourse-api/internal/dto"
	"github.com/noah-isme/drivecourse-api/internal/models"
	appErrors "github.com/noah-isme/drivecourse-api/pkg/errors"
)

type transferJobLister interface {
	transferJobReader
	ListJobs(ctx context.Context, tenantID models.TenantID, filter models.TransferJobFilter) ([]models.TransferJob, int, error)
}

// TransferQueryService serves read-only views of transfer jobs.
type TransferQueryService struct {
	store     transferJobLister
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTransferQueryService constructs the query service. cache may be nil.
func NewTransferQueryService(store transferJobLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TransferQueryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferQueryService{store: store, cache: cache, validator: validate, logger: logger}
}

// ListJobs returns job summaries newest first.
func (s *TransferQueryService) ListJobs(ctx context.Context, tenantID models.TenantID, query dto.JobListQuery) ([]dto.JobSummary, *models.Pagination, error) {
	if tenantID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "tenant is required")
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer job query")
	}
	filter := models.TransferJobFilter{CourseID: query.CourseID, Page: query.Page, PageSize: query.PageSize}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	jobs, total, err := s.store.ListJobs(ctx, tenantID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transfer jobs")
	}
	summaries := make([]dto.JobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, dto.NewJobSummary(job))
	}
	return summaries, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetJob returns one job with its ordered items. Running jobs are always read
// from the store; finished jobs never change and may be served from cache.
func (s *TransferQueryService) GetJob(ctx context.Context, tenantID models.TenantID, id string) (*dto.JobView, error) {
	if tenantID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tenant is required")
	}
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "job id is required")
	}

	key := jobViewCacheKey(tenantID, id)
	var cached dto.JobView
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	view, err := loadJobView(ctx, s.store, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transfer job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transfer job")
	}

	if view.Status != models.TransferJobRunning {
		s.cache.Set(ctx, key, view, 0)
	}
	return view, nil
}

func jobViewCacheKey(tenantID models.TenantID, id string) string {
	return fmt.Sprintf("transfer-job:%s:%s", tenantID, id)
}

