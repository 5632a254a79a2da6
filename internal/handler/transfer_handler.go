package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drivecourse-api/internal/dto"
	"github.com/noah-isme/drivecourse-api/internal/models"
	appErrors "github.com/noah-isme/drivecourse-api/pkg/errors"
	"github.com/noah-isme/drivecourse-api/pkg/response"
)

type transferTrigger interface {
	TriggerTransfer(ctx context.Context, tenantID models.TenantID, req dto.TriggerTransferRequest, actorID string) (*dto.JobView, error)
}

type transferQuery interface {
	ListJobs(ctx context.Context, tenantID models.TenantID, query dto.JobListQuery) ([]dto.JobSummary, *models.Pagination, error)
	GetJob(ctx context.Context, tenantID models.TenantID, id string) (*dto.JobView, error)
}

// TransferHandler exposes the MEBBIS registry transfer endpoints.
type TransferHandler struct {
	trigger transferTrigger
	query   transferQuery
	enabled bool
}

// NewTransferHandler constructs the handler. When enabled is false the
// trigger endpoint answers 503 while history stays readable.
func NewTransferHandler(trigger transferTrigger, query transferQuery, enabled bool) *TransferHandler {
	return &TransferHandler{trigger: trigger, query: query, enabled: enabled}
}

// Trigger godoc
// @Summary Transfer a course's active enrollments to MEBBIS
// @Tags MEBBIS Transfer
// @Produce json
// @Param courseId path string true "Course ID"
// @Param mode query string false "dry_run (default) or live"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mebbis-transfer/{courseId} [post]
func (h *TransferHandler) Trigger(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrServiceUnavailable, "mebbis transfer is disabled"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	req := dto.TriggerTransferRequest{
		CourseID: c.Param("courseId"),
		Mode:     c.Query("mode"),
	}
	view, err := h.trigger.TriggerTransfer(c.Request.Context(), claims.TenantID, req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// List godoc
// @Summary List MEBBIS transfer jobs
// @Tags MEBBIS Transfer
// @Produce json
// @Param courseId query string false "Course ID"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /mebbis-transfer [get]
func (h *TransferHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.JobListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	jobs, pagination, err := h.query.ListJobs(c.Request.Context(), claims.TenantID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, pagination)
}

// Get godoc
// @Summary Get a MEBBIS transfer job with its items
// @Tags MEBBIS Transfer
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mebbis-transfer/{id} [get]
func (h *TransferHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.query.GetJob(c.Request.Context(), claims.TenantID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

