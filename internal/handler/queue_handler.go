package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/doc-intake-api/internal/dto"
	"github.com/noah-isme/doc-intake-api/internal/models"
	"github.com/noah-isme/doc-intake-api/internal/service"
	appErrors "github.com/noah-isme/doc-intake-api/pkg/errors"
	"github.com/noah-isme/doc-intake-api/pkg/response"
)

type queueService interface {
	Claim(ctx context.Context, workerID string) (*models.QueueItem, error)
	Complete(ctx context.Context, params service.CompleteParams) (*models.QueueItem, error)
	Depth(ctx context.Context) (models.QueueDepth, error)
}

// QueueHandler exposes the worker-facing processing queue endpoints.
type QueueHandler struct {
	service queueService
}

// NewQueueHandler constructs the handler.
func NewQueueHandler(service queueService) *QueueHandler {
	return &QueueHandler{service: service}
}

// Claim godoc
// @Summary Claim the next work item
// @Tags Queue
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /queue/claim [post]
func (h *QueueHandler) Claim(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "queue service not configured"))
		return
	}
	worker := workerFromContext(c)
	if worker == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	item, err := h.service.Claim(c.Request.Context(), worker.WorkerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Complete godoc
// @Summary Report a terminal result for a claimed item
// @Tags Queue
// @Accept json
// @Produce json
// @Param id path string true "Queue item ID"
// @Param payload body dto.CompleteItemRequest true "Completion report"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /queue/items/{id}/complete [post]
func (h *QueueHandler) Complete(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "queue service not configured"))
		return
	}
	worker := workerFromContext(c)
	if worker == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CompleteItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid completion payload"))
		return
	}
	if !req.Success && req.ErrorMessage == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "failed completion requires an error message"))
		return
	}

	item, err := h.service.Complete(c.Request.Context(), service.CompleteParams{
		QueueID:      c.Param("id"),
		WorkerID:     worker.WorkerID,
		Success:      req.Success,
		ResultData:   req.ResultData,
		ErrorMessage: req.ErrorMessage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Depth godoc
// @Summary Report live queue composition
// @Tags Queue
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /queue/depth [get]
func (h *QueueHandler) Depth(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "queue service not configured"))
		return
	}
	depth, err := h.service.Depth(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, depth, nil)
}
