package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/doc-intake-api/internal/dto"
	"github.com/noah-isme/doc-intake-api/internal/models"
	appErrors "github.com/noah-isme/doc-intake-api/pkg/errors"
	"github.com/noah-isme/doc-intake-api/pkg/response"
)

type batchService interface {
	Start(ctx context.Context, req dto.StartSessionRequest) (*models.BatchSession, error)
	Resume(ctx context.Context, sessionID string) (*models.BatchSession, error)
	Stop(ctx context.Context, sessionID string) (*models.BatchSession, error)
	Status(ctx context.Context, sessionID string) (*models.BatchSession, []models.BatchJob, error)
	Estimate(req dto.EstimateRequest) models.CostEstimate
	Report(ctx context.Context, sessionID, format string) ([]byte, string, error)
}

// BatchHandler exposes batch campaign management endpoints.
type BatchHandler struct {
	service batchService
}

// NewBatchHandler constructs the handler.
func NewBatchHandler(service batchService) *BatchHandler {
	return &BatchHandler{service: service}
}

// Start godoc
// @Summary Start a batch campaign over a source folder
// @Tags Batch
// @Accept json
// @Produce json
// @Param payload body dto.StartSessionRequest true "Campaign definition"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /batch/sessions [post]
func (h *BatchHandler) Start(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "batch service not configured"))
		return
	}
	var req dto.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid session payload"))
		return
	}
	session, err := h.service.Start(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, session)
}

// Estimate godoc
// @Summary Project campaign duration and cost
// @Tags Batch
// @Accept json
// @Produce json
// @Param payload body dto.EstimateRequest true "Estimate input"
// @Success 200 {object} response.Envelope
// @Router /batch/estimate [post]
func (h *BatchHandler) Estimate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "batch service not configured"))
		return
	}
	var req dto.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid estimate payload"))
		return
	}
	response.JSON(c, http.StatusOK, h.service.Estimate(req), nil)
}

// Status godoc
// @Summary Get a session with its batch plan
// @Tags Batch
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /batch/sessions/{id} [get]
func (h *BatchHandler) Status(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "batch service not configured"))
		return
	}
	session, batches, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	payload := gin.H{"session": session, "batches": batches}
	response.JSON(c, http.StatusOK, payload, nil)
}

// Resume godoc
// @Summary Resume a stopped or interrupted session
// @Tags Batch
// @Produce json
// @Param id path string true "Session ID"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /batch/sessions/{id}/resume [post]
func (h *BatchHandler) Resume(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "batch service not configured"))
		return
	}
	session, err := h.service.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, session)
}

// Stop godoc
// @Summary Stop a running session between batches
// @Tags Batch
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /batch/sessions/{id}/stop [post]
func (h *BatchHandler) Stop(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "batch service not configured"))
		return
	}
	session, err := h.service.Stop(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Report godoc
// @Summary Download the campaign report
// @Tags Batch
// @Produce application/octet-stream
// @Param id path string true "Session ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /batch/sessions/{id}/report [get]
func (h *BatchHandler) Report(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "batch service not configured"))
		return
	}
	format := c.DefaultQuery("format", "csv")
	payload, filename, err := h.service.Report(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	contentType := "text/csv"
	if format == "pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
