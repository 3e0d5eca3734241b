package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/doc-intake-api/internal/dto"
	"github.com/noah-isme/doc-intake-api/internal/models"
	"github.com/noah-isme/doc-intake-api/internal/service"
	appErrors "github.com/noah-isme/doc-intake-api/pkg/errors"
	"github.com/noah-isme/doc-intake-api/pkg/response"
)

type admissionService interface {
	Submit(ctx context.Context, params service.SubmitParams) (*models.AssessmentResult, error)
}

type intakeEnqueuer interface {
	Enqueue(ctx context.Context, journalID int64, priority int) (*models.QueueItem, error)
}

// IntakeHandler exposes the single-document submission endpoint.
type IntakeHandler struct {
	admission   admissionService
	queue       intakeEnqueuer
	maxFileSize int64
}

// NewIntakeHandler constructs the handler.
func NewIntakeHandler(admission admissionService, queue intakeEnqueuer, maxFileSize int64) *IntakeHandler {
	if maxFileSize <= 0 {
		maxFileSize = 25 * 1024 * 1024
	}
	return &IntakeHandler{admission: admission, queue: queue, maxFileSize: maxFileSize}
}

// Submit godoc
// @Summary Submit a document for assessment
// @Tags Intake
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document payload"
// @Param source_type formData string false "Submission channel"
// @Param extracted_text formData string false "Pre-extracted text, skips OCR"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /documents [post]
func (h *IntakeHandler) Submit(c *gin.Context) {
	if h.admission == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "admission service not configured"))
		return
	}

	var form dto.SubmitDocumentForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid submission form"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file part is required"))
		return
	}
	if fileHeader.Size > h.maxFileSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "open upload"))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read upload"))
		return
	}
	if int64(len(raw)) > h.maxFileSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit"))
		return
	}

	result, err := h.admission.Submit(c.Request.Context(), service.SubmitParams{
		Filename:      fileHeader.Filename,
		SourceType:    form.SourceType,
		Raw:           raw,
		ExtractedText: form.ExtractedText,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.IsDuplicate {
		response.JSON(c, http.StatusConflict, result, nil)
		return
	}

	if result.ShouldProcess && h.queue != nil {
		if _, err := h.queue.Enqueue(c.Request.Context(), result.JournalID, result.Priority); err != nil {
			response.Error(c, err)
			return
		}
	}
	response.Accepted(c, result)
}
