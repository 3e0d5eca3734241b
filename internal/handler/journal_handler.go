package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/doc-intake-api/internal/dto"
	"github.com/noah-isme/doc-intake-api/internal/models"
	appErrors "github.com/noah-isme/doc-intake-api/pkg/errors"
	"github.com/noah-isme/doc-intake-api/pkg/response"
)

type journalReader interface {
	List(ctx context.Context, filter models.JournalFilter) ([]models.JournalEntry, error)
	Count(ctx context.Context, filter models.JournalFilter) (int, error)
	GetByID(ctx context.Context, id int64) (*models.JournalEntry, error)
}

// JournalHandler exposes read access to the intake ledger.
type JournalHandler struct {
	journal journalReader
}

// NewJournalHandler constructs the handler.
func NewJournalHandler(journal journalReader) *JournalHandler {
	return &JournalHandler{journal: journal}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// List godoc
// @Summary List journal entries
// @Tags Journal
// @Produce json
// @Param status query string false "Queue status"
// @Param document_type query string false "Document type"
// @Param source_type query string false "Submission channel"
// @Param duplicates query bool false "Only duplicates or only originals"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /journal [get]
func (h *JournalHandler) List(c *gin.Context) {
	if h.journal == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "journal reader not configured"))
		return
	}

	var query dto.JournalQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid journal query"))
		return
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = defaultPageSize
	}
	if query.PageSize > maxPageSize {
		query.PageSize = maxPageSize
	}

	filter := models.JournalFilter{
		QueueStatus:  models.QueueStatus(strings.TrimSpace(query.Status)),
		DocumentType: strings.TrimSpace(query.DocumentType),
		SourceType:   strings.TrimSpace(query.SourceType),
		Duplicates:   query.Duplicates,
		Limit:        query.PageSize,
		Offset:       (query.Page - 1) * query.PageSize,
	}

	entries, err := h.journal.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	total, err := h.journal.Count(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	pagination := &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Get godoc
// @Summary Get one journal entry
// @Tags Journal
// @Produce json
// @Param id path int true "Journal ID"
// @Success 200 {object} response.Envelope
// @Router /journal/{id} [get]
func (h *JournalHandler) Get(c *gin.Context) {
	if h.journal == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "journal reader not configured"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "journal id must be a positive integer"))
		return
	}

	entry, err := h.journal.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "journal entry not found"))
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
