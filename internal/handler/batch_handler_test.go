package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/doc-intake-api/internal/dto"
	"github.com/noah-isme/doc-intake-api/internal/models"
	appErrors "github.com/noah-isme/doc-intake-api/pkg/errors"
)

type batchServiceMock struct {
	session  *models.BatchSession
	batches  []models.BatchJob
	err      error
	estimate models.CostEstimate
	report   []byte
	filename string
}

func (m *batchServiceMock) Start(_ context.Context, _ dto.StartSessionRequest) (*models.BatchSession, error) {
	return m.session, m.err
}

func (m *batchServiceMock) Resume(_ context.Context, _ string) (*models.BatchSession, error) {
	return m.session, m.err
}

func (m *batchServiceMock) Stop(_ context.Context, _ string) (*models.BatchSession, error) {
	return m.session, m.err
}

func (m *batchServiceMock) Status(_ context.Context, _ string) (*models.BatchSession, []models.BatchJob, error) {
	return m.session, m.batches, m.err
}

func (m *batchServiceMock) Estimate(_ dto.EstimateRequest) models.CostEstimate {
	return m.estimate
}

func (m *batchServiceMock) Report(_ context.Context, _, _ string) ([]byte, string, error) {
	return m.report, m.filename, m.err
}

func TestBatchHandlerStart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &batchServiceMock{session: &models.BatchSession{ID: "sess-1", Status: models.SessionRunning}}
	handler := NewBatchHandler(mockSvc)

	payload, _ := json.Marshal(dto.StartSessionRequest{SourceFolder: "campaigns/q1"})
	c, w := newGinContext(http.MethodPost, "/batch/sessions", payload)

	handler.Start(c)
	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestBatchHandlerStartMissingFolder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBatchHandler(&batchServiceMock{})

	payload, _ := json.Marshal(dto.StartSessionRequest{})
	c, w := newGinContext(http.MethodPost, "/batch/sessions", payload)

	handler.Start(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchHandlerStartConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBatchHandler(&batchServiceMock{err: appErrors.ErrSessionActive})

	payload, _ := json.Marshal(dto.StartSessionRequest{SourceFolder: "campaigns/q1"})
	c, w := newGinContext(http.MethodPost, "/batch/sessions", payload)

	handler.Start(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestBatchHandlerEstimate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &batchServiceMock{estimate: models.CostEstimate{
		TotalDocuments: 70000, TotalBatches: 700, TotalHours: 87.5, TotalCost: 43.75,
	}}
	handler := NewBatchHandler(mockSvc)

	payload, _ := json.Marshal(dto.EstimateRequest{TotalDocuments: 70000})
	c, w := newGinContext(http.MethodPost, "/batch/estimate", payload)

	handler.Estimate(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.CostEstimate `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 700, envelope.Data.TotalBatches)
}

func TestBatchHandlerEstimateRejectsZeroDocuments(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBatchHandler(&batchServiceMock{})

	payload, _ := json.Marshal(dto.EstimateRequest{TotalDocuments: 0})
	c, w := newGinContext(http.MethodPost, "/batch/estimate", payload)

	handler.Estimate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &batchServiceMock{
		session: &models.BatchSession{ID: "sess-1", Status: models.SessionRunning},
		batches: []models.BatchJob{{ID: "batch-1", BatchNumber: 1, Status: models.BatchCompleted}},
	}
	handler := NewBatchHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/batch/sessions/sess-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestBatchHandlerStopFinishedSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBatchHandler(&batchServiceMock{err: appErrors.ErrSessionFinished})

	c, w := newGinContext(http.MethodPost, "/batch/sessions/sess-1/stop", nil)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Stop(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestBatchHandlerReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &batchServiceMock{report: []byte("Batch,Status\n1,completed\n"), filename: "campaign-sess-1.csv"}
	handler := NewBatchHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/batch/sessions/sess-1/report", nil)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Report(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), "campaign-sess-1.csv")
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}
