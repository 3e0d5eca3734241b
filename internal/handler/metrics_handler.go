package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/doc-intake-api/internal/models"
	"github.com/noah-isme/doc-intake-api/internal/service"
	"github.com/noah-isme/doc-intake-api/pkg/response"
)

type queueDepthReader interface {
	Depth(ctx context.Context) (models.QueueDepth, error)
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	queue   queueDepthReader
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, queue queueDepthReader) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, queue: queue}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Stats serves the aggregated pipeline counters. Queue depth is read
// live so the snapshot reflects the database, not the last observation.
func (h *MetricsHandler) Stats(c *gin.Context) {
	snapshot := h.metrics.Snapshot()
	if h.queue != nil {
		if depth, err := h.queue.Depth(c.Request.Context()); err == nil {
			snapshot.QueueDepth = depth
		}
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Health responds with a generic OK payload for readiness/liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
