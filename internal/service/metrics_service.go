package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/doc-intake-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the intake
// pipeline and provides lightweight snapshots for the stats endpoint.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	tierChecks      *prometheus.CounterVec
	tierDuplicates  *prometheus.CounterVec
	confirmedNew    prometheus.Counter
	submissions     prometheus.Counter
	exactHashHits   prometheus.Counter
	queueQueued     prometheus.Gauge
	queueAssigned   prometheus.Gauge

	submissionCount      uint64
	exactHashCount       uint64
	requestCount         uint64
	requestDurationTotal uint64

	mu        sync.Mutex
	tierStats models.TierStats
	depth     models.QueueDepth
}

// NewMetricsService registers the pipeline's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	tierChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dedup_tier_checks_total",
		Help: "Duplicate cascade checks attempted per tier",
	}, []string{"tier"})

	tierDuplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dedup_tier_duplicates_total",
		Help: "Duplicates detected per tier",
	}, []string{"tier"})

	confirmedNew := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dedup_confirmed_new_total",
		Help: "Documents that cleared every duplicate tier",
	})

	submissions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "intake_submissions_total",
		Help: "Total documents submitted for assessment",
	})

	exactHashHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dedup_exact_hash_hits_total",
		Help: "Submissions rejected by the content hash fast path",
	})

	queueQueued := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "processing_queue_queued",
		Help: "Items waiting to be claimed",
	})

	queueAssigned := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "processing_queue_assigned",
		Help: "Items currently held by workers",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, tierChecks, tierDuplicates,
		confirmedNew, submissions, exactHashHits, queueQueued, queueAssigned, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		tierChecks:      tierChecks,
		tierDuplicates:  tierDuplicates,
		confirmedNew:    confirmedNew,
		submissions:     submissions,
		exactHashHits:   exactHashHits,
		queueQueued:     queueQueued,
		queueAssigned:   queueAssigned,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveSubmission counts one assessment request.
func (m *MetricsService) ObserveSubmission() {
	if m == nil {
		return
	}
	m.submissions.Inc()
	atomic.AddUint64(&m.submissionCount, 1)
}

// ObserveExactHashHit counts a content-hash fast path rejection.
func (m *MetricsService) ObserveExactHashHit() {
	if m == nil {
		return
	}
	m.exactHashHits.Inc()
	atomic.AddUint64(&m.exactHashCount, 1)
}

// ObserveTierCheck counts one cascade tier attempt.
func (m *MetricsService) ObserveTierCheck(tier int) {
	if m == nil {
		return
	}
	m.tierChecks.WithLabelValues(tierLabel(tier)).Inc()
	m.mu.Lock()
	switch tier {
	case models.TierFilename:
		m.tierStats.FilenameChecks++
	case models.TierContent:
		m.tierStats.ContentChecks++
	case models.TierSemantic:
		m.tierStats.SemanticChecks++
	}
	m.mu.Unlock()
}

// ObserveDuplicate counts a duplicate detected at a tier.
func (m *MetricsService) ObserveDuplicate(tier int) {
	if m == nil {
		return
	}
	m.tierDuplicates.WithLabelValues(tierLabel(tier)).Inc()
	m.mu.Lock()
	switch tier {
	case models.TierFilename:
		m.tierStats.FilenameMatches++
	case models.TierContent:
		m.tierStats.ContentMatches++
	case models.TierSemantic:
		m.tierStats.SemanticMatches++
	}
	m.mu.Unlock()
}

// ObserveConfirmedNew counts a document that cleared every tier.
func (m *MetricsService) ObserveConfirmedNew() {
	if m == nil {
		return
	}
	m.confirmedNew.Inc()
	m.mu.Lock()
	m.tierStats.ConfirmedNew++
	m.mu.Unlock()
}

// SetQueueDepth publishes the latest queue composition.
func (m *MetricsService) SetQueueDepth(depth models.QueueDepth) {
	if m == nil {
		return
	}
	m.queueQueued.Set(float64(depth.Queued))
	m.queueAssigned.Set(float64(depth.Assigned))
	m.mu.Lock()
	m.depth = depth
	m.mu.Unlock()
}

// Snapshot returns aggregated pipeline counters.
func (m *MetricsService) Snapshot() models.IngestSnapshot {
	if m == nil {
		return models.IngestSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgLatencyMs float64
	if requests > 0 {
		avgLatencyMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	m.mu.Lock()
	tierStats := m.tierStats
	depth := m.depth
	m.mu.Unlock()

	return models.IngestSnapshot{
		Submissions:      atomic.LoadUint64(&m.submissionCount),
		ExactHashHits:    atomic.LoadUint64(&m.exactHashCount),
		TierStats:        tierStats,
		QueueDepth:       depth,
		RequestsTotal:    requests,
		AverageLatencyMs: avgLatencyMs,
		Goroutines:       runtime.NumGoroutine(),
		GeneratedAt:      time.Now().UTC(),
	}
}

func tierLabel(tier int) string {
	switch tier {
	case models.TierExactHash:
		return "exact_hash"
	case models.TierFilename:
		return "filename"
	case models.TierContent:
		return "ocr_content"
	case models.TierSemantic:
		return "semantic"
	default:
		return "unknown"
	}
}
