package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/doc-intake-api/internal/models"
	"github.com/noah-isme/doc-intake-api/internal/repository"
	appErrors "github.com/noah-isme/doc-intake-api/pkg/errors"
)

type queueStore interface {
	Enqueue(ctx context.Context, item *models.QueueItem) error
	Claim(ctx context.Context, workerID string) (*models.QueueItem, error)
	Complete(ctx context.Context, params repository.CompleteParams) error
	GetByID(ctx context.Context, id string) (*models.QueueItem, error)
	Depth(ctx context.Context) (models.QueueDepth, error)
}

type journalStatusStore interface {
	UpdateStatus(ctx context.Context, id int64, status models.QueueStatus) error
}

type queueMetrics interface {
	SetQueueDepth(depth models.QueueDepth)
}

// QueueService owns the claimable work queue. Assignment is exclusive
// and completion is worker-bound; the ledger row follows every terminal
// transition.
type QueueService struct {
	queue   queueStore
	journal journalStatusStore
	metrics queueMetrics
	logger  *zap.Logger
}

// NewQueueService constructs the service.
func NewQueueService(queue queueStore, journal journalStatusStore, metrics queueMetrics, logger *zap.Logger) *QueueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueService{queue: queue, journal: journal, metrics: metrics, logger: logger}
}

// Enqueue creates a queued item for an admitted journal entry and moves
// the ledger row to queued.
func (s *QueueService) Enqueue(ctx context.Context, journalID int64, priority int) (*models.QueueItem, error) {
	item := &models.QueueItem{
		JournalID: journalID,
		Priority:  priority,
	}
	if err := s.queue.Enqueue(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enqueue item")
	}
	if err := s.journal.UpdateStatus(ctx, journalID, models.QueueStatusQueued); err != nil {
		s.logger.Error("journal status update failed after enqueue",
			zap.Int64("journal_id", journalID), zap.Error(err))
	}
	s.refreshDepth(ctx)
	return item, nil
}

// Claim hands the highest-priority queued item to a worker, or
// ErrNoQueuedItems when the queue is empty.
func (s *QueueService) Claim(ctx context.Context, workerID string) (*models.QueueItem, error) {
	item, err := s.queue.Claim(ctx, workerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNoQueuedItems
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "claim item")
	}
	s.logger.Info("queue item claimed",
		zap.String("queue_id", item.ID),
		zap.String("worker_id", workerID),
		zap.Int("priority", item.Priority))
	s.refreshDepth(ctx)
	return item, nil
}

// CompleteParams is a worker's terminal report.
type CompleteParams struct {
	QueueID      string
	WorkerID     string
	Success      bool
	ResultData   models.ResultData
	ErrorMessage string
}

// Complete finalises an assigned item and mirrors the outcome onto the
// ledger. Only the assigned worker may complete; anyone else gets a
// conflict.
func (s *QueueService) Complete(ctx context.Context, params CompleteParams) (*models.QueueItem, error) {
	item, err := s.queue.GetByID(ctx, params.QueueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "queue item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load queue item")
	}

	status := models.QueueItemCompleted
	journalStatus := models.QueueStatusCompleted
	if !params.Success {
		status = models.QueueItemFailed
		journalStatus = models.QueueStatusFailed
	}
	var errMsg *string
	if params.ErrorMessage != "" {
		errMsg = &params.ErrorMessage
	}

	err = s.queue.Complete(ctx, repository.CompleteParams{
		QueueID:      params.QueueID,
		WorkerID:     params.WorkerID,
		Status:       status,
		ResultData:   params.ResultData,
		ErrorMessage: errMsg,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "item is not assigned to this worker")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "complete item")
	}

	if err := s.journal.UpdateStatus(ctx, item.JournalID, journalStatus); err != nil {
		s.logger.Error("journal status update failed after completion",
			zap.Int64("journal_id", item.JournalID), zap.Error(err))
	}
	s.refreshDepth(ctx)

	return s.queue.GetByID(ctx, params.QueueID)
}

// Depth reports live queue composition.
func (s *QueueService) Depth(ctx context.Context) (models.QueueDepth, error) {
	depth, err := s.queue.Depth(ctx)
	if err != nil {
		return models.QueueDepth{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "queue depth")
	}
	if s.metrics != nil {
		s.metrics.SetQueueDepth(depth)
	}
	return depth, nil
}

func (s *QueueService) refreshDepth(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	depth, err := s.queue.Depth(ctx)
	if err != nil {
		s.logger.Warn("queue depth refresh failed", zap.Error(err))
		return
	}
	s.metrics.SetQueueDepth(depth)
}
