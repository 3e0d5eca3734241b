package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/doc-intake-api/internal/models"
)

const queueColumns = `queue_id, journal_id, priority, status, assigned_worker_id, result_data,
       error_message, enqueued_at, assigned_at, finished_at`

// QueueRepository persists the processing work queue.
type QueueRepository struct {
	db *sqlx.DB
}

// NewQueueRepository constructs the repository.
func NewQueueRepository(db *sqlx.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Enqueue inserts a new queued item for a journal entry.
func (r *QueueRepository) Enqueue(ctx context.Context, item *models.QueueItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = models.QueueItemQueued
	}
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO processing_queue
	(queue_id, journal_id, priority, status, enqueued_at)
	VALUES (:queue_id, :journal_id, :priority, :status, :enqueued_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("enqueue item: %w", err)
	}
	return nil
}

// Claim atomically assigns the highest-priority queued item to a worker.
// Priority wins, age breaks ties; SKIP LOCKED keeps concurrent claimers
// from ever receiving the same row. Returns sql.ErrNoRows on an empty
// queue.
func (r *QueueRepository) Claim(ctx context.Context, workerID string) (*models.QueueItem, error) {
	const query = `UPDATE processing_queue
	SET status = $1, assigned_worker_id = $2, assigned_at = $3
	WHERE queue_id = (
		SELECT queue_id FROM processing_queue
		WHERE status = $4
		ORDER BY priority DESC, enqueued_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	)
	RETURNING ` + queueColumns
	var item models.QueueItem
	err := r.db.GetContext(ctx, &item, query,
		models.QueueItemAssigned, workerID, time.Now().UTC(), models.QueueItemQueued)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CompleteParams carries a worker's terminal report for a claimed item.
type CompleteParams struct {
	QueueID      string
	WorkerID     string
	Status       models.QueueItemStatus
	ResultData   models.ResultData
	ErrorMessage *string
}

// Complete finalises an assigned item. The WHERE clause enforces that
// only the assigned worker can finish it and only from the assigned
// state; a zero row count surfaces as sql.ErrNoRows for the caller to
// classify.
func (r *QueueRepository) Complete(ctx context.Context, params CompleteParams) error {
	const query = `UPDATE processing_queue
	SET status = :status, result_data = :result_data, error_message = :error_message, finished_at = :finished_at
	WHERE queue_id = :queue_id AND assigned_worker_id = :assigned_worker_id AND status = :current_status`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"status":             params.Status,
		"result_data":        params.ResultData,
		"error_message":      params.ErrorMessage,
		"finished_at":        time.Now().UTC(),
		"queue_id":           params.QueueID,
		"assigned_worker_id": params.WorkerID,
		"current_status":     models.QueueItemAssigned,
	})
	if err != nil {
		return fmt.Errorf("complete queue item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check queue completion rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetByID fetches one queue item.
func (r *QueueRepository) GetByID(ctx context.Context, id string) (*models.QueueItem, error) {
	query := `SELECT ` + queueColumns + ` FROM processing_queue WHERE queue_id = $1`
	var item models.QueueItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByJournalID fetches the queue item backing a journal entry.
func (r *QueueRepository) GetByJournalID(ctx context.Context, journalID int64) (*models.QueueItem, error) {
	query := `SELECT ` + queueColumns + ` FROM processing_queue WHERE journal_id = $1 ORDER BY enqueued_at DESC LIMIT 1`
	var item models.QueueItem
	if err := r.db.GetContext(ctx, &item, query, journalID); err != nil {
		return nil, err
	}
	return &item, nil
}

// Depth reports live queue composition.
func (r *QueueRepository) Depth(ctx context.Context) (models.QueueDepth, error) {
	const query = `SELECT
	COUNT(*) FILTER (WHERE status = $1) AS queued,
	COUNT(*) FILTER (WHERE status = $2) AS assigned
	FROM processing_queue`
	var depth models.QueueDepth
	row := r.db.QueryRowxContext(ctx, query, models.QueueItemQueued, models.QueueItemAssigned)
	if err := row.Scan(&depth.Queued, &depth.Assigned); err != nil {
		return models.QueueDepth{}, fmt.Errorf("queue depth: %w", err)
	}
	return depth, nil
}
