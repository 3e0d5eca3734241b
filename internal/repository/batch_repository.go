package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/doc-intake-api/internal/models"
)

const sessionColumns = `session_id, source_folder, total_documents, batch_size, total_batches,
       completed_batches, failed_batches, status, instance_id, started_at, estimated_completion,
       total_cost, updated_at`

const batchColumns = `batch_id, session_id, batch_number, document_ids, status, processed_count, error_message`

// BatchRepository persists campaign sessions, their batches and resume
// checkpoints.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs the repository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// CreateSession inserts a new campaign session row.
func (r *BatchRepository) CreateSession(ctx context.Context, session *models.BatchSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Status == "" {
		session.Status = models.SessionRunning
	}
	now := time.Now().UTC()
	if session.StartedAt.IsZero() {
		session.StartedAt = now
	}
	session.UpdatedAt = now
	const query = `INSERT INTO batch_sessions
	(session_id, source_folder, total_documents, batch_size, total_batches, completed_batches,
	 failed_batches, status, instance_id, started_at, estimated_completion, total_cost, updated_at)
	VALUES (:session_id, :source_folder, :total_documents, :batch_size, :total_batches, :completed_batches,
	 :failed_batches, :status, :instance_id, :started_at, :estimated_completion, :total_cost, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create batch session: %w", err)
	}
	return nil
}

// GetSession fetches one campaign session.
func (r *BatchRepository) GetSession(ctx context.Context, id string) (*models.BatchSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM batch_sessions WHERE session_id = $1`
	var session models.BatchSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns campaign sessions, newest first.
func (r *BatchRepository) ListSessions(ctx context.Context, limit int) ([]models.BatchSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT ` + sessionColumns + ` FROM batch_sessions ORDER BY started_at DESC LIMIT $1`
	var sessions []models.BatchSession
	if err := r.db.SelectContext(ctx, &sessions, query, limit); err != nil {
		return nil, fmt.Errorf("list batch sessions: %w", err)
	}
	return sessions, nil
}

// UpdateSessionParams groups the mutable campaign columns. Nil fields are
// left untouched.
type UpdateSessionParams struct {
	ID                  string
	Status              *models.SessionStatus
	CompletedBatches    *int
	FailedBatches       *int
	InstanceID          *string
	ClearInstance       bool
	EstimatedCompletion *time.Time
	TotalCost           *float64
}

// UpdateSession applies the non-nil params to a session row.
func (r *BatchRepository) UpdateSession(ctx context.Context, params UpdateSessionParams) error {
	setParts := []string{"updated_at = :updated_at"}
	if params.Status != nil {
		setParts = append(setParts, "status = :status")
	}
	if params.CompletedBatches != nil {
		setParts = append(setParts, "completed_batches = :completed_batches")
	}
	if params.FailedBatches != nil {
		setParts = append(setParts, "failed_batches = :failed_batches")
	}
	if params.InstanceID != nil {
		setParts = append(setParts, "instance_id = :instance_id")
	} else if params.ClearInstance {
		setParts = append(setParts, "instance_id = NULL")
	}
	if params.EstimatedCompletion != nil {
		setParts = append(setParts, "estimated_completion = :estimated_completion")
	}
	if params.TotalCost != nil {
		setParts = append(setParts, "total_cost = :total_cost")
	}
	query := fmt.Sprintf("UPDATE batch_sessions SET %s WHERE session_id = :session_id", strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"session_id":           params.ID,
		"updated_at":           time.Now().UTC(),
		"status":               params.Status,
		"completed_batches":    params.CompletedBatches,
		"failed_batches":       params.FailedBatches,
		"instance_id":          params.InstanceID,
		"estimated_completion": params.EstimatedCompletion,
		"total_cost":           params.TotalCost,
	})
	if err != nil {
		return fmt.Errorf("update batch session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check session update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateBatches bulk-inserts a session's batch rows inside one
// transaction; a campaign either has its full plan or none of it.
func (r *BatchRepository) CreateBatches(ctx context.Context, batches []models.BatchJob) error {
	if len(batches) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO batch_jobs
	(batch_id, session_id, batch_number, document_ids, status, processed_count)
	VALUES (:batch_id, :session_id, :batch_number, :document_ids, :status, :processed_count)`
	for i := range batches {
		if batches[i].ID == "" {
			batches[i].ID = uuid.NewString()
		}
		if batches[i].Status == "" {
			batches[i].Status = models.BatchPending
		}
		if _, err := tx.NamedExecContext(ctx, query, batches[i]); err != nil {
			return fmt.Errorf("insert batch %d: %w", batches[i].BatchNumber, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}
	return nil
}

// ListBatches returns a session's batches in execution order.
func (r *BatchRepository) ListBatches(ctx context.Context, sessionID string) ([]models.BatchJob, error) {
	query := `SELECT ` + batchColumns + ` FROM batch_jobs WHERE session_id = $1 ORDER BY batch_number ASC`
	var batches []models.BatchJob
	if err := r.db.SelectContext(ctx, &batches, query, sessionID); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// UpdateBatch writes a batch's status, progress and error message.
func (r *BatchRepository) UpdateBatch(ctx context.Context, batch *models.BatchJob) error {
	const query = `UPDATE batch_jobs
	SET status = :status, processed_count = :processed_count, error_message = :error_message
	WHERE batch_id = :batch_id`
	result, err := r.db.NamedExecContext(ctx, query, batch)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check batch update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveCheckpoint appends an immutable session snapshot.
func (r *BatchRepository) SaveCheckpoint(ctx context.Context, checkpoint *models.Checkpoint) error {
	if checkpoint.ID == "" {
		checkpoint.ID = uuid.NewString()
	}
	if checkpoint.CreatedAt.IsZero() {
		checkpoint.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO session_checkpoints
	(checkpoint_id, session_id, batch_number, state, created_at)
	VALUES (:checkpoint_id, :session_id, :batch_number, :state, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, checkpoint); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// LatestCheckpoint returns the most recent snapshot for a session, or
// sql.ErrNoRows when none was ever written.
func (r *BatchRepository) LatestCheckpoint(ctx context.Context, sessionID string) (*models.Checkpoint, error) {
	const query = `SELECT checkpoint_id, session_id, batch_number, state, created_at
	FROM session_checkpoints
	WHERE session_id = $1
	ORDER BY batch_number DESC, created_at DESC
	LIMIT 1`
	var checkpoint models.Checkpoint
	if err := r.db.GetContext(ctx, &checkpoint, query, sessionID); err != nil {
		return nil, err
	}
	return &checkpoint, nil
}
