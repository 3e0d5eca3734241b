package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/doc-intake-api/internal/models"
)

const journalColumns = `journal_id, content_hash, original_filename, normalized_filename, content_sample,
       source_type, document_type, queue_status, is_duplicate, duplicate_of_journal_id,
       duplicate_detection_tier, priority, created_at, updated_at`

// JournalRepository persists the append-only intake ledger.
type JournalRepository struct {
	db *sqlx.DB
}

// NewJournalRepository constructs the repository.
func NewJournalRepository(db *sqlx.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// Create inserts a new ledger row and fills in the generated id. The
// content_hash column carries a unique constraint; concurrent submissions
// of identical bytes race here and the loser gets a unique violation.
func (r *JournalRepository) Create(ctx context.Context, entry *models.JournalEntry) error {
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	const query = `INSERT INTO intake_journal
	(content_hash, original_filename, normalized_filename, content_sample, source_type, document_type,
	 queue_status, is_duplicate, duplicate_of_journal_id, duplicate_detection_tier, priority, created_at, updated_at)
	VALUES (:content_hash, :original_filename, :normalized_filename, :content_sample, :source_type, :document_type,
	 :queue_status, :is_duplicate, :duplicate_of_journal_id, :duplicate_detection_tier, :priority, :created_at, :updated_at)
	RETURNING journal_id`
	rows, err := r.db.NamedQueryContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("create journal entry: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return fmt.Errorf("create journal entry: no id returned")
	}
	if err := rows.Scan(&entry.ID); err != nil {
		return fmt.Errorf("scan journal id: %w", err)
	}
	return rows.Err()
}

// IsUniqueViolation reports whether err is the Postgres unique constraint
// error, the storage layer's final word on exact duplicates.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// GetByHash fetches the ledger entry for a content hash.
func (r *JournalRepository) GetByHash(ctx context.Context, hash string) (*models.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM intake_journal WHERE content_hash = $1`
	var entry models.JournalEntry
	if err := r.db.GetContext(ctx, &entry, query, hash); err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetByID fetches a ledger entry by identifier.
func (r *JournalRepository) GetByID(ctx context.Context, id int64) (*models.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM intake_journal WHERE journal_id = $1`
	var entry models.JournalEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateAssessmentParams groups the columns the assessment pipeline may
// set once the cascade has decided.
type UpdateAssessmentParams struct {
	ID                 int64
	QueueStatus        models.QueueStatus
	NormalizedFilename *string
	ContentSample      *string
	IsDuplicate        *bool
	DuplicateOf        *int64
	DetectionTier      *int
	DocumentType       *string
	Priority           *int
}

// UpdateAssessment writes the admission decision onto the ledger row.
// Only non-nil params are touched; history columns are never cleared.
func (r *JournalRepository) UpdateAssessment(ctx context.Context, params UpdateAssessmentParams) error {
	setParts := []string{
		"queue_status = :queue_status",
		"updated_at = :updated_at",
	}
	if params.NormalizedFilename != nil {
		setParts = append(setParts, "normalized_filename = :normalized_filename")
	}
	if params.ContentSample != nil {
		setParts = append(setParts, "content_sample = :content_sample")
	}
	if params.IsDuplicate != nil {
		setParts = append(setParts, "is_duplicate = :is_duplicate")
	}
	if params.DuplicateOf != nil {
		setParts = append(setParts, "duplicate_of_journal_id = :duplicate_of_journal_id")
	}
	if params.DetectionTier != nil {
		setParts = append(setParts, "duplicate_detection_tier = :duplicate_detection_tier")
	}
	if params.DocumentType != nil {
		setParts = append(setParts, "document_type = :document_type")
	}
	if params.Priority != nil {
		setParts = append(setParts, "priority = :priority")
	}
	query := fmt.Sprintf("UPDATE intake_journal SET %s WHERE journal_id = :journal_id", strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"journal_id":               params.ID,
		"queue_status":             params.QueueStatus,
		"updated_at":               time.Now().UTC(),
		"normalized_filename":      params.NormalizedFilename,
		"content_sample":           params.ContentSample,
		"is_duplicate":             params.IsDuplicate,
		"duplicate_of_journal_id":  params.DuplicateOf,
		"duplicate_detection_tier": params.DetectionTier,
		"document_type":            params.DocumentType,
		"priority":                 params.Priority,
	})
	if err != nil {
		return fmt.Errorf("update journal assessment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check journal update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus moves a ledger entry to a new pipeline status.
func (r *JournalRepository) UpdateStatus(ctx context.Context, id int64, status models.QueueStatus) error {
	const query = `UPDATE intake_journal SET queue_status = $1, updated_at = $2 WHERE journal_id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update journal status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check journal status rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns ledger entries matching the filter, newest first.
func (r *JournalRepository) List(ctx context.Context, filter models.JournalFilter) ([]models.JournalEntry, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + journalColumns + ` FROM intake_journal`)
	conditions, args := journalConditions(filter)
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var entries []models.JournalEntry
	if err := r.db.SelectContext(ctx, &entries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	return entries, nil
}

// Count returns the total ledger rows matching the filter.
func (r *JournalRepository) Count(ctx context.Context, filter models.JournalFilter) (int, error) {
	builder := strings.Builder{}
	builder.WriteString("SELECT COUNT(*) FROM intake_journal")
	conditions, args := journalConditions(filter)
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	var count int
	if err := r.db.GetContext(ctx, &count, builder.String(), args...); err != nil {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return count, nil
}

func journalConditions(filter models.JournalFilter) ([]string, []interface{}) {
	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	if filter.QueueStatus != "" {
		args = append(args, filter.QueueStatus)
		conditions = append(conditions, fmt.Sprintf("queue_status = $%d", len(args)))
	}
	if filter.DocumentType != "" {
		args = append(args, filter.DocumentType)
		conditions = append(conditions, fmt.Sprintf("document_type = $%d", len(args)))
	}
	if filter.SourceType != "" {
		args = append(args, filter.SourceType)
		conditions = append(conditions, fmt.Sprintf("source_type = $%d", len(args)))
	}
	if filter.Duplicates != nil {
		args = append(args, *filter.Duplicates)
		conditions = append(conditions, fmt.Sprintf("is_duplicate = $%d", len(args)))
	}
	return conditions, args
}

// ListFingerprints loads the comparison corpus: normalized filenames and
// content samples of the most recent non-duplicate entries. The sample
// size bounds cascade cost on a large ledger.
func (r *JournalRepository) ListFingerprints(ctx context.Context, sampleSize int) ([]models.CorpusEntry, error) {
	if sampleSize <= 0 {
		sampleSize = 1000
	}
	const query = `SELECT journal_id, normalized_filename, content_sample
	FROM intake_journal
	WHERE is_duplicate = FALSE
	ORDER BY created_at DESC
	LIMIT $1`
	var entries []models.CorpusEntry
	if err := r.db.SelectContext(ctx, &entries, query, sampleSize); err != nil {
		return nil, fmt.Errorf("list journal fingerprints: %w", err)
	}
	return entries, nil
}
