package models

import "time"

// QueueStatus tracks a journal entry through the admission pipeline.
type QueueStatus string

const (
	QueueStatusPending          QueueStatus = "pending"
	QueueStatusAssessing        QueueStatus = "assessing"
	QueueStatusQueued           QueueStatus = "queued"
	QueueStatusSkippedDuplicate QueueStatus = "skipped_duplicate"
	QueueStatusCompleted        QueueStatus = "completed"
	QueueStatusFailed           QueueStatus = "failed"
)

// Detection tiers. TierExactHash is the free content-hash fast path that
// runs before the cascading check.
const (
	TierExactHash = -1
	TierFilename  = 0
	TierContent   = 1
	TierSemantic  = 2
)

// JournalEntry is one row of the append-only intake ledger. Entries are
// never deleted; the ledger is the system of record for duplicate history.
type JournalEntry struct {
	ID                 int64       `db:"journal_id" json:"journal_id"`
	ContentHash        string      `db:"content_hash" json:"content_hash"`
	OriginalFilename   string      `db:"original_filename" json:"original_filename"`
	NormalizedFilename string      `db:"normalized_filename" json:"normalized_filename"`
	ContentSample      string      `db:"content_sample" json:"-"`
	SourceType         string      `db:"source_type" json:"source_type"`
	DocumentType       string      `db:"document_type" json:"document_type"`
	QueueStatus        QueueStatus `db:"queue_status" json:"queue_status"`
	IsDuplicate        bool        `db:"is_duplicate" json:"is_duplicate"`
	DuplicateOf        *int64      `db:"duplicate_of_journal_id" json:"duplicate_of_journal_id,omitempty"`
	DetectionTier      *int        `db:"duplicate_detection_tier" json:"duplicate_detection_tier,omitempty"`
	Priority           int         `db:"priority" json:"priority"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updated_at"`
}

// JournalFilter narrows ledger listings.
type JournalFilter struct {
	QueueStatus  QueueStatus
	DocumentType string
	SourceType   string
	Duplicates   *bool
	Limit        int
	Offset       int
}

// CorpusEntry is the dedup-relevant projection of a non-duplicate journal
// entry: what tiers 0 and 1 compare a candidate against.
type CorpusEntry struct {
	JournalID          int64  `db:"journal_id" json:"journal_id"`
	NormalizedFilename string `db:"normalized_filename" json:"normalized_filename"`
	ContentSample      string `db:"content_sample" json:"content_sample"`
}

// AssessmentResult is the definite admission decision returned for every
// submission.
type AssessmentResult struct {
	JournalID     int64  `json:"journal_id"`
	ShouldProcess bool   `json:"should_process"`
	Reason        string `json:"reason"`
	IsDuplicate   bool   `json:"is_duplicate"`
	DuplicateOf   *int64 `json:"duplicate_of,omitempty"`
	DetectionTier *int   `json:"detection_tier,omitempty"`
	Priority      int    `json:"priority"`
	DocumentType  string `json:"document_type"`
}
