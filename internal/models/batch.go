package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SessionStatus captures the batch campaign lifecycle. Running is the
// only non-terminal state; there is no transition back into it.
type SessionStatus string

const (
	SessionRunning             SessionStatus = "running"
	SessionCompleted           SessionStatus = "completed"
	SessionCompletedWithErrors SessionStatus = "completed_with_errors"
	SessionStopped             SessionStatus = "stopped"
	SessionFailed              SessionStatus = "failed"
)

// IsTerminal reports whether the session can make no further progress.
func (s SessionStatus) IsTerminal() bool {
	return s != SessionRunning
}

// BatchStatus captures one batch's progress within a session.
type BatchStatus string

const (
	BatchPending     BatchStatus = "pending"
	BatchDownloading BatchStatus = "downloading"
	BatchProcessing  BatchStatus = "processing"
	BatchCompleted   BatchStatus = "completed"
	BatchFailed      BatchStatus = "failed"
)

// BatchSession is the persisted resume source of truth for a campaign.
type BatchSession struct {
	ID                  string        `db:"session_id" json:"session_id"`
	SourceFolder        string        `db:"source_folder" json:"source_folder"`
	TotalDocuments      int           `db:"total_documents" json:"total_documents"`
	BatchSize           int           `db:"batch_size" json:"batch_size"`
	TotalBatches        int           `db:"total_batches" json:"total_batches"`
	CompletedBatches    int           `db:"completed_batches" json:"completed_batches"`
	FailedBatches       int           `db:"failed_batches" json:"failed_batches"`
	Status              SessionStatus `db:"status" json:"status"`
	InstanceID          *string       `db:"instance_id" json:"instance_id,omitempty"`
	StartedAt           time.Time     `db:"started_at" json:"started_at"`
	EstimatedCompletion *time.Time    `db:"estimated_completion" json:"estimated_completion,omitempty"`
	TotalCost           float64       `db:"total_cost" json:"total_cost"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

// BatchJob is one fixed-size slice of the backlog, owned by its session.
// BatchNumber is 1-based and defines the resume position.
type BatchJob struct {
	ID             string      `db:"batch_id" json:"batch_id"`
	SessionID      string      `db:"session_id" json:"session_id"`
	BatchNumber    int         `db:"batch_number" json:"batch_number"`
	DocumentIDs    StringList  `db:"document_ids" json:"document_ids"`
	Status         BatchStatus `db:"status" json:"status"`
	ProcessedCount int         `db:"processed_count" json:"processed_count"`
	ErrorMessage   *string     `db:"error_message" json:"error_message,omitempty"`
}

// Checkpoint is an immutable snapshot written every N batches; it is
// used only for resume and never mutated.
type Checkpoint struct {
	ID          string       `db:"checkpoint_id" json:"checkpoint_id"`
	SessionID   string       `db:"session_id" json:"session_id"`
	BatchNumber int          `db:"batch_number" json:"batch_number"`
	State       SessionState `db:"state" json:"state"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// SessionState is the session snapshot embedded in a checkpoint.
type SessionState struct {
	CompletedBatches int           `json:"completed_batches"`
	FailedBatches    int           `json:"failed_batches"`
	Status           SessionStatus `json:"status"`
	TotalCost        float64       `json:"total_cost"`
}

// Value marshals the snapshot to JSON for persistence.
func (s SessionState) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session state: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the snapshot struct.
func (s *SessionState) Scan(value interface{}) error {
	if value == nil {
		*s = SessionState{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for SessionState", value)
	}
	if len(data) == 0 {
		*s = SessionState{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal session state: %w", err)
	}
	return nil
}

// StringList stores an ordered id list as JSONB.
type StringList []string

// Value marshals the list to JSON for persistence.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the list.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	if err := json.Unmarshal(data, l); err != nil {
		return fmt.Errorf("unmarshal string list: %w", err)
	}
	return nil
}

// CostEstimate projects campaign duration and spend before starting.
type CostEstimate struct {
	TotalDocuments int     `json:"total_documents"`
	BatchSize      int     `json:"batch_size"`
	TotalBatches   int     `json:"total_batches"`
	TotalHours     float64 `json:"total_hours"`
	TotalCost      float64 `json:"total_cost"`
}

// SourceDocument is one listing entry from the bulk document source.
type SourceDocument struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified"`
}
