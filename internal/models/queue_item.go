package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// QueueItemStatus captures the work item lifecycle. Completed and failed
// are terminal; failed items are never auto-requeued.
type QueueItemStatus string

const (
	QueueItemQueued    QueueItemStatus = "queued"
	QueueItemAssigned  QueueItemStatus = "assigned"
	QueueItemCompleted QueueItemStatus = "completed"
	QueueItemFailed    QueueItemStatus = "failed"
)

// QueueItem is a claimable unit of processing work. A journal entry has
// at most one live queue item.
type QueueItem struct {
	ID               string          `db:"queue_id" json:"queue_id"`
	JournalID        int64           `db:"journal_id" json:"journal_id"`
	Priority         int             `db:"priority" json:"priority"`
	Status           QueueItemStatus `db:"status" json:"status"`
	AssignedWorkerID *string         `db:"assigned_worker_id" json:"assigned_worker_id,omitempty"`
	ResultData       ResultData      `db:"result_data" json:"result_data,omitempty"`
	ErrorMessage     *string         `db:"error_message" json:"error_message,omitempty"`
	EnqueuedAt       time.Time       `db:"enqueued_at" json:"enqueued_at"`
	AssignedAt       *time.Time      `db:"assigned_at" json:"assigned_at,omitempty"`
	FinishedAt       *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
}

// ResultData stores worker output persisted as JSONB.
type ResultData map[string]interface{}

// Value marshals result data to JSON for persistence.
func (d ResultData) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal result data: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the map.
func (d *ResultData) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ResultData", value)
	}
	if len(data) == 0 {
		*d = nil
		return nil
	}
	if err := json.Unmarshal(data, d); err != nil {
		return fmt.Errorf("unmarshal result data: %w", err)
	}
	return nil
}

// QueueDepth summarises live queue composition per status.
type QueueDepth struct {
	Queued   int `json:"queued"`
	Assigned int `json:"assigned"`
}
