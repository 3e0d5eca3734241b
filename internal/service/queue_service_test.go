package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/doc-intake-api/internal/models"
	"github.com/noah-isme/doc-intake-api/internal/repository"
	appErrors "github.com/noah-isme/doc-intake-api/pkg/errors"
)

type stubQueue struct {
	items      map[string]*models.QueueItem
	claimQueue []*models.QueueItem
	depth      models.QueueDepth
	nextID     int
}

func newStubQueue() *stubQueue {
	return &stubQueue{items: make(map[string]*models.QueueItem)}
}

func (s *stubQueue) Enqueue(_ context.Context, item *models.QueueItem) error {
	s.nextID++
	item.ID = string(rune('a' + s.nextID))
	item.Status = models.QueueItemQueued
	s.items[item.ID] = item
	s.depth.Queued++
	return nil
}

func (s *stubQueue) Claim(_ context.Context, workerID string) (*models.QueueItem, error) {
	if len(s.claimQueue) == 0 {
		return nil, sql.ErrNoRows
	}
	item := s.claimQueue[0]
	s.claimQueue = s.claimQueue[1:]
	item.Status = models.QueueItemAssigned
	item.AssignedWorkerID = &workerID
	s.items[item.ID] = item
	return item, nil
}

func (s *stubQueue) Complete(_ context.Context, params repository.CompleteParams) error {
	item, ok := s.items[params.QueueID]
	if !ok || item.Status != models.QueueItemAssigned ||
		item.AssignedWorkerID == nil || *item.AssignedWorkerID != params.WorkerID {
		return sql.ErrNoRows
	}
	item.Status = params.Status
	item.ResultData = params.ResultData
	item.ErrorMessage = params.ErrorMessage
	return nil
}

func (s *stubQueue) GetByID(_ context.Context, id string) (*models.QueueItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return item, nil
}

func (s *stubQueue) Depth(_ context.Context) (models.QueueDepth, error) {
	return s.depth, nil
}

type depthRecorder struct {
	last    models.QueueDepth
	updates int
}

func (d *depthRecorder) SetQueueDepth(depth models.QueueDepth) {
	d.last = depth
	d.updates++
}

func TestQueueServiceEnqueueMarksJournal(t *testing.T) {
	queue := newStubQueue()
	journal := newStubJournal()
	metrics := &depthRecorder{}

	svc := NewQueueService(queue, journal, metrics, nil)

	item, err := svc.Enqueue(context.Background(), 42, 8)
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, int64(42), item.JournalID)
	assert.Equal(t, models.QueueStatusQueued, journal.statuses[42])
	assert.Equal(t, 1, metrics.updates)
}

func TestQueueServiceClaimEmptyQueue(t *testing.T) {
	svc := NewQueueService(newStubQueue(), newStubJournal(), nil, nil)

	_, err := svc.Claim(context.Background(), "worker-7")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNoQueuedItems.Code, appErr.Code)
}

func TestQueueServiceClaimAssignsWorker(t *testing.T) {
	queue := newStubQueue()
	queue.claimQueue = []*models.QueueItem{
		{ID: "item-1", JournalID: 42, Priority: 8, Status: models.QueueItemQueued},
	}

	svc := NewQueueService(queue, newStubJournal(), nil, nil)

	item, err := svc.Claim(context.Background(), "worker-7")
	require.NoError(t, err)
	assert.Equal(t, models.QueueItemAssigned, item.Status)
	require.NotNil(t, item.AssignedWorkerID)
	assert.Equal(t, "worker-7", *item.AssignedWorkerID)
}

func TestQueueServiceCompleteSuccess(t *testing.T) {
	queue := newStubQueue()
	journal := newStubJournal()
	worker := "worker-7"
	queue.items["item-1"] = &models.QueueItem{
		ID: "item-1", JournalID: 42, Status: models.QueueItemAssigned, AssignedWorkerID: &worker,
	}

	svc := NewQueueService(queue, journal, nil, nil)

	item, err := svc.Complete(context.Background(), CompleteParams{
		QueueID:    "item-1",
		WorkerID:   "worker-7",
		Success:    true,
		ResultData: models.ResultData{"pages": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, models.QueueItemCompleted, item.Status)
	assert.Equal(t, models.QueueStatusCompleted, journal.statuses[42])
}

func TestQueueServiceCompleteFailureMarksJournalFailed(t *testing.T) {
	queue := newStubQueue()
	journal := newStubJournal()
	worker := "worker-7"
	queue.items["item-1"] = &models.QueueItem{
		ID: "item-1", JournalID: 42, Status: models.QueueItemAssigned, AssignedWorkerID: &worker,
	}

	svc := NewQueueService(queue, journal, nil, nil)

	item, err := svc.Complete(context.Background(), CompleteParams{
		QueueID:      "item-1",
		WorkerID:     "worker-7",
		Success:      false,
		ErrorMessage: "corrupt page data",
	})
	require.NoError(t, err)
	assert.Equal(t, models.QueueItemFailed, item.Status)
	require.NotNil(t, item.ErrorMessage)
	assert.Equal(t, "corrupt page data", *item.ErrorMessage)
	assert.Equal(t, models.QueueStatusFailed, journal.statuses[42])
}

func TestQueueServiceCompleteWrongWorkerConflicts(t *testing.T) {
	queue := newStubQueue()
	worker := "worker-7"
	queue.items["item-1"] = &models.QueueItem{
		ID: "item-1", JournalID: 42, Status: models.QueueItemAssigned, AssignedWorkerID: &worker,
	}

	svc := NewQueueService(queue, newStubJournal(), nil, nil)

	_, err := svc.Complete(context.Background(), CompleteParams{
		QueueID:  "item-1",
		WorkerID: "worker-intruder",
		Success:  true,
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestQueueServiceCompleteUnknownItem(t *testing.T) {
	svc := NewQueueService(newStubQueue(), newStubJournal(), nil, nil)

	_, err := svc.Complete(context.Background(), CompleteParams{QueueID: "ghost", WorkerID: "worker-7"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
