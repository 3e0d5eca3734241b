package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/doc-intake-api/internal/models"
)

func TestBatchRepositoryCreateSession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBatchRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO batch_sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.BatchSession{
		SourceFolder:   "campaigns/2026-q1",
		TotalDocuments: 70000,
		BatchSize:      100,
		TotalBatches:   700,
	}
	require.NoError(t, repo.CreateSession(context.Background(), session))
	require.NotEmpty(t, session.ID)
	require.Equal(t, models.SessionRunning, session.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryUpdateSession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBatchRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE batch_sessions SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := models.SessionCompleted
	completed := 700
	err := repo.UpdateSession(context.Background(), UpdateSessionParams{
		ID:               "sess-1",
		Status:           &status,
		CompletedBatches: &completed,
		ClearInstance:    true,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectExec(regexp.QuoteMeta("UPDATE batch_sessions SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.UpdateSession(context.Background(), UpdateSessionParams{ID: "missing"})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBatchRepositoryCreateBatchesTransactional(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBatchRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO batch_jobs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO batch_jobs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	batches := []models.BatchJob{
		{SessionID: "sess-1", BatchNumber: 1, DocumentIDs: models.StringList{"a", "b"}},
		{SessionID: "sess-1", BatchNumber: 2, DocumentIDs: models.StringList{"c"}},
	}
	require.NoError(t, repo.CreateBatches(context.Background(), batches))
	require.NotEmpty(t, batches[0].ID)
	require.Equal(t, models.BatchPending, batches[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryCreateBatchesRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBatchRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO batch_jobs")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.CreateBatches(context.Background(), []models.BatchJob{
		{SessionID: "sess-1", BatchNumber: 1},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryListBatches(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBatchRepository(db)
	rows := sqlmock.NewRows([]string{
		"batch_id", "session_id", "batch_number", "document_ids", "status", "processed_count", "error_message",
	}).
		AddRow("b-1", "sess-1", 1, []byte(`["a","b"]`), "completed", 2, nil).
		AddRow("b-2", "sess-1", 2, []byte(`["c"]`), "pending", 0, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT batch_id, session_id, batch_number")).
		WithArgs("sess-1").
		WillReturnRows(rows)

	batches, err := repo.ListBatches(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, batches, 2)
	require.Equal(t, models.StringList{"a", "b"}, batches[0].DocumentIDs)
	require.Equal(t, 1, batches[0].BatchNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryCheckpointRoundTrip(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBatchRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO session_checkpoints")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	checkpoint := &models.Checkpoint{
		SessionID:   "sess-1",
		BatchNumber: 30,
		State: models.SessionState{
			CompletedBatches: 29,
			FailedBatches:    1,
			Status:           models.SessionRunning,
			TotalCost:        1.88,
		},
	}
	require.NoError(t, repo.SaveCheckpoint(context.Background(), checkpoint))
	require.NotEmpty(t, checkpoint.ID)
	require.NoError(t, mock.ExpectationsWereMet())

	rows := sqlmock.NewRows([]string{"checkpoint_id", "session_id", "batch_number", "state", "created_at"}).
		AddRow(checkpoint.ID, "sess-1", 30, []byte(`{"completed_batches":29,"failed_batches":1,"status":"running","total_cost":1.88}`), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT checkpoint_id, session_id, batch_number, state, created_at")).
		WithArgs("sess-1").
		WillReturnRows(rows)

	latest, err := repo.LatestCheckpoint(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, 30, latest.BatchNumber)
	require.Equal(t, 29, latest.State.CompletedBatches)
	require.Equal(t, models.SessionRunning, latest.State.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryLatestCheckpointMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBatchRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT checkpoint_id")).
		WithArgs("sess-x").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.LatestCheckpoint(context.Background(), "sess-x")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
