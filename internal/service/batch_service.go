package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/doc-intake-api/internal/compute"
	"github.com/noah-isme/doc-intake-api/internal/dto"
	"github.com/noah-isme/doc-intake-api/internal/models"
	"github.com/noah-isme/doc-intake-api/internal/repository"
	"github.com/noah-isme/doc-intake-api/pkg/config"
	appErrors "github.com/noah-isme/doc-intake-api/pkg/errors"
	"github.com/noah-isme/doc-intake-api/pkg/export"
	"github.com/noah-isme/doc-intake-api/pkg/jobs"
)

type batchStore interface {
	CreateSession(ctx context.Context, session *models.BatchSession) error
	GetSession(ctx context.Context, id string) (*models.BatchSession, error)
	ListSessions(ctx context.Context, limit int) ([]models.BatchSession, error)
	UpdateSession(ctx context.Context, params repository.UpdateSessionParams) error
	CreateBatches(ctx context.Context, batches []models.BatchJob) error
	ListBatches(ctx context.Context, sessionID string) ([]models.BatchJob, error)
	UpdateBatch(ctx context.Context, batch *models.BatchJob) error
	SaveCheckpoint(ctx context.Context, checkpoint *models.Checkpoint) error
	LatestCheckpoint(ctx context.Context, sessionID string) (*models.Checkpoint, error)
}

type documentSource interface {
	List(ctx context.Context, folder string) ([]models.SourceDocument, error)
	Download(ctx context.Context, id string) ([]byte, string, error)
}

type computeProvider interface {
	SearchOffers(ctx context.Context) ([]compute.Offer, error)
	Rent(ctx context.Context, offerID string) (*compute.Instance, error)
	GetInstance(ctx context.Context, instanceID string) (*compute.Instance, error)
	Stop(ctx context.Context, instanceID string) error
	SubmitJob(ctx context.Context, instanceID string, manifest compute.BatchManifest) (string, error)
	GetJobStatus(ctx context.Context, instanceID, jobID string) (*compute.JobStatus, error)
}

type admissionPipeline interface {
	Submit(ctx context.Context, params SubmitParams) (*models.AssessmentResult, error)
}

type workEnqueuer interface {
	Enqueue(ctx context.Context, journalID int64, priority int) (*models.QueueItem, error)
}

type payloadStore interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
}

type sessionDispatcher interface {
	Enqueue(job jobs.Job) error
}

// BatchService drives bulk campaigns: it partitions a source folder into
// fixed-size batches, rents GPU compute, feeds every document through
// the admission pipeline and checkpoints progress so an interrupted
// campaign resumes instead of restarting.
type BatchService struct {
	store      batchStore
	source     documentSource
	compute    computeProvider
	admission  admissionPipeline
	enqueuer   workEnqueuer
	payloads   payloadStore
	dispatcher sessionDispatcher
	poller     *compute.Poller
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	validate   *validator.Validate
	logger     *zap.Logger
	cfg        config.BatchConfig
}

// NewBatchService constructs the service.
func NewBatchService(store batchStore, source documentSource, computeClient computeProvider,
	admission admissionPipeline, enqueuer workEnqueuer, payloads payloadStore,
	dispatcher sessionDispatcher, poller *compute.Poller, logger *zap.Logger, cfg config.BatchConfig) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Size <= 0 {
		cfg.Size = 100
	}
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = 10
	}
	if cfg.CostPerHour <= 0 {
		cfg.CostPerHour = 0.50
	}
	if cfg.SecondsPerDocument <= 0 {
		cfg.SecondsPerDocument = 4.5
	}
	if poller == nil {
		poller = compute.NewPoller(0, 0)
	}
	validate := validator.New()
	validate.SetTagName("binding")
	return &BatchService{
		store:      store,
		source:     source,
		compute:    computeClient,
		admission:  admission,
		enqueuer:   enqueuer,
		payloads:   payloads,
		dispatcher: dispatcher,
		poller:     poller,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		validate:   validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// Estimate projects campaign size, duration and spend without touching
// the marketplace. Zero-valued request fields fall back to configuration.
func (s *BatchService) Estimate(req dto.EstimateRequest) models.CostEstimate {
	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = s.cfg.Size
	}
	costPerHour := req.CostPerHour
	if costPerHour <= 0 {
		costPerHour = s.cfg.CostPerHour
	}
	secondsPerDoc := req.SecondsPerDocument
	if secondsPerDoc <= 0 {
		secondsPerDoc = s.cfg.SecondsPerDocument
	}

	totalBatches := int(math.Ceil(float64(req.TotalDocuments) / float64(batchSize)))
	totalHours := float64(req.TotalDocuments) * secondsPerDoc / 3600
	return models.CostEstimate{
		TotalDocuments: req.TotalDocuments,
		BatchSize:      batchSize,
		TotalBatches:   totalBatches,
		TotalHours:     totalHours,
		TotalCost:      totalHours * costPerHour,
	}
}

// Start launches a campaign over a source folder. Listing, offer search
// and rental failures are fatal: no session exists until compute is
// secured. Batch processing itself runs in the background.
func (s *BatchService) Start(ctx context.Context, req dto.StartSessionRequest) (*models.BatchSession, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session request")
	}
	if err := s.ensureNoActiveSession(ctx); err != nil {
		return nil, err
	}

	docs, err := s.source.List(ctx, req.SourceFolder)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list source folder")
	}
	if len(docs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "source folder has no documents")
	}

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = s.cfg.Size
	}

	instance, err := s.rentInstance(ctx)
	if err != nil {
		return nil, err
	}

	estimate := s.Estimate(dto.EstimateRequest{TotalDocuments: len(docs), BatchSize: batchSize})
	eta := time.Now().UTC().Add(time.Duration(estimate.TotalHours * float64(time.Hour)))

	session := &models.BatchSession{
		SourceFolder:        req.SourceFolder,
		TotalDocuments:      len(docs),
		BatchSize:           batchSize,
		TotalBatches:        estimate.TotalBatches,
		Status:              models.SessionRunning,
		InstanceID:          &instance.ID,
		EstimatedCompletion: &eta,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		s.releaseInstance(ctx, instance.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create session")
	}

	if err := s.store.CreateBatches(ctx, partition(session.ID, docs, batchSize)); err != nil {
		s.releaseInstance(ctx, instance.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create batch plan")
	}

	s.logger.Info("batch session started",
		zap.String("session_id", session.ID),
		zap.Int("total_documents", session.TotalDocuments),
		zap.Int("total_batches", session.TotalBatches),
		zap.String("instance_id", instance.ID))

	s.dispatch(session.ID)
	return session, nil
}

// Resume restarts a stopped campaign from its last checkpoint. Finished
// campaigns cannot be resumed, and a running campaign already owns its
// processing loop.
func (s *BatchService) Resume(ctx context.Context, sessionID string) (*models.BatchSession, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case models.SessionRunning:
		return nil, appErrors.ErrSessionActive
	case models.SessionCompleted, models.SessionCompletedWithErrors, models.SessionFailed:
		return nil, appErrors.ErrSessionFinished
	}

	if session.InstanceID == nil {
		instance, err := s.rentInstance(ctx)
		if err != nil {
			return nil, err
		}
		session.InstanceID = &instance.ID
	}

	running := models.SessionRunning
	err = s.store.UpdateSession(ctx, repository.UpdateSessionParams{
		ID:         session.ID,
		Status:     &running,
		InstanceID: session.InstanceID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "resume session")
	}
	session.Status = running

	s.logger.Info("batch session resumed", zap.String("session_id", session.ID))
	s.dispatch(session.ID)
	return session, nil
}

// Stop halts a running campaign between batches and releases its
// instance. Completed work stays completed.
func (s *BatchService) Stop(ctx context.Context, sessionID string) (*models.BatchSession, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionRunning {
		return nil, appErrors.ErrSessionFinished
	}

	stopped := models.SessionStopped
	err = s.store.UpdateSession(ctx, repository.UpdateSessionParams{
		ID:            session.ID,
		Status:        &stopped,
		ClearInstance: true,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stop session")
	}
	if session.InstanceID != nil {
		s.releaseInstance(ctx, *session.InstanceID)
	}
	session.Status = stopped
	session.InstanceID = nil

	s.logger.Info("batch session stopped", zap.String("session_id", sessionID))
	return session, nil
}

// Status returns a session with its batch plan.
func (s *BatchService) Status(ctx context.Context, sessionID string) (*models.BatchSession, []models.BatchJob, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	batches, err := s.store.ListBatches(ctx, sessionID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list batches")
	}
	return session, batches, nil
}

// ProcessSession is the background campaign loop. It waits for the
// instance, skips batches at or below the checkpoint, isolates per-batch
// failures and checkpoints every N batches. It is the dispatcher's job
// handler and is safe to re-run after a crash.
func (s *BatchService) ProcessSession(ctx context.Context, sessionID string) error {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status.IsTerminal() {
		return nil
	}

	if session.InstanceID != nil {
		if err := s.waitInstanceReady(ctx, *session.InstanceID); err != nil {
			s.failSession(ctx, session.ID, fmt.Sprintf("instance never became ready: %v", err))
			return err
		}
	}

	resumeAfter := 0
	if checkpoint, err := s.store.LatestCheckpoint(ctx, sessionID); err == nil {
		resumeAfter = checkpoint.BatchNumber
		s.logger.Info("resuming from checkpoint",
			zap.String("session_id", sessionID),
			zap.Int("batch_number", checkpoint.BatchNumber))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load checkpoint")
	}

	batches, err := s.store.ListBatches(ctx, sessionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list batches")
	}

	completed := session.CompletedBatches
	failed := session.FailedBatches
	totalCost := session.TotalCost
	batchCost := s.batchCost(session.BatchSize)

	for i := range batches {
		batch := &batches[i]
		if batch.BatchNumber <= resumeAfter {
			continue
		}
		// Completed and failed batches are terminal; both are already in
		// the session counters.
		if batch.Status == models.BatchCompleted || batch.Status == models.BatchFailed {
			continue
		}

		// Stop requests land between batches.
		current, err := s.getSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if current.Status != models.SessionRunning {
			s.logger.Info("session no longer running, halting loop",
				zap.String("session_id", sessionID),
				zap.String("status", string(current.Status)))
			return nil
		}

		if err := s.processBatch(ctx, current, batch); err != nil {
			failed++
			msg := err.Error()
			batch.Status = models.BatchFailed
			batch.ErrorMessage = &msg
			if updateErr := s.store.UpdateBatch(ctx, batch); updateErr != nil {
				s.logger.Error("batch failure not recorded", zap.String("batch_id", batch.ID), zap.Error(updateErr))
			}
			s.logger.Warn("batch failed, continuing campaign",
				zap.String("session_id", sessionID),
				zap.Int("batch_number", batch.BatchNumber),
				zap.Error(err))
		} else {
			completed++
			totalCost += batchCost
		}

		if err := s.store.UpdateSession(ctx, repository.UpdateSessionParams{
			ID:               sessionID,
			CompletedBatches: &completed,
			FailedBatches:    &failed,
			TotalCost:        &totalCost,
		}); err != nil {
			s.logger.Error("session progress not recorded", zap.String("session_id", sessionID), zap.Error(err))
		}

		if batch.BatchNumber%s.cfg.CheckpointInterval == 0 {
			s.saveCheckpoint(ctx, sessionID, batch.BatchNumber, completed, failed, totalCost)
		}
	}

	return s.finishSession(ctx, sessionID, completed, failed)
}

// Report renders the campaign outcome as CSV or PDF bytes.
func (s *BatchService) Report(ctx context.Context, sessionID, format string) ([]byte, string, error) {
	session, batches, err := s.Status(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"Batch", "Status", "Documents", "Processed", "Error"},
	}
	for _, batch := range batches {
		errMsg := ""
		if batch.ErrorMessage != nil {
			errMsg = *batch.ErrorMessage
		}
		data.Rows = append(data.Rows, map[string]string{
			"Batch":     fmt.Sprintf("%d", batch.BatchNumber),
			"Status":    string(batch.Status),
			"Documents": fmt.Sprintf("%d", len(batch.DocumentIDs)),
			"Processed": fmt.Sprintf("%d", batch.ProcessedCount),
			"Error":     errMsg,
		})
	}

	switch format {
	case "pdf":
		summary := []string{
			fmt.Sprintf("Source folder: %s", session.SourceFolder),
			fmt.Sprintf("Status: %s", session.Status),
			fmt.Sprintf("Batches: %d completed, %d failed of %d", session.CompletedBatches, session.FailedBatches, session.TotalBatches),
			fmt.Sprintf("Total cost: $%.2f", session.TotalCost),
		}
		payload, err := s.pdf.Render(data, fmt.Sprintf("Campaign %s", session.ID), summary)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf report")
		}
		return payload, fmt.Sprintf("campaign-%s.pdf", session.ID), nil
	case "", "csv":
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv report")
		}
		return payload, fmt.Sprintf("campaign-%s.csv", session.ID), nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "report format must be csv or pdf")
	}
}

func (s *BatchService) processBatch(ctx context.Context, session *models.BatchSession, batch *models.BatchJob) error {
	batch.Status = models.BatchDownloading
	if err := s.store.UpdateBatch(ctx, batch); err != nil {
		return fmt.Errorf("mark batch downloading: %w", err)
	}

	processed := 0
	admitted := make([]string, 0, len(batch.DocumentIDs))
	for _, docID := range batch.DocumentIDs {
		raw, name, err := s.source.Download(ctx, docID)
		if err != nil {
			s.logger.Warn("document download failed, skipping",
				zap.String("session_id", session.ID),
				zap.String("document_id", docID),
				zap.Error(err))
			continue
		}

		result, err := s.admission.Submit(ctx, SubmitParams{
			Filename:   name,
			SourceType: "batch",
			Raw:        raw,
		})
		if err != nil {
			s.logger.Warn("admission failed, skipping document",
				zap.String("document_id", docID), zap.Error(err))
			continue
		}
		processed++

		if !result.ShouldProcess {
			continue
		}
		if _, err := s.enqueuer.Enqueue(ctx, result.JournalID, result.Priority); err != nil {
			s.logger.Error("enqueue failed for admitted document",
				zap.Int64("journal_id", result.JournalID), zap.Error(err))
			continue
		}
		if s.payloads != nil {
			path := fmt.Sprintf("sessions/%s/batch-%04d/%s", session.ID, batch.BatchNumber, docID)
			if _, err := s.payloads.Save(path, raw); err != nil {
				s.logger.Warn("payload not persisted", zap.String("document_id", docID), zap.Error(err))
			}
		}
		admitted = append(admitted, docID)
	}

	batch.Status = models.BatchProcessing
	batch.ProcessedCount = processed
	if err := s.store.UpdateBatch(ctx, batch); err != nil {
		return fmt.Errorf("mark batch processing: %w", err)
	}

	if session.InstanceID != nil && len(admitted) > 0 {
		if err := s.runRemoteJob(ctx, *session.InstanceID, session.ID, batch, admitted); err != nil {
			return err
		}
	}

	batch.Status = models.BatchCompleted
	batch.ErrorMessage = nil
	if err := s.store.UpdateBatch(ctx, batch); err != nil {
		return fmt.Errorf("mark batch completed: %w", err)
	}
	return nil
}

func (s *BatchService) runRemoteJob(ctx context.Context, instanceID, sessionID string, batch *models.BatchJob, admitted []string) error {
	payloadPath := ""
	if s.payloads != nil {
		payloadPath = s.payloads.Path(fmt.Sprintf("sessions/%s/batch-%04d", sessionID, batch.BatchNumber))
	}
	jobID, err := s.compute.SubmitJob(ctx, instanceID, compute.BatchManifest{
		BatchID:     batch.ID,
		DocumentIDs: admitted,
		PayloadPath: payloadPath,
	})
	if err != nil {
		return fmt.Errorf("submit remote job: %w", err)
	}

	return s.poller.Wait(ctx, func(ctx context.Context) compute.ProbeResult {
		status, err := s.compute.GetJobStatus(ctx, instanceID, jobID)
		if err != nil {
			return compute.ProbeResult{Err: err}
		}
		switch status.State {
		case compute.JobStateCompleted:
			return compute.ProbeResult{Done: true}
		case compute.JobStateFailed:
			return compute.ProbeResult{Done: true, Err: fmt.Errorf("remote job failed: %s", status.Error)}
		default:
			return compute.ProbeResult{}
		}
	})
}

func (s *BatchService) waitInstanceReady(ctx context.Context, instanceID string) error {
	return s.poller.Wait(ctx, func(ctx context.Context) compute.ProbeResult {
		instance, err := s.compute.GetInstance(ctx, instanceID)
		if err != nil {
			return compute.ProbeResult{Err: err}
		}
		if instance.Status == compute.InstanceRunning {
			return compute.ProbeResult{Done: true}
		}
		return compute.ProbeResult{}
	})
}

func (s *BatchService) rentInstance(ctx context.Context) (*compute.Instance, error) {
	offers, err := s.compute.SearchOffers(ctx)
	if err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		return nil, appErrors.ErrNoOffers
	}
	best := offers[0]
	for _, offer := range offers[1:] {
		if offer.HourlyRate < best.HourlyRate ||
			(offer.HourlyRate == best.HourlyRate && offer.Reliability > best.Reliability) {
			best = offer
		}
	}

	instance, err := s.compute.Rent(ctx, best.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("compute instance rented",
		zap.String("instance_id", instance.ID),
		zap.String("gpu", best.GPUName),
		zap.Float64("hourly_rate", best.HourlyRate))
	return instance, nil
}

func (s *BatchService) releaseInstance(ctx context.Context, instanceID string) {
	if err := s.compute.Stop(ctx, instanceID); err != nil {
		s.logger.Error("instance release failed, billing may continue",
			zap.String("instance_id", instanceID), zap.Error(err))
	}
}

func (s *BatchService) finishSession(ctx context.Context, sessionID string, completed, failed int) error {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != models.SessionRunning {
		return nil
	}

	status := models.SessionCompleted
	switch {
	case failed > 0 && completed == 0:
		status = models.SessionFailed
	case failed > 0:
		status = models.SessionCompletedWithErrors
	}

	if err := s.store.UpdateSession(ctx, repository.UpdateSessionParams{
		ID:            sessionID,
		Status:        &status,
		ClearInstance: true,
	}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "finish session")
	}
	if session.InstanceID != nil {
		s.releaseInstance(ctx, *session.InstanceID)
	}

	s.logger.Info("batch session finished",
		zap.String("session_id", sessionID),
		zap.String("status", string(status)),
		zap.Int("completed", completed),
		zap.Int("failed", failed))
	return nil
}

func (s *BatchService) failSession(ctx context.Context, sessionID, reason string) {
	status := models.SessionFailed
	if err := s.store.UpdateSession(ctx, repository.UpdateSessionParams{
		ID:            sessionID,
		Status:        &status,
		ClearInstance: true,
	}); err != nil {
		s.logger.Error("session failure not recorded", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.logger.Error("batch session failed", zap.String("session_id", sessionID), zap.String("reason", reason))
}

func (s *BatchService) saveCheckpoint(ctx context.Context, sessionID string, batchNumber, completed, failed int, totalCost float64) {
	checkpoint := &models.Checkpoint{
		SessionID:   sessionID,
		BatchNumber: batchNumber,
		State: models.SessionState{
			CompletedBatches: completed,
			FailedBatches:    failed,
			Status:           models.SessionRunning,
			TotalCost:        totalCost,
		},
	}
	if err := s.store.SaveCheckpoint(ctx, checkpoint); err != nil {
		s.logger.Error("checkpoint not saved",
			zap.String("session_id", sessionID),
			zap.Int("batch_number", batchNumber),
			zap.Error(err))
		return
	}
	s.logger.Info("checkpoint saved",
		zap.String("session_id", sessionID),
		zap.Int("batch_number", batchNumber))
}

func (s *BatchService) ensureNoActiveSession(ctx context.Context) error {
	sessions, err := s.store.ListSessions(ctx, 50)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list sessions")
	}
	for _, session := range sessions {
		if session.Status == models.SessionRunning {
			return appErrors.ErrSessionActive
		}
	}
	return nil
}

func (s *BatchService) getSession(ctx context.Context, sessionID string) (*models.BatchSession, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load session")
	}
	return session, nil
}

func (s *BatchService) dispatch(sessionID string) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Enqueue(jobs.Job{
		ID:      sessionID,
		Type:    "process-session",
		Payload: sessionID,
	}); err != nil {
		s.logger.Error("session job not dispatched", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (s *BatchService) batchCost(batchSize int) float64 {
	return float64(batchSize) * s.cfg.SecondsPerDocument / 3600 * s.cfg.CostPerHour
}

func partition(sessionID string, docs []models.SourceDocument, batchSize int) []models.BatchJob {
	batches := make([]models.BatchJob, 0, (len(docs)+batchSize-1)/batchSize)
	for start := 0; start < len(docs); start += batchSize {
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		ids := make(models.StringList, 0, end-start)
		for _, doc := range docs[start:end] {
			ids = append(ids, doc.ID)
		}
		batches = append(batches, models.BatchJob{
			SessionID:   sessionID,
			BatchNumber: len(batches) + 1,
			DocumentIDs: ids,
			Status:      models.BatchPending,
		})
	}
	return batches
}
