package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/doc-intake-api/internal/dedup"
	"github.com/noah-isme/doc-intake-api/internal/models"
	"github.com/noah-isme/doc-intake-api/internal/repository"
	"github.com/noah-isme/doc-intake-api/pkg/config"
	appErrors "github.com/noah-isme/doc-intake-api/pkg/errors"
)

type journalStore interface {
	Create(ctx context.Context, entry *models.JournalEntry) error
	GetByHash(ctx context.Context, hash string) (*models.JournalEntry, error)
	GetByID(ctx context.Context, id int64) (*models.JournalEntry, error)
	UpdateAssessment(ctx context.Context, params repository.UpdateAssessmentParams) error
	UpdateStatus(ctx context.Context, id int64, status models.QueueStatus) error
	ListFingerprints(ctx context.Context, sampleSize int) ([]models.CorpusEntry, error)
}

type corpusCache interface {
	GetCorpus(ctx context.Context) ([]models.CorpusEntry, error)
	SetCorpus(ctx context.Context, entries []models.CorpusEntry) error
	InvalidateCorpus(ctx context.Context)
}

type duplicateChecker interface {
	Check(ctx context.Context, filename string, raw []byte, extractedText string) (models.DuplicateMatchResult, dedup.Fingerprint, models.TierStats, error)
}

type embeddingStore interface {
	Store(ctx context.Context, journalID int64, embedding []float32) error
}

type assessmentMetrics interface {
	ObserveSubmission()
	ObserveExactHashHit()
}

// AssessmentService runs the admission pipeline: hash fast path, cascade
// check, ledger write and type classification. Every submission gets a
// definite decision; nothing is admitted twice.
type AssessmentService struct {
	journal    journalStore
	cache      corpusCache
	checker    duplicateChecker
	embeddings embeddingStore
	metrics    assessmentMetrics
	logger     *zap.Logger
	rules      []config.TypeRule
	defaults   AssessmentDefaults
}

// AssessmentDefaults configures classification fallbacks.
type AssessmentDefaults struct {
	DocumentType    string
	Priority        int
	CorpusScanLimit int
}

// NewAssessmentService constructs the service.
func NewAssessmentService(journal journalStore, cache corpusCache, checker duplicateChecker,
	embeddings embeddingStore, metrics assessmentMetrics, logger *zap.Logger,
	rules []config.TypeRule, defaults AssessmentDefaults) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.DocumentType == "" {
		defaults.DocumentType = "general"
	}
	if defaults.Priority <= 0 {
		defaults.Priority = 5
	}
	if defaults.CorpusScanLimit <= 0 {
		defaults.CorpusScanLimit = 10000
	}
	return &AssessmentService{
		journal:    journal,
		cache:      cache,
		checker:    checker,
		embeddings: embeddings,
		metrics:    metrics,
		logger:     logger,
		rules:      rules,
		defaults:   defaults,
	}
}

// SubmitParams carries one candidate document.
type SubmitParams struct {
	Filename      string
	SourceType    string
	Raw           []byte
	ExtractedText string
}

// Submit assesses a candidate and journals the outcome. Duplicates get a
// skipped ledger entry pointing at the original except on the hash fast
// path, which answers from the existing entry without writing anything.
func (s *AssessmentService) Submit(ctx context.Context, params SubmitParams) (*models.AssessmentResult, error) {
	if s.metrics != nil {
		s.metrics.ObserveSubmission()
	}
	if len(params.Raw) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "document content is empty")
	}
	if params.SourceType == "" {
		params.SourceType = "upload"
	}

	hash := hashBytes(params.Raw)

	// Fast path: identical bytes were journaled before.
	existing, err := s.journal.GetByHash(ctx, hash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lookup content hash")
	}
	if existing != nil {
		if s.metrics != nil {
			s.metrics.ObserveExactHashHit()
		}
		return exactDuplicateResult(existing), nil
	}

	// The attempt is journaled before any assessment work so a crash
	// mid-cascade still leaves a ledger trace.
	entry := &models.JournalEntry{
		ContentHash:      hash,
		OriginalFilename: params.Filename,
		SourceType:       params.SourceType,
		QueueStatus:      models.QueueStatusPending,
		Priority:         s.defaults.Priority,
		DocumentType:     s.defaults.DocumentType,
	}
	if err := s.journal.Create(ctx, entry); err != nil {
		if repository.IsUniqueViolation(err) {
			// Lost a race with an identical submission; the constraint
			// is the final authority.
			return s.discoveredDuplicate(ctx, hash)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "journal document")
	}
	if err := s.journal.UpdateStatus(ctx, entry.ID, models.QueueStatusAssessing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "mark entry assessing")
	}

	match, fingerprint, stats, err := s.checker.Check(ctx, params.Filename, params.Raw, params.ExtractedText)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "duplicate check")
	}
	s.logger.Debug("cascade finished",
		zap.String("filename", params.Filename),
		zap.Bool("duplicate", match.IsDuplicate),
		zap.Int("filename_checks", stats.FilenameChecks),
		zap.Int("content_checks", stats.ContentChecks),
		zap.Int("semantic_checks", stats.SemanticChecks))

	entry.NormalizedFilename = fingerprint.NormalizedFilename
	entry.ContentSample = fingerprint.ContentSample

	if match.IsDuplicate {
		return s.recordDuplicate(ctx, entry, match)
	}
	return s.admit(ctx, entry, fingerprint)
}

func (s *AssessmentService) discoveredDuplicate(ctx context.Context, hash string) (*models.AssessmentResult, error) {
	if s.metrics != nil {
		s.metrics.ObserveExactHashHit()
	}
	existing, err := s.journal.GetByHash(ctx, hash)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "resolve duplicate entry")
	}
	return exactDuplicateResult(existing), nil
}

func (s *AssessmentService) recordDuplicate(ctx context.Context, entry *models.JournalEntry, match models.DuplicateMatchResult) (*models.AssessmentResult, error) {
	dup := true
	tier := match.Tier
	params := repository.UpdateAssessmentParams{
		ID:                 entry.ID,
		QueueStatus:        models.QueueStatusSkippedDuplicate,
		NormalizedFilename: &entry.NormalizedFilename,
		ContentSample:      &entry.ContentSample,
		IsDuplicate:        &dup,
		DuplicateOf:        match.MatchedJournalID,
		DetectionTier:      &tier,
	}
	if err := s.journal.UpdateAssessment(ctx, params); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "record duplicate")
	}
	if s.cache != nil {
		s.cache.InvalidateCorpus(ctx)
	}
	return &models.AssessmentResult{
		JournalID:     entry.ID,
		ShouldProcess: false,
		Reason:        fmt.Sprintf("duplicate of entry %d (%s, similarity %.2f)", derefInt64(match.MatchedJournalID), match.MatchType, match.Similarity),
		IsDuplicate:   true,
		DuplicateOf:   match.MatchedJournalID,
		DetectionTier: &tier,
		DocumentType:  entry.DocumentType,
	}, nil
}

func (s *AssessmentService) admit(ctx context.Context, entry *models.JournalEntry, fingerprint dedup.Fingerprint) (*models.AssessmentResult, error) {
	rule := s.classify(fingerprint.NormalizedFilename)

	if len(fingerprint.Embedding) > 0 && s.embeddings != nil {
		if err := s.embeddings.Store(ctx, entry.ID, fingerprint.Embedding); err != nil {
			s.logger.Warn("embedding store failed", zap.Int64("journal_id", entry.ID), zap.Error(err))
		}
	}

	docType := rule.Type
	priority := rule.Priority
	if priority <= 0 {
		priority = s.defaults.Priority
	}
	params := repository.UpdateAssessmentParams{
		ID:                 entry.ID,
		QueueStatus:        models.QueueStatusPending,
		NormalizedFilename: &entry.NormalizedFilename,
		ContentSample:      &entry.ContentSample,
		DocumentType:       &docType,
		Priority:           &priority,
	}
	if err := s.journal.UpdateAssessment(ctx, params); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "record classification")
	}
	if s.cache != nil {
		s.cache.InvalidateCorpus(ctx)
	}

	if rule.RequiresReview {
		// The entry stays pending until a human releases it.
		return &models.AssessmentResult{
			JournalID:     entry.ID,
			ShouldProcess: false,
			Reason:        fmt.Sprintf("document type %q requires human review", rule.Type),
			Priority:      priority,
			DocumentType:  rule.Type,
		}, nil
	}

	return &models.AssessmentResult{
		JournalID:     entry.ID,
		ShouldProcess: true,
		Reason:        "admitted",
		Priority:      priority,
		DocumentType:  rule.Type,
	}, nil
}

// classify picks the first rule whose pattern occurs in the normalized
// filename; rule order is precedence.
func (s *AssessmentService) classify(normalizedFilename string) config.TypeRule {
	for _, rule := range s.rules {
		for _, pattern := range rule.Patterns {
			if pattern == "" {
				continue
			}
			if strings.Contains(normalizedFilename, strings.ToLower(pattern)) {
				return rule
			}
		}
	}
	return config.TypeRule{
		Type:     s.defaults.DocumentType,
		Priority: s.defaults.Priority,
	}
}

func exactDuplicateResult(existing *models.JournalEntry) *models.AssessmentResult {
	tier := models.TierExactHash
	return &models.AssessmentResult{
		JournalID:     existing.ID,
		ShouldProcess: false,
		Reason:        "content hash already journaled",
		IsDuplicate:   true,
		DuplicateOf:   &existing.ID,
		DetectionTier: &tier,
		DocumentType:  existing.DocumentType,
	}
}

// hashBytes returns the hex SHA-256 digest used as the ledger's content
// identity.
func hashBytes(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// CorpusProvider feeds the cascade from cache with a ledger fallback.
type CorpusProvider struct {
	journal   journalStore
	cache     corpusCache
	logger    *zap.Logger
	scanLimit int
}

// NewCorpusProvider constructs the provider.
func NewCorpusProvider(journal journalStore, cache corpusCache, logger *zap.Logger, scanLimit int) *CorpusProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scanLimit <= 0 {
		scanLimit = 10000
	}
	return &CorpusProvider{journal: journal, cache: cache, logger: logger, scanLimit: scanLimit}
}

// Fingerprints returns the comparison corpus, preferring the cached
// snapshot. Cache failures fall through to the ledger.
func (p *CorpusProvider) Fingerprints(ctx context.Context) ([]models.CorpusEntry, error) {
	if p.cache != nil {
		entries, err := p.cache.GetCorpus(ctx)
		if err == nil {
			return entries, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			p.logger.Warn("corpus cache read failed", zap.Error(err))
		}
	}

	entries, err := p.journal.ListFingerprints(ctx, p.scanLimit)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		if err := p.cache.SetCorpus(ctx, entries); err != nil {
			p.logger.Warn("corpus cache write failed", zap.Error(err))
		}
	}
	return entries, nil
}
