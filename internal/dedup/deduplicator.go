package dedup

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/doc-intake-api/internal/models"
)

// Corpus supplies the fingerprints of every non-duplicate journal entry.
type Corpus interface {
	Fingerprints(ctx context.Context) ([]models.CorpusEntry, error)
}

// TextExtractor produces approximate text from image bytes. Failure
// degrades tier 1 to a skip, never an error.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Embedder generates a fixed-length vector for a text sample.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex answers approximate nearest-neighbour queries over stored
// embeddings.
type VectorIndex interface {
	Nearest(ctx context.Context, vector []float32, threshold float64, k int) ([]models.EmbeddingMatch, error)
}

// Observer receives tier outcomes for metrics sinks.
type Observer interface {
	ObserveTierCheck(tier int)
	ObserveDuplicate(tier int)
	ObserveConfirmedNew()
}

// Config carries the cascade thresholds.
type Config struct {
	FilenameThreshold float64
	ContentThreshold  float64
	SemanticThreshold float64
	ContentSampleSize int
	NearestNeighbours int
}

// Fingerprint is the derived identity of a candidate document, computed
// per check and handed back to the caller for persistence.
type Fingerprint struct {
	NormalizedFilename string
	ContentSample      string
	Embedding          []float32
}

// Deduplicator runs the escalating three-tier duplicate cascade. It is a
// pure classifier over data stored elsewhere: a cheaper tier that crosses
// its threshold always short-circuits the more expensive ones.
type Deduplicator struct {
	corpus   Corpus
	ocr      TextExtractor
	embedder Embedder
	index    VectorIndex
	observer Observer
	logger   *zap.Logger
	cfg      Config
}

// New constructs the deduplicator. The embedder and index may be nil;
// tier 2 then degrades to a skip and unmatched candidates classify as
// new. A missed duplicate costs money; a false duplicate silently
// discards a real document, which is worse.
func New(corpus Corpus, ocr TextExtractor, embedder Embedder, index VectorIndex, observer Observer, logger *zap.Logger, cfg Config) *Deduplicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FilenameThreshold <= 0 {
		cfg.FilenameThreshold = 0.70
	}
	if cfg.ContentThreshold <= 0 {
		cfg.ContentThreshold = 0.85
	}
	if cfg.SemanticThreshold <= 0 {
		cfg.SemanticThreshold = 0.95
	}
	if cfg.ContentSampleSize <= 0 {
		cfg.ContentSampleSize = 1000
	}
	if cfg.NearestNeighbours <= 0 {
		cfg.NearestNeighbours = 5
	}
	return &Deduplicator{
		corpus:   corpus,
		ocr:      ocr,
		embedder: embedder,
		index:    index,
		observer: observer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Check classifies a candidate against the journaled corpus. The
// extractedText argument lets callers that already hold OCR output skip
// the engine call; pass "" to let tier 1 extract on demand.
func (d *Deduplicator) Check(ctx context.Context, filename string, raw []byte, extractedText string) (models.DuplicateMatchResult, Fingerprint, models.TierStats, error) {
	fp := Fingerprint{NormalizedFilename: NormalizeFilename(filename)}
	stats := models.TierStats{}

	corpus, err := d.corpus.Fingerprints(ctx)
	if err != nil {
		return models.DuplicateMatchResult{}, fp, stats, err
	}

	// Tier 0: string-edit similarity on normalized filenames.
	stats.FilenameChecks++
	d.observeCheck(models.TierFilename)
	if match, ok := d.bestFilenameMatch(fp.NormalizedFilename, corpus); ok {
		stats.FilenameMatches++
		d.observeDuplicate(models.TierFilename)
		return match, fp, stats, nil
	}

	// Tier 1: token-set overlap on OCR content samples.
	text := extractedText
	if text == "" && d.ocr != nil && len(raw) > 0 {
		extracted, ocrErr := d.ocr.ExtractText(ctx, raw)
		if ocrErr != nil {
			d.logger.Warn("ocr extraction failed, skipping content tier", zap.Error(ocrErr), zap.String("filename", filename))
		} else {
			text = extracted
		}
	}
	fp.ContentSample = NormalizeContent(text, d.cfg.ContentSampleSize)
	if fp.ContentSample != "" {
		stats.ContentChecks++
		d.observeCheck(models.TierContent)
		if match, ok := d.bestContentMatch(fp.ContentSample, corpus); ok {
			stats.ContentMatches++
			d.observeDuplicate(models.TierContent)
			return match, fp, stats, nil
		}
	}

	// Tier 2: cosine similarity over stored embeddings.
	if d.embedder != nil && d.index != nil && fp.ContentSample != "" {
		vector, embedErr := d.embedder.Embed(ctx, fp.ContentSample)
		if embedErr != nil {
			d.logger.Warn("embedding failed, skipping semantic tier", zap.Error(embedErr), zap.String("filename", filename))
		} else {
			fp.Embedding = vector
			stats.SemanticChecks++
			d.observeCheck(models.TierSemantic)
			match, semErr := d.bestSemanticMatch(ctx, vector)
			if semErr != nil {
				d.logger.Warn("vector search failed, skipping semantic tier", zap.Error(semErr), zap.String("filename", filename))
			} else if match != nil {
				stats.SemanticMatches++
				d.observeDuplicate(models.TierSemantic)
				return *match, fp, stats, nil
			}
		}
	}

	stats.ConfirmedNew++
	if d.observer != nil {
		d.observer.ObserveConfirmedNew()
	}
	return models.DuplicateMatchResult{
		MatchType: models.MatchTypeNone,
		Tier:      models.TierSemantic,
	}, fp, stats, nil
}

func (d *Deduplicator) bestFilenameMatch(candidate string, corpus []models.CorpusEntry) (models.DuplicateMatchResult, bool) {
	var best float64
	var bestID int64
	for _, entry := range corpus {
		if entry.NormalizedFilename == "" {
			continue
		}
		ratio := EditRatio(candidate, entry.NormalizedFilename)
		if ratio > best {
			best = ratio
			bestID = entry.JournalID
		}
	}
	if best < d.cfg.FilenameThreshold {
		return models.DuplicateMatchResult{}, false
	}
	matched := bestID
	return models.DuplicateMatchResult{
		IsDuplicate:      true,
		MatchType:        models.MatchTypeFilename,
		Similarity:       best,
		MatchedJournalID: &matched,
		Tier:             models.TierFilename,
	}, true
}

func (d *Deduplicator) bestContentMatch(sample string, corpus []models.CorpusEntry) (models.DuplicateMatchResult, bool) {
	var best float64
	var bestID int64
	for _, entry := range corpus {
		if entry.ContentSample == "" {
			continue
		}
		overlap := TokenJaccard(sample, NormalizeContent(entry.ContentSample, d.cfg.ContentSampleSize))
		if overlap > best {
			best = overlap
			bestID = entry.JournalID
		}
	}
	if best < d.cfg.ContentThreshold {
		return models.DuplicateMatchResult{}, false
	}
	matched := bestID
	return models.DuplicateMatchResult{
		IsDuplicate:      true,
		MatchType:        models.MatchTypeOCRContent,
		Similarity:       best,
		MatchedJournalID: &matched,
		Tier:             models.TierContent,
	}, true
}

func (d *Deduplicator) bestSemanticMatch(ctx context.Context, vector []float32) (*models.DuplicateMatchResult, error) {
	matches, err := d.index.Nearest(ctx, vector, d.cfg.SemanticThreshold, d.cfg.NearestNeighbours)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if m.Similarity > best.Similarity {
			best = m
		}
	}
	if best.Similarity < d.cfg.SemanticThreshold {
		return nil, nil
	}
	matched := best.JournalID
	return &models.DuplicateMatchResult{
		IsDuplicate:      true,
		MatchType:        models.MatchTypeSemantic,
		Similarity:       best.Similarity,
		MatchedJournalID: &matched,
		Tier:             models.TierSemantic,
	}, nil
}

func (d *Deduplicator) observeCheck(tier int) {
	if d.observer != nil {
		d.observer.ObserveTierCheck(tier)
	}
}

func (d *Deduplicator) observeDuplicate(tier int) {
	if d.observer != nil {
		d.observer.ObserveDuplicate(tier)
	}
}
