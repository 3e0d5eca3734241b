package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/doc-intake-api/internal/models"
)

type stubCorpus struct {
	entries []models.CorpusEntry
	err     error
}

func (s *stubCorpus) Fingerprints(_ context.Context) ([]models.CorpusEntry, error) {
	return s.entries, s.err
}

type stubExtractor struct {
	text  string
	err   error
	calls int
}

func (s *stubExtractor) ExtractText(_ context.Context, _ []byte) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	return s.vector, s.err
}

type stubIndex struct {
	matches []models.EmbeddingMatch
	err     error
	calls   int
}

func (s *stubIndex) Nearest(_ context.Context, _ []float32, _ float64, _ int) ([]models.EmbeddingMatch, error) {
	s.calls++
	return s.matches, s.err
}

type recordingObserver struct {
	checks     []int
	duplicates []int
	newCount   int
}

func (o *recordingObserver) ObserveTierCheck(tier int) { o.checks = append(o.checks, tier) }
func (o *recordingObserver) ObserveDuplicate(tier int) { o.duplicates = append(o.duplicates, tier) }
func (o *recordingObserver) ObserveConfirmedNew()      { o.newCount++ }

func TestDeduplicatorFilenameShortCircuit(t *testing.T) {
	corpus := &stubCorpus{entries: []models.CorpusEntry{
		{JournalID: 11, NormalizedFilename: "invoice acme march", ContentSample: "total due 420"},
	}}
	ocr := &stubExtractor{text: "should never be called"}
	embedder := &stubEmbedder{vector: []float32{1, 0}}
	observer := &recordingObserver{}

	d := New(corpus, ocr, embedder, &stubIndex{}, observer, nil, Config{})

	result, fp, stats, err := d.Check(context.Background(), "Invoice_Acme_Marh.pdf", []byte("raw"), "")
	require.NoError(t, err)

	assert.True(t, result.IsDuplicate)
	assert.Equal(t, models.MatchTypeFilename, result.MatchType)
	assert.Equal(t, models.TierFilename, result.Tier)
	require.NotNil(t, result.MatchedJournalID)
	assert.Equal(t, int64(11), *result.MatchedJournalID)
	assert.GreaterOrEqual(t, result.Similarity, 0.70)

	assert.Equal(t, "invoice acme marh", fp.NormalizedFilename)
	assert.Equal(t, 1, stats.FilenameChecks)
	assert.Equal(t, 1, stats.FilenameMatches)
	assert.Equal(t, 0, stats.ContentChecks)

	assert.Equal(t, 0, ocr.calls, "cheaper tier match must not invoke ocr")
	assert.Equal(t, 0, embedder.calls)
	assert.Equal(t, []int{models.TierFilename}, observer.checks)
	assert.Equal(t, []int{models.TierFilename}, observer.duplicates)
}

func TestDeduplicatorContentTierMatch(t *testing.T) {
	corpus := &stubCorpus{entries: []models.CorpusEntry{
		{JournalID: 7, NormalizedFilename: "quarterly holdings report", ContentSample: "invoice acme corp total due 420 usd net thirty"},
	}}
	ocr := &stubExtractor{text: "Invoice ACME Corp total due 420 USD net thirty days"}
	embedder := &stubEmbedder{vector: []float32{1, 0}}

	d := New(corpus, ocr, embedder, &stubIndex{}, nil, nil, Config{ContentThreshold: 0.80})

	result, fp, stats, err := d.Check(context.Background(), "unrelated_name.pdf", []byte("raw"), "")
	require.NoError(t, err)

	assert.True(t, result.IsDuplicate)
	assert.Equal(t, models.MatchTypeOCRContent, result.MatchType)
	assert.Equal(t, models.TierContent, result.Tier)
	require.NotNil(t, result.MatchedJournalID)
	assert.Equal(t, int64(7), *result.MatchedJournalID)

	assert.Equal(t, 1, ocr.calls)
	assert.NotEmpty(t, fp.ContentSample)
	assert.Equal(t, 1, stats.ContentChecks)
	assert.Equal(t, 1, stats.ContentMatches)
	assert.Equal(t, 0, embedder.calls, "content match must not escalate to embedding")
}

func TestDeduplicatorEscalatesToSemanticTier(t *testing.T) {
	corpus := &stubCorpus{entries: []models.CorpusEntry{
		{JournalID: 3, NormalizedFilename: "zebra holdings", ContentSample: "completely different words here"},
	}}
	ocr := &stubExtractor{text: "statement of account for acme corporation march"}
	embedder := &stubEmbedder{vector: []float32{0.1, 0.9}}
	index := &stubIndex{matches: []models.EmbeddingMatch{
		{JournalID: 3, Similarity: 0.97},
		{JournalID: 9, Similarity: 0.96},
	}}
	observer := &recordingObserver{}

	d := New(corpus, ocr, embedder, index, observer, nil, Config{})

	result, fp, stats, err := d.Check(context.Background(), "unrelated_name.pdf", []byte("raw"), "")
	require.NoError(t, err)

	assert.True(t, result.IsDuplicate)
	assert.Equal(t, models.MatchTypeSemantic, result.MatchType)
	assert.Equal(t, models.TierSemantic, result.Tier)
	require.NotNil(t, result.MatchedJournalID)
	assert.Equal(t, int64(3), *result.MatchedJournalID)
	assert.InDelta(t, 0.97, result.Similarity, 1e-9)

	assert.Equal(t, []float32{0.1, 0.9}, fp.Embedding)
	assert.Equal(t, 1, stats.SemanticChecks)
	assert.Equal(t, 1, stats.SemanticMatches)
	assert.Equal(t, []int{models.TierFilename, models.TierContent, models.TierSemantic}, observer.checks)
	assert.Equal(t, []int{models.TierSemantic}, observer.duplicates)
}

func TestDeduplicatorConfirmsNewDocument(t *testing.T) {
	corpus := &stubCorpus{entries: []models.CorpusEntry{
		{JournalID: 3, NormalizedFilename: "zebra holdings", ContentSample: "completely different words here"},
	}}
	ocr := &stubExtractor{text: "statement of account for acme corporation march"}
	embedder := &stubEmbedder{vector: []float32{0.1, 0.9}}
	index := &stubIndex{matches: nil}
	observer := &recordingObserver{}

	d := New(corpus, ocr, embedder, index, observer, nil, Config{})

	result, fp, stats, err := d.Check(context.Background(), "statement_acme.pdf", []byte("raw"), "")
	require.NoError(t, err)

	assert.False(t, result.IsDuplicate)
	assert.Equal(t, models.MatchTypeNone, result.MatchType)
	assert.Nil(t, result.MatchedJournalID)

	assert.NotEmpty(t, fp.NormalizedFilename)
	assert.NotEmpty(t, fp.ContentSample)
	assert.Equal(t, []float32{0.1, 0.9}, fp.Embedding)
	assert.Equal(t, 1, stats.ConfirmedNew)
	assert.Equal(t, 1, observer.newCount)
}

func TestDeduplicatorOCRFailureSkipsContentTier(t *testing.T) {
	corpus := &stubCorpus{entries: []models.CorpusEntry{
		{JournalID: 3, NormalizedFilename: "zebra holdings", ContentSample: "completely different words here"},
	}}
	ocr := &stubExtractor{err: errors.New("engine unavailable")}
	embedder := &stubEmbedder{vector: []float32{1, 0}}
	index := &stubIndex{}

	d := New(corpus, ocr, embedder, index, nil, nil, Config{})

	result, fp, stats, err := d.Check(context.Background(), "statement_acme.pdf", []byte("raw"), "")
	require.NoError(t, err, "extraction failure must degrade, not fail the check")

	assert.False(t, result.IsDuplicate)
	assert.Empty(t, fp.ContentSample)
	assert.Equal(t, 0, stats.ContentChecks)
	assert.Equal(t, 0, embedder.calls, "no text means nothing to embed")
	assert.Equal(t, 1, stats.ConfirmedNew)
}

func TestDeduplicatorWithoutSemanticBackend(t *testing.T) {
	corpus := &stubCorpus{entries: []models.CorpusEntry{
		{JournalID: 3, NormalizedFilename: "zebra holdings", ContentSample: "completely different words here"},
	}}
	ocr := &stubExtractor{text: "statement of account for acme corporation march"}

	d := New(corpus, ocr, nil, nil, nil, nil, Config{})

	result, _, stats, err := d.Check(context.Background(), "statement_acme.pdf", []byte("raw"), "")
	require.NoError(t, err)

	assert.False(t, result.IsDuplicate)
	assert.Equal(t, 0, stats.SemanticChecks)
	assert.Equal(t, 1, stats.ConfirmedNew)
}

func TestDeduplicatorVectorSearchFailureClassifiesNew(t *testing.T) {
	corpus := &stubCorpus{entries: nil}
	ocr := &stubExtractor{text: "statement of account"}
	embedder := &stubEmbedder{vector: []float32{1, 0}}
	index := &stubIndex{err: errors.New("index offline")}

	d := New(corpus, ocr, embedder, index, nil, nil, Config{})

	result, _, stats, err := d.Check(context.Background(), "statement.pdf", []byte("raw"), "")
	require.NoError(t, err)

	assert.False(t, result.IsDuplicate)
	assert.Equal(t, 1, stats.SemanticChecks)
	assert.Equal(t, 0, stats.SemanticMatches)
	assert.Equal(t, 1, stats.ConfirmedNew)
}

func TestDeduplicatorCorpusError(t *testing.T) {
	corpus := &stubCorpus{err: errors.New("connection refused")}

	d := New(corpus, nil, nil, nil, nil, nil, Config{})

	_, _, _, err := d.Check(context.Background(), "statement.pdf", nil, "")
	assert.Error(t, err)
}

func TestDeduplicatorPrefersProvidedText(t *testing.T) {
	corpus := &stubCorpus{entries: []models.CorpusEntry{
		{JournalID: 5, NormalizedFilename: "other", ContentSample: "invoice acme corp total due"},
	}}
	ocr := &stubExtractor{text: "engine text that should not be used"}

	d := New(corpus, ocr, nil, nil, nil, nil, Config{ContentThreshold: 0.80})

	result, _, _, err := d.Check(context.Background(), "x.pdf", []byte("raw"), "Invoice ACME Corp total due")
	require.NoError(t, err)

	assert.True(t, result.IsDuplicate)
	assert.Equal(t, models.MatchTypeOCRContent, result.MatchType)
	assert.Equal(t, 0, ocr.calls)
}
