package models

// MatchType names the signal that flagged a duplicate.
type MatchType string

const (
	MatchTypeExactHash  MatchType = "exact_hash"
	MatchTypeFilename   MatchType = "filename"
	MatchTypeOCRContent MatchType = "ocr_content"
	MatchTypeSemantic   MatchType = "semantic"
	MatchTypeNone       MatchType = "none"
)

// DuplicateMatchResult is the transient outcome of one cascade run. It is
// consumed by the assessment pipeline and never persisted standalone.
type DuplicateMatchResult struct {
	IsDuplicate      bool      `json:"is_duplicate"`
	MatchType        MatchType `json:"match_type"`
	Similarity       float64   `json:"similarity"`
	MatchedJournalID *int64    `json:"matched_journal_id,omitempty"`
	Tier             int       `json:"tier"`
}

// TierStats counts what one cascade run actually did. Returned alongside
// each result so concurrent submissions never share mutable state.
type TierStats struct {
	FilenameChecks  int `json:"filename_checks"`
	FilenameMatches int `json:"filename_matches"`
	ContentChecks   int `json:"content_checks"`
	ContentMatches  int `json:"content_matches"`
	SemanticChecks  int `json:"semantic_checks"`
	SemanticMatches int `json:"semantic_matches"`
	ConfirmedNew    int `json:"confirmed_new"`
}

// Add merges another run's counters into s.
func (s *TierStats) Add(other TierStats) {
	s.FilenameChecks += other.FilenameChecks
	s.FilenameMatches += other.FilenameMatches
	s.ContentChecks += other.ContentChecks
	s.ContentMatches += other.ContentMatches
	s.SemanticChecks += other.SemanticChecks
	s.SemanticMatches += other.SemanticMatches
	s.ConfirmedNew += other.ConfirmedNew
}
