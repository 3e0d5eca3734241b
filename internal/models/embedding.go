package models

// DocumentEmbedding is the stored semantic fingerprint for a journal entry.
type DocumentEmbedding struct {
	JournalID int64     `db:"journal_id" json:"journal_id"`
	Embedding []float32 `json:"embedding"`
}

// EmbeddingMatch is one nearest-neighbour hit from the vector index.
type EmbeddingMatch struct {
	JournalID  int64   `db:"journal_id" json:"journal_id"`
	Similarity float64 `db:"similarity" json:"similarity"`
}
