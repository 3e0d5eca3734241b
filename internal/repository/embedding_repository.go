package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/doc-intake-api/internal/models"
)

// EmbeddingRepository stores semantic fingerprints in a pgvector column
// and answers nearest-neighbour queries for the cascade's last tier.
type EmbeddingRepository struct {
	db *sqlx.DB
}

// NewEmbeddingRepository constructs the repository.
func NewEmbeddingRepository(db *sqlx.DB) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

// Store upserts the embedding for a journal entry.
func (r *EmbeddingRepository) Store(ctx context.Context, journalID int64, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("store embedding: empty vector")
	}
	const query = `INSERT INTO document_embeddings (journal_id, embedding)
	VALUES ($1, $2::vector)
	ON CONFLICT (journal_id) DO UPDATE SET embedding = EXCLUDED.embedding`
	if _, err := r.db.ExecContext(ctx, query, journalID, vectorLiteral(embedding)); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}

// Nearest returns up to k stored embeddings with cosine similarity at or
// above threshold, most similar first. The <=> operator is pgvector's
// cosine distance, so similarity is 1 - distance.
func (r *EmbeddingRepository) Nearest(ctx context.Context, vector []float32, threshold float64, k int) ([]models.EmbeddingMatch, error) {
	if len(vector) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = 5
	}
	const query = `SELECT journal_id, 1 - (embedding <=> $1::vector) AS similarity
	FROM document_embeddings
	WHERE 1 - (embedding <=> $1::vector) >= $2
	ORDER BY embedding <=> $1::vector
	LIMIT $3`
	var matches []models.EmbeddingMatch
	if err := r.db.SelectContext(ctx, &matches, query, vectorLiteral(vector), threshold, k); err != nil {
		return nil, fmt.Errorf("nearest embeddings: %w", err)
	}
	return matches, nil
}

// vectorLiteral renders a float slice in pgvector input syntax,
// e.g. "[0.1,0.2,0.3]".
func vectorLiteral(vector []float32) string {
	builder := strings.Builder{}
	builder.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	builder.WriteByte(']')
	return builder.String()
}
