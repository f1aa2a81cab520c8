package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/brightdocs/brightdocs/internal/domain"
)

// VectorStore handles pgvector-specific operations for content chunks.
// It implements port.VectorIndex.
type VectorStore struct {
	store     *PostgresStore
	dimension int
}

// NewVectorStore creates a vector index backed by the given Postgres store.
func NewVectorStore(store *PostgresStore, dimension int) *VectorStore {
	return &VectorStore{store: store, dimension: dimension}
}

// ReplaceChunks supersedes the full chunk set for a content item in one
// transaction. The new generation is inserted before the old one is deleted
// so a zero-chunk window cannot exist even under weak isolation; readers see
// entirely-old rows until commit, entirely-new after.
func (v *VectorStore) ReplaceChunks(ctx context.Context, contentItemID string, chunks []domain.ContentChunk) error {
	generation := uuid.NewString()

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if len(chunks) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO content_chunks (content_item_id, generation, chunk_index, chunk_text, embedding)
			 VALUES ($1, $2, $3, $4, $5::vector)`)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for _, c := range chunks {
			if v.dimension > 0 && len(c.Vector) != v.dimension {
				return fmt.Errorf("chunk %d: vector dimension %d, want %d", c.ChunkIndex, len(c.Vector), v.dimension)
			}
			if _, err := stmt.ExecContext(ctx,
				contentItemID, generation, c.ChunkIndex, c.ChunkText, vectorToString(c.Vector),
			); err != nil {
				return fmt.Errorf("insert chunk %d: %w", c.ChunkIndex, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM content_chunks WHERE content_item_id = $1 AND generation <> $2`,
		contentItemID, generation,
	); err != nil {
		return fmt.Errorf("delete old generation: %w", err)
	}

	return tx.Commit()
}

// Search performs a cosine similarity search over all chunks, joined with
// item titles and category names. Results are ordered by increasing cosine
// distance; similarity is 1 - distance.
func (v *VectorStore) Search(ctx context.Context, queryVector []float32, limit int, categoryID string) ([]domain.ChunkMatch, error) {
	vectorStr := vectorToString(queryVector)
	query := `SELECT c.content_item_id, c.chunk_text, i.title,
	                 COALESCE(cat.name, ''), COALESCE(sub.name, ''),
	                 1 - (c.embedding <=> $1::vector) AS similarity
	          FROM content_chunks c
	          JOIN content_items i ON i.id = c.content_item_id
	          LEFT JOIN categories cat ON cat.id = i.category_id
	          LEFT JOIN categories sub ON sub.id = i.subcategory_id
	          WHERE ($2 = '' OR i.category_id::text = $2)
	          ORDER BY c.embedding <=> $1::vector
	          LIMIT $3`

	rows, err := v.store.db.QueryContext(ctx, query, vectorStr, categoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.ChunkMatch
	for rows.Next() {
		var m domain.ChunkMatch
		if err := rows.Scan(
			&m.ContentItemID, &m.ChunkText, &m.Title, &m.Category, &m.Subcategory, &m.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan chunk match: %w", err)
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = fmt.Sprintf("%g", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
